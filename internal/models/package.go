package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package is a multi-month bundle sold at a flat price. While a student is
// enrolled in one, the standard monthly fee is suppressed.
type Package struct {
	ID             int64           `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Price          decimal.Decimal `json:"price" db:"price"`
	DurationMonths int             `json:"duration_months" db:"duration_months"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// PackageEnrollment is a student's stay inside a package. StartDate and
// EndDate are BS date keys; the protection window is inclusive on both ends.
type PackageEnrollment struct {
	ID        int64     `json:"id" db:"id"`
	StudentID int64     `json:"student_id" db:"student_id"`
	PackageID int64     `json:"package_id" db:"package_id"`
	StartDate string    `json:"start_date" db:"start_date"`
	EndDate   string    `json:"end_date" db:"end_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// EnrollPackageRequest enrolls a student into a package, optionally recording
// an up-front payment. SkipMonthlyFees voids monthly fees already billed for
// the months the package covers.
type EnrollPackageRequest struct {
	StudentID       int64           `json:"student_id" binding:"required"`
	StartDate       string          `json:"start_date"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	SkipMonthlyFees bool            `json:"skip_monthly_fees"`
}

// Database schema
const PackageSchema = `
CREATE TABLE IF NOT EXISTS packages (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    price DECIMAL(19, 4) NOT NULL,
    duration_months INT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS package_enrollments (
    id BIGSERIAL PRIMARY KEY,
    student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    package_id BIGINT NOT NULL REFERENCES packages(id),
    start_date VARCHAR(10) NOT NULL,
    end_date VARCHAR(10) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_enrollments_student_range ON package_enrollments(student_id, start_date, end_date);
`
