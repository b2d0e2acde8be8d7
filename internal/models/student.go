package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StudentStatus string
type AdmissionFeeType string

const (
	StudentStatusActive   StudentStatus = "Active"
	StudentStatusInactive StudentStatus = "Inactive"

	AdmissionFeeNormal      AdmissionFeeType = "Normal"
	AdmissionFeeScholarship AdmissionFeeType = "Scholarship"
	AdmissionFeePercentage  AdmissionFeeType = "Percentage"
	AdmissionFeeFixed       AdmissionFeeType = "Fixed"
)

// Student carries the billing-relevant subset of a student record. Date fields
// (DOB, LastAdmissionDate) are BS date keys; empty string means unset.
type Student struct {
	ID                       int64            `json:"id" db:"id"`
	Name                     string           `json:"name" db:"name"`
	Phone                    string           `json:"phone" db:"phone"`
	DOB                      string           `json:"dob,omitempty" db:"dob"`
	Status                   StudentStatus    `json:"status" db:"status"`
	CustomMonthlyFee         decimal.Decimal  `json:"custom_monthly_fee" db:"custom_monthly_fee"`
	BaseMonthlyFee           decimal.Decimal  `json:"base_monthly_fee" db:"base_monthly_fee"`
	AdmissionFeeType         AdmissionFeeType `json:"admission_fee_type" db:"admission_fee_type"`
	AdmissionDiscountPercent decimal.Decimal  `json:"admission_discount_percent" db:"admission_discount_percent"`
	CustomAdmissionFee       decimal.Decimal  `json:"custom_admission_fee" db:"custom_admission_fee"`
	LastAdmissionDate        string           `json:"last_admission_date,omitempty" db:"last_admission_date"`
	CreatedAt                time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at" db:"updated_at"`
}

// AdmitStudentRequest creates a student and posts their admission-time
// charges: the admission fee for their fee policy plus the prorated first
// monthly fee.
type AdmitStudentRequest struct {
	Name                     string           `json:"name" binding:"required"`
	Phone                    string           `json:"phone"`
	DOB                      string           `json:"dob"`
	MonthlyFee               decimal.Decimal  `json:"monthly_fee"`
	AdmissionFeeType         AdmissionFeeType `json:"admission_fee_type"`
	AdmissionDiscountPercent decimal.Decimal  `json:"admission_discount_percent"`
	CustomAdmissionFee       decimal.Decimal  `json:"custom_admission_fee"`
}

// Settings is the singleton configuration row.
type Settings struct {
	ID                  int64           `json:"id" db:"id"`
	DefaultAdmissionFee decimal.Decimal `json:"default_admission_fee" db:"default_admission_fee"`
}

// Database schema
const StudentSchema = `
CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(200) NOT NULL,
    phone VARCHAR(20) NOT NULL DEFAULT '',
    dob VARCHAR(10) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'Active',
    custom_monthly_fee DECIMAL(19, 4) NOT NULL DEFAULT 0,
    base_monthly_fee DECIMAL(19, 4) NOT NULL DEFAULT 0,
    admission_fee_type VARCHAR(20) NOT NULL DEFAULT 'Normal',
    admission_discount_percent DECIMAL(5, 2) NOT NULL DEFAULT 0,
    custom_admission_fee DECIMAL(19, 4) NOT NULL DEFAULT 0,
    last_admission_date VARCHAR(10) NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);
CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);
`

const SettingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
    id BIGINT PRIMARY KEY DEFAULT 1,
    default_admission_fee DECIMAL(19, 4) NOT NULL DEFAULT 1000
);

INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
`
