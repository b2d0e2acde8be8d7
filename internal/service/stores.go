package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/besal25/dance-academy/internal/models"
)

// Lookup methods on these interfaces return (nil, nil) when the record is
// absent; the services translate that into ErrNotFound where it matters.

// BalanceUpdate is one row's corrected snapshot from a recomputation pass.
type BalanceUpdate struct {
	TransactionID int64
	Balance       decimal.Decimal
}

// LedgerStore is the durable transaction log.
type LedgerStore interface {
	Insert(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	// LatestNonVoid returns the most recent non-void transaction for the
	// student by (date desc, id desc).
	LatestNonVoid(ctx context.Context, studentID int64) (*models.Transaction, error)
	// ListByStudent returns every transaction for the student, void included,
	// ordered (date asc, id asc).
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Transaction, error)
	// ListByStudentRange returns transactions newest-first, optionally bounded
	// by inclusive date keys (empty string means unbounded).
	ListByStudentRange(ctx context.Context, studentID int64, startDate, endDate string) ([]*models.Transaction, error)
	MarkVoid(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	// UpdateBalances applies a recomputation batch as one atomic unit.
	UpdateBalances(ctx context.Context, updates []BalanceUpdate) error
	// HasFeeForPeriod reports whether a non-void FEE transaction exists for the
	// period, matching either the structured period column or the human
	// "<Month> <Year>" label as a description substring.
	HasFeeForPeriod(ctx context.Context, studentID int64, period, label string) (bool, error)
	SearchByDescription(ctx context.Context, query string, limit int) ([]*models.Transaction, error)
}

// StudentStore provides student lookups for the billing core.
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	ListActive(ctx context.Context) ([]*models.Student, error)
	UpdateLastAdmissionDate(ctx context.Context, id int64, date string) error
	SearchByNameOrPhone(ctx context.Context, query string, limit int) ([]*models.Student, error)
}

// PackageStore backs package protection and enrollment.
type PackageStore interface {
	GetPackage(ctx context.Context, id int64) (*models.Package, error)
	InsertEnrollment(ctx context.Context, e *models.PackageEnrollment) error
	GetEnrollment(ctx context.Context, id int64) (*models.PackageEnrollment, error)
	DeleteEnrollment(ctx context.Context, id int64) error
	// FindActive returns an enrollment whose [start_date, end_date] range
	// contains the given date key, inclusive on both ends.
	FindActive(ctx context.Context, studentID int64, date string) (*models.PackageEnrollment, error)
}

// SettingsStore returns the settings singleton.
type SettingsStore interface {
	Get(ctx context.Context) (*models.Settings, error)
}
