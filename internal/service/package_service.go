package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
)

// PackageService enrolls students into packages and posts the matching ledger
// charges. An active enrollment suppresses the standard monthly fee for its
// whole [start, end] window.
type PackageService struct {
	ledger   *LedgerService
	store    LedgerStore
	packages PackageStore
	students StudentStore
	cal      calendar.Calendar
	logger   *zap.Logger
}

func NewPackageService(ledger *LedgerService, store LedgerStore, packages PackageStore, students StudentStore, cal calendar.Calendar, logger *zap.Logger) *PackageService {
	return &PackageService{
		ledger:   ledger,
		store:    store,
		packages: packages,
		students: students,
		cal:      cal,
		logger:   logger,
	}
}

// Enroll creates the enrollment window (start plus the package duration, day
// clamped by the calendar), charges the package price as a FEE, and records an
// up-front payment when one was taken. Students who have never paid admission
// cannot enroll. With SkipMonthlyFees set, monthly fees already billed for the
// window's months are voided so the student is not charged twice.
func (s *PackageService) Enroll(ctx context.Context, packageID int64, req models.EnrollPackageRequest) (*models.PackageEnrollment, error) {
	if req.AmountPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amount paid must be non-negative", ErrInvalidAmount)
	}
	pkg, err := s.packages.GetPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up package: %w", err)
	}
	if pkg == nil {
		return nil, fmt.Errorf("package %d: %w", packageID, ErrNotFound)
	}
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", req.StudentID, ErrNotFound)
	}
	if student.LastAdmissionDate == "" {
		return nil, fmt.Errorf("%w: student %d must pay admission before enrolling in a package", ErrInconsistentState, req.StudentID)
	}

	start := s.cal.Today()
	if req.StartDate != "" {
		if start, err = calendar.Parse(req.StartDate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInconsistentState, err)
		}
	}
	end, err := s.cal.AddMonths(start, pkg.DurationMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to compute enrollment window: %w", err)
	}

	enrollment := &models.PackageEnrollment{
		StudentID: req.StudentID,
		PackageID: packageID,
		StartDate: start.Key(),
		EndDate:   end.Key(),
		CreatedAt: time.Now(),
	}
	if err := s.packages.InsertEnrollment(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to save enrollment: %w", err)
	}

	if _, err := s.ledger.Append(ctx, AppendParams{
		StudentID:   req.StudentID,
		Description: fmt.Sprintf("Package: %s (%d Months)", pkg.Name, pkg.DurationMonths),
		Debit:       pkg.Price,
		Type:        models.TxnTypeFee,
		Date:        start.Key(),
	}); err != nil {
		return nil, err
	}

	if req.AmountPaid.IsPositive() {
		if _, err := s.ledger.Append(ctx, AppendParams{
			StudentID:   req.StudentID,
			Description: fmt.Sprintf("Payment for Package: %s", pkg.Name),
			Credit:      req.AmountPaid,
			Type:        models.TxnTypePayment,
			Date:        start.Key(),
		}); err != nil {
			return nil, err
		}
	}

	if req.SkipMonthlyFees {
		waived, err := s.waiveMonthlyFees(ctx, req.StudentID, start, pkg.DurationMonths)
		if err != nil {
			return nil, err
		}
		if waived > 0 {
			s.logger.Info("overlapping monthly fees waived",
				zap.Int64("student_id", req.StudentID),
				zap.Int("waived", waived))
		}
	}

	s.logger.Info("student enrolled in package",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("package_id", packageID),
		zap.String("start_date", enrollment.StartDate),
		zap.String("end_date", enrollment.EndDate))

	return enrollment, nil
}

// waiveMonthlyFees voids every non-void monthly FEE row billed for the months
// the package covers, so an enrollment placed after the month's billing run
// does not leave the student double-charged.
func (s *PackageService) waiveMonthlyFees(ctx context.Context, studentID int64, start calendar.Date, months int) (int, error) {
	labels := make([]string, 0, months)
	periods := make([]string, 0, months)
	for i := 0; i < months; i++ {
		month, err := s.cal.AddMonths(start, i)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve waiver months: %w", err)
		}
		labels = append(labels, month.PeriodKey())
		periods = append(periods, month.PeriodColumn())
	}

	txns, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load ledger for waiver: %w", err)
	}

	waived := 0
	for _, txn := range txns {
		if txn.IsVoid || txn.Type != models.TxnTypeFee || !strings.Contains(txn.Description, "Monthly Fee") {
			continue
		}
		for i := range periods {
			if txn.Period == periods[i] || strings.Contains(txn.Description, labels[i]) {
				if _, err := s.ledger.Void(ctx, txn.ID); err != nil {
					return waived, err
				}
				waived++
				break
			}
		}
	}
	return waived, nil
}

// Unenroll removes a package enrollment and voids the ledger rows it created,
// both the package fee and any payment recorded against it, then recomputes
// through the usual void path.
func (s *PackageService) Unenroll(ctx context.Context, enrollmentID int64) error {
	enrollment, err := s.packages.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to look up enrollment: %w", err)
	}
	if enrollment == nil {
		return fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
	}
	pkg, err := s.packages.GetPackage(ctx, enrollment.PackageID)
	if err != nil {
		return fmt.Errorf("failed to look up package: %w", err)
	}
	if pkg == nil {
		return fmt.Errorf("package %d: %w", enrollment.PackageID, ErrNotFound)
	}

	txns, err := s.store.ListByStudent(ctx, enrollment.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	// "Package: <Name>" matches the fee row and the payment row alike.
	marker := fmt.Sprintf("Package: %s", pkg.Name)
	for _, txn := range txns {
		if txn.IsVoid || !strings.Contains(txn.Description, marker) {
			continue
		}
		if txn.Date < enrollment.StartDate || txn.Date > enrollment.EndDate {
			continue
		}
		if _, err := s.ledger.Void(ctx, txn.ID); err != nil {
			return err
		}
	}

	if err := s.packages.DeleteEnrollment(ctx, enrollmentID); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	s.logger.Info("student removed from package",
		zap.Int64("enrollment_id", enrollmentID),
		zap.Int64("student_id", enrollment.StudentID),
		zap.Int64("package_id", enrollment.PackageID))
	return nil
}
