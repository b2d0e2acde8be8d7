package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
)

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// FeeService decides when and how much to charge: recurring monthly fees,
// admission and renewal fees, proration, and the package-protection rule.
// Every date it acts on is passed in explicitly so billing runs can be
// simulated against fabricated dates.
type FeeService struct {
	ledger   *LedgerService
	store    LedgerStore
	students StudentStore
	packages PackageStore
	settings SettingsStore
	cal      calendar.Calendar
	logger   *zap.Logger
}

func NewFeeService(ledger *LedgerService, store LedgerStore, students StudentStore, packages PackageStore, settings SettingsStore, cal calendar.Calendar, logger *zap.Logger) *FeeService {
	return &FeeService{
		ledger:   ledger,
		store:    store,
		students: students,
		packages: packages,
		settings: settings,
		cal:      cal,
		logger:   logger,
	}
}

// MonthlyFeeDue reports whether the student still owes the monthly fee for the
// month containing asOf. Billed means a non-void FEE transaction exists with
// the structured period key, or with "<Month> <Year>" somewhere in its
// description — the loose match keeps enrollment-time fees ("Monthly Fee
// (Enrollment) - …") counted alongside the standard ones.
func (s *FeeService) MonthlyFeeDue(ctx context.Context, studentID int64, asOf calendar.Date) (bool, error) {
	billed, err := s.store.HasFeeForPeriod(ctx, studentID, asOf.PeriodColumn(), asOf.PeriodKey())
	if err != nil {
		return false, fmt.Errorf("failed to check billed period: %w", err)
	}
	return !billed, nil
}

// packageProtected reports whether an active package enrollment covers asOf.
func (s *FeeService) packageProtected(ctx context.Context, studentID int64, asOf calendar.Date) (bool, error) {
	enrollment, err := s.packages.FindActive(ctx, studentID, asOf.Key())
	if err != nil {
		return false, fmt.Errorf("failed to check package protection: %w", err)
	}
	return enrollment != nil, nil
}

// GenerateMonthlyFees bills the standard monthly fee to every Active student
// who hasn't been billed for the month containing asOf and isn't covered by a
// package. Idempotent: a second run for the same month charges nobody.
func (s *FeeService) GenerateMonthlyFees(ctx context.Context, asOf calendar.Date) (int, error) {
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active students: %w", err)
	}

	count := 0
	for _, student := range students {
		due, err := s.MonthlyFeeDue(ctx, student.ID, asOf)
		if err != nil {
			return count, err
		}
		if !due {
			continue
		}
		protected, err := s.packageProtected(ctx, student.ID, asOf)
		if err != nil {
			return count, err
		}
		if protected {
			s.logger.Info("monthly fee skipped, active package",
				zap.Int64("student_id", student.ID),
				zap.String("period", asOf.PeriodKey()))
			continue
		}
		if !student.CustomMonthlyFee.IsPositive() {
			s.logger.Warn("monthly fee skipped, non-positive fee",
				zap.Int64("student_id", student.ID))
			continue
		}

		_, err = s.ledger.Append(ctx, AppendParams{
			StudentID:   student.ID,
			Description: fmt.Sprintf("Monthly Fee - %s", asOf.PeriodKey()),
			Debit:       student.CustomMonthlyFee,
			Type:        models.TxnTypeFee,
			Date:        asOf.Key(),
			Period:      asOf.PeriodColumn(),
		})
		if err != nil {
			return count, err
		}
		count++
		feesGeneratedTotal.Inc()
	}

	s.logger.Info("monthly fees generated",
		zap.String("period", asOf.PeriodKey()),
		zap.Int("count", count))
	return count, nil
}

// Prorate computes the first month's charge for a mid-month enrollment:
// fee scaled by the remaining days of the month, rounded to the whole rupee,
// plus an audit suffix for the description. Day-one enrollments pay the full
// fee with no suffix.
func (s *FeeService) Prorate(fee decimal.Decimal, enrollDate calendar.Date) (decimal.Decimal, string, error) {
	if enrollDate.Day <= 1 {
		return fee, "", nil
	}
	totalDays, err := s.cal.DaysInMonth(enrollDate.Year, enrollDate.Month)
	if err != nil {
		return decimal.Zero, "", err
	}
	remainingDays := totalDays - enrollDate.Day + 1
	charged := fee.
		Mul(decimal.NewFromInt(int64(remainingDays))).
		Div(decimal.NewFromInt(int64(totalDays))).
		Round(0)
	suffix := fmt.Sprintf(" (Prorated: %d/%d days)", remainingDays, totalDays)
	return charged, suffix, nil
}

// AdmissionFee returns the admission amount for the student's fee policy.
func (s *FeeService) AdmissionFee(student *models.Student, settings *models.Settings) decimal.Decimal {
	switch student.AdmissionFeeType {
	case models.AdmissionFeeScholarship:
		return decimal.Zero
	case models.AdmissionFeePercentage:
		return settings.DefaultAdmissionFee.
			Mul(hundred.Sub(student.AdmissionDiscountPercent)).
			Div(hundred).
			Round(2)
	case models.AdmissionFeeFixed:
		return student.CustomAdmissionFee
	default: // Normal
		return settings.DefaultAdmissionFee
	}
}

// ChargeEnrollment bills a newly admitted student: the admission fee (when
// positive) and the prorated first monthly fee for the admission month.
func (s *FeeService) ChargeEnrollment(ctx context.Context, studentID int64, asOf calendar.Date) error {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	admission := s.AdmissionFee(student, settings)
	if admission.IsPositive() {
		if _, err := s.ledger.Append(ctx, AppendParams{
			StudentID:   studentID,
			Description: "Admission Fee",
			Debit:       admission,
			Type:        models.TxnTypeFee,
			Date:        asOf.Key(),
		}); err != nil {
			return err
		}
	}

	charged, suffix, err := s.Prorate(student.CustomMonthlyFee, asOf)
	if err != nil {
		return err
	}
	if !charged.IsPositive() {
		return nil
	}
	_, err = s.ledger.Append(ctx, AppendParams{
		StudentID:   studentID,
		Description: fmt.Sprintf("Monthly Fee (Enrollment) - %s%s", asOf.PeriodKey(), suffix),
		Debit:       charged,
		Type:        models.TxnTypeFee,
		Date:        asOf.Key(),
		Period:      asOf.PeriodColumn(),
	})
	return err
}

// AdmitStudent creates the student record, stamps their admission date, and
// posts the admission-time charges via ChargeEnrollment.
func (s *FeeService) AdmitStudent(ctx context.Context, req models.AdmitStudentRequest, asOf calendar.Date) (*models.Student, error) {
	if req.MonthlyFee.IsNegative() || req.AdmissionDiscountPercent.IsNegative() || req.CustomAdmissionFee.IsNegative() {
		return nil, fmt.Errorf("%w: fees must be non-negative", ErrInvalidAmount)
	}
	feeType := req.AdmissionFeeType
	if feeType == "" {
		feeType = models.AdmissionFeeNormal
	}

	now := time.Now()
	student := &models.Student{
		Name:                     req.Name,
		Phone:                    req.Phone,
		DOB:                      req.DOB,
		Status:                   models.StudentStatusActive,
		CustomMonthlyFee:         req.MonthlyFee,
		BaseMonthlyFee:           req.MonthlyFee,
		AdmissionFeeType:         feeType,
		AdmissionDiscountPercent: req.AdmissionDiscountPercent,
		CustomAdmissionFee:       req.CustomAdmissionFee,
		LastAdmissionDate:        asOf.Key(),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	if err := s.ChargeEnrollment(ctx, student.ID, asOf); err != nil {
		return nil, err
	}

	s.logger.Info("student admitted",
		zap.Int64("student_id", student.ID),
		zap.String("date", asOf.Key()))
	return student, nil
}

// ChargeReadmission charges 50% of the type-appropriate admission fee when a
// student is re-activated. Only ever called explicitly; a zero amount
// (Scholarship) charges nothing and returns nil, nil.
func (s *FeeService) ChargeReadmission(ctx context.Context, studentID int64, asOf calendar.Date) (*models.Transaction, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	amount := s.AdmissionFee(student, settings).Mul(fifty).Div(hundred).Round(2)
	if !amount.IsPositive() {
		return nil, nil
	}
	return s.ledger.Append(ctx, AppendParams{
		StudentID:   studentID,
		Description: "Re-admission Fee (50%)",
		Debit:       amount,
		Type:        models.TxnTypeFee,
		Date:        asOf.Key(),
	})
}

// RenewalDue reports whether a year or more has passed since the student's
// last admission, by calendar-field comparison rather than day counting: the
// year must be strictly greater and the month/day at or past the anniversary.
func (s *FeeService) RenewalDue(student *models.Student, today calendar.Date) bool {
	if student.LastAdmissionDate == "" {
		return false
	}
	last, err := calendar.Parse(student.LastAdmissionDate)
	if err != nil {
		return false
	}
	if today.Year <= last.Year {
		return false
	}
	if today.Month > last.Month {
		return true
	}
	return today.Month == last.Month && today.Day >= last.Day
}

// RenewAdmissions charges the annual admission renewal to every Active student
// whose renewal is due, then advances their last admission date to asOf.
// Students with malformed stored dates are logged and skipped.
func (s *FeeService) RenewAdmissions(ctx context.Context, asOf calendar.Date) (int, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings: %w", err)
	}
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active students: %w", err)
	}

	count := 0
	for _, student := range students {
		if student.LastAdmissionDate == "" {
			continue
		}
		if _, err := calendar.Parse(student.LastAdmissionDate); err != nil {
			s.logger.Warn("renewal skipped, malformed last admission date",
				zap.Int64("student_id", student.ID),
				zap.String("last_admission_date", student.LastAdmissionDate))
			continue
		}
		if !s.RenewalDue(student, asOf) {
			continue
		}

		amount := s.AdmissionFee(student, settings)
		if !amount.IsPositive() {
			continue
		}
		if _, err := s.ledger.Append(ctx, AppendParams{
			StudentID:   student.ID,
			Description: fmt.Sprintf("Annual Admission Renewal (%d)", asOf.Year),
			Debit:       amount,
			Type:        models.TxnTypeFee,
			Date:        asOf.Key(),
		}); err != nil {
			return count, err
		}
		if err := s.students.UpdateLastAdmissionDate(ctx, student.ID, asOf.Key()); err != nil {
			return count, fmt.Errorf("failed to advance admission date: %w", err)
		}
		count++
	}

	s.logger.Info("admissions renewed", zap.Int("count", count))
	return count, nil
}

// RecordPayment records a payment, billing the current month's fee first if it
// hasn't been billed yet and no package protects the student, so the payment
// settles against up-to-date dues.
func (s *FeeService) RecordPayment(ctx context.Context, studentID int64, amount decimal.Decimal, mode string, asOf calendar.Date) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be greater than zero", ErrInvalidAmount)
	}
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}

	due, err := s.MonthlyFeeDue(ctx, studentID, asOf)
	if err != nil {
		return nil, err
	}
	if due && student.CustomMonthlyFee.IsPositive() {
		protected, err := s.packageProtected(ctx, studentID, asOf)
		if err != nil {
			return nil, err
		}
		if !protected {
			if _, err := s.ledger.Append(ctx, AppendParams{
				StudentID:   studentID,
				Description: fmt.Sprintf("Monthly Fee - %s", asOf.PeriodKey()),
				Debit:       student.CustomMonthlyFee,
				Type:        models.TxnTypeFee,
				Date:        asOf.Key(),
				Period:      asOf.PeriodColumn(),
			}); err != nil {
				return nil, err
			}
			s.logger.Info("monthly fee auto-billed before payment",
				zap.Int64("student_id", studentID),
				zap.String("period", asOf.PeriodKey()))
		}
	}

	return s.ledger.Append(ctx, AppendParams{
		StudentID:   studentID,
		Description: fmt.Sprintf("Payment - %s", mode),
		Credit:      amount,
		Type:        models.TxnTypePayment,
		Date:        asOf.Key(),
	})
}
