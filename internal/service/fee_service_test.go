package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
)

func countFees(t *testing.T, env *testEnv, studentID int64) int {
	t.Helper()
	txns, err := env.store.ListByStudent(context.Background(), studentID)
	if err != nil {
		t.Fatalf("ListByStudent() error = %v", err)
	}
	count := 0
	for _, txn := range txns {
		if txn.Type == models.TxnTypeFee && !txn.IsVoid {
			count++
		}
	}
	return count
}

func TestGenerateMonthlyFeesIsIdempotent(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Anita", 5000)

	count, err := env.fees.GenerateMonthlyFees(context.Background(), testToday)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("first run generated %d fees, want 1", count)
	}

	count, err = env.fees.GenerateMonthlyFees(context.Background(), testToday)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees() second run error = %v", err)
	}
	if count != 0 {
		t.Errorf("second run generated %d fees, want 0", count)
	}
	if got := countFees(t, env, s.ID); got != 1 {
		t.Errorf("student has %d FEE transactions, want 1", got)
	}
	wantBalance(t, env, s.ID, "5000")
}

func TestGenerateMonthlyFeesSkipsInactive(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.students.add(&models.Student{
		Name:             "Left Last Year",
		Status:           models.StudentStatusInactive,
		CustomMonthlyFee: decimal.NewFromInt(5000),
	})

	count, err := env.fees.GenerateMonthlyFees(context.Background(), testToday)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees() error = %v", err)
	}
	if count != 0 {
		t.Errorf("generated %d fees for inactive students, want 0", count)
	}
	if got := countFees(t, env, s.ID); got != 0 {
		t.Errorf("inactive student has %d FEE transactions, want 0", got)
	}
}

// A student inside an active package window must never be charged the
// standard monthly fee.
func TestPackageProtectionSuppressesMonthlyFee(t *testing.T) {
	env := newTestEnv(testToday)
	protected := env.addActiveStudent("Binod", 5000)
	unprotected := env.addActiveStudent("Chandra", 5000)

	env.pkgs.enrollments = append(env.pkgs.enrollments, &models.PackageEnrollment{
		ID:        1,
		StudentID: protected.ID,
		PackageID: 1,
		StartDate: "2081-10-01",
		EndDate:   "2082-01-01",
	})

	count, err := env.fees.GenerateMonthlyFees(context.Background(), testToday)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees() error = %v", err)
	}
	if count != 1 {
		t.Errorf("generated %d fees, want 1", count)
	}
	if got := countFees(t, env, protected.ID); got != 0 {
		t.Errorf("protected student has %d FEE transactions, want 0", got)
	}
	if got := countFees(t, env, unprotected.ID); got != 1 {
		t.Errorf("unprotected student has %d FEE transactions, want 1", got)
	}
}

func TestPackageProtectionWindowIsInclusive(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Deepa", 5000)
	env.pkgs.enrollments = append(env.pkgs.enrollments, &models.PackageEnrollment{
		ID:        1,
		StudentID: s.ID,
		PackageID: 1,
		StartDate: "2081-10-01",
		EndDate:   "2081-12-30",
	})

	tests := []struct {
		name      string
		asOf      calendar.Date
		protected bool
	}{
		{"day before start", calendar.Date{Year: 2081, Month: 9, Day: 30}, false},
		{"start day", calendar.Date{Year: 2081, Month: 10, Day: 1}, true},
		{"mid window", calendar.Date{Year: 2081, Month: 11, Day: 15}, true},
		{"end day", calendar.Date{Year: 2081, Month: 12, Day: 30}, true},
		{"day after end", calendar.Date{Year: 2082, Month: 1, Day: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.fees.packageProtected(context.Background(), s.ID, tt.asOf)
			if err != nil {
				t.Fatalf("packageProtected() error = %v", err)
			}
			if got != tt.protected {
				t.Errorf("packageProtected(%s) = %v, want %v", tt.asOf.Key(), got, tt.protected)
			}
		})
	}
}

// An enrollment-time fee ("Monthly Fee (Enrollment) - …") must count as the
// month's billing even though its description prefix differs.
func TestMonthlyFeeDueMatchesEnrollmentFee(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Elina", 5000)

	mustAppend(t, env, AppendParams{
		StudentID:   s.ID,
		Description: "Monthly Fee (Enrollment) - Magh 2081 (Prorated: 16/30 days)",
		Debit:       decimal.NewFromInt(2667),
		Type:        models.TxnTypeFee,
		Period:      testToday.PeriodColumn(),
	})

	due, err := env.fees.MonthlyFeeDue(context.Background(), s.ID, testToday)
	if err != nil {
		t.Fatalf("MonthlyFeeDue() error = %v", err)
	}
	if due {
		t.Error("MonthlyFeeDue() = true after enrollment fee, want false")
	}

	count, err := env.fees.GenerateMonthlyFees(context.Background(), testToday)
	if err != nil {
		t.Fatalf("GenerateMonthlyFees() error = %v", err)
	}
	if count != 0 {
		t.Errorf("generated %d fees on top of enrollment fee, want 0", count)
	}
}

func TestVoidedFeeIsBilledAgain(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Gita", 5000)

	fee := mustAppend(t, env, AppendParams{
		StudentID:   s.ID,
		Description: "Monthly Fee - Magh 2081",
		Debit:       decimal.NewFromInt(5000),
		Type:        models.TxnTypeFee,
		Period:      testToday.PeriodColumn(),
	})
	if _, err := env.ledger.Void(context.Background(), fee.ID); err != nil {
		t.Fatalf("Void() error = %v", err)
	}

	due, err := env.fees.MonthlyFeeDue(context.Background(), s.ID, testToday)
	if err != nil {
		t.Fatalf("MonthlyFeeDue() error = %v", err)
	}
	if !due {
		t.Error("MonthlyFeeDue() = false after the only fee was voided, want true")
	}
}

func TestProrate(t *testing.T) {
	env := newTestEnv(testToday)

	tests := []struct {
		name       string
		fee        int64
		enrollDay  int
		wantAmount string
		wantSuffix string
	}{
		{"day one pays full month", 3000, 1, "3000", ""},
		{"mid month", 3000, 19, "1200", " (Prorated: 12/30 days)"},
		{"last day", 3000, 30, "100", " (Prorated: 1/30 days)"},
		{"rounding", 5000, 12, "3167", " (Prorated: 19/30 days)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enroll := calendar.Date{Year: 2081, Month: 10, Day: tt.enrollDay}
			amount, suffix, err := env.fees.Prorate(decimal.NewFromInt(tt.fee), enroll)
			if err != nil {
				t.Fatalf("Prorate() error = %v", err)
			}
			if !amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("Prorate() amount = %s, want %s", amount, tt.wantAmount)
			}
			if suffix != tt.wantSuffix {
				t.Errorf("Prorate() suffix = %q, want %q", suffix, tt.wantSuffix)
			}
		})
	}
}

func TestAdmissionFee(t *testing.T) {
	env := newTestEnv(testToday)
	settings := &models.Settings{DefaultAdmissionFee: decimal.NewFromInt(1000)}

	tests := []struct {
		name    string
		student models.Student
		want    string
	}{
		{
			name:    "normal pays the default",
			student: models.Student{AdmissionFeeType: models.AdmissionFeeNormal},
			want:    "1000",
		},
		{
			name:    "scholarship pays nothing",
			student: models.Student{AdmissionFeeType: models.AdmissionFeeScholarship},
			want:    "0",
		},
		{
			name: "percentage discount is exact",
			student: models.Student{
				AdmissionFeeType:         models.AdmissionFeePercentage,
				AdmissionDiscountPercent: decimal.NewFromInt(25),
			},
			want: "750",
		},
		{
			name: "fixed uses the custom amount",
			student: models.Student{
				AdmissionFeeType:   models.AdmissionFeeFixed,
				CustomAdmissionFee: decimal.NewFromInt(1500),
			},
			want: "1500",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := env.fees.AdmissionFee(&tt.student, settings)
			if got.String() != tt.want {
				t.Errorf("AdmissionFee() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChargeReadmissionIsHalf(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.students.add(&models.Student{
		Name:                     "Hari",
		Status:                   models.StudentStatusActive,
		CustomMonthlyFee:         decimal.NewFromInt(5000),
		AdmissionFeeType:         models.AdmissionFeePercentage,
		AdmissionDiscountPercent: decimal.NewFromInt(25),
	})

	txn, err := env.fees.ChargeReadmission(context.Background(), s.ID, testToday)
	if err != nil {
		t.Fatalf("ChargeReadmission() error = %v", err)
	}
	if txn == nil {
		t.Fatal("ChargeReadmission() charged nothing")
	}
	if !txn.Debit.Equal(decimal.NewFromInt(375)) {
		t.Errorf("re-admission debit = %s, want 375", txn.Debit)
	}
	if txn.Description != "Re-admission Fee (50%)" {
		t.Errorf("re-admission description = %q", txn.Description)
	}
}

func TestChargeReadmissionScholarshipIsFree(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.students.add(&models.Student{
		Name:             "Indira",
		Status:           models.StudentStatusActive,
		AdmissionFeeType: models.AdmissionFeeScholarship,
	})

	txn, err := env.fees.ChargeReadmission(context.Background(), s.ID, testToday)
	if err != nil {
		t.Fatalf("ChargeReadmission() error = %v", err)
	}
	if txn != nil {
		t.Errorf("ChargeReadmission() charged %s to a scholarship student", txn.Debit)
	}
}

func TestRenewalDue(t *testing.T) {
	env := newTestEnv(testToday)

	tests := []struct {
		name          string
		lastAdmission string
		today         calendar.Date
		want          bool
	}{
		{"no admission date", "", calendar.Date{Year: 2081, Month: 10, Day: 15}, false},
		{"same year", "2081-01-15", calendar.Date{Year: 2081, Month: 12, Day: 30}, false},
		{"next year before anniversary month", "2080-11-15", calendar.Date{Year: 2081, Month: 10, Day: 20}, false},
		{"next year same month before day", "2080-10-20", calendar.Date{Year: 2081, Month: 10, Day: 15}, false},
		{"exactly one year", "2080-10-15", calendar.Date{Year: 2081, Month: 10, Day: 15}, true},
		{"next year past anniversary month", "2080-09-15", calendar.Date{Year: 2081, Month: 10, Day: 1}, true},
		{"several years", "2078-01-01", calendar.Date{Year: 2081, Month: 10, Day: 15}, true},
		{"malformed date", "15/01/2080", calendar.Date{Year: 2081, Month: 10, Day: 15}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := &models.Student{LastAdmissionDate: tt.lastAdmission}
			if got := env.fees.RenewalDue(student, tt.today); got != tt.want {
				t.Errorf("RenewalDue(%q, %s) = %v, want %v", tt.lastAdmission, tt.today.Key(), got, tt.want)
			}
		})
	}
}

func TestRenewAdmissionsChargesAndAdvancesDate(t *testing.T) {
	env := newTestEnv(testToday)
	due := env.students.add(&models.Student{
		Name:              "Jiban",
		Status:            models.StudentStatusActive,
		CustomMonthlyFee:  decimal.NewFromInt(5000),
		AdmissionFeeType:  models.AdmissionFeeNormal,
		LastAdmissionDate: "2080-10-01",
	})
	notDue := env.students.add(&models.Student{
		Name:              "Kamal",
		Status:            models.StudentStatusActive,
		CustomMonthlyFee:  decimal.NewFromInt(5000),
		AdmissionFeeType:  models.AdmissionFeeNormal,
		LastAdmissionDate: "2081-05-01",
	})

	count, err := env.fees.RenewAdmissions(context.Background(), testToday)
	if err != nil {
		t.Fatalf("RenewAdmissions() error = %v", err)
	}
	if count != 1 {
		t.Errorf("RenewAdmissions() = %d, want 1", count)
	}

	renewed, _ := env.students.GetByID(context.Background(), due.ID)
	if renewed.LastAdmissionDate != testToday.Key() {
		t.Errorf("last_admission_date = %s, want %s", renewed.LastAdmissionDate, testToday.Key())
	}
	untouched, _ := env.students.GetByID(context.Background(), notDue.ID)
	if untouched.LastAdmissionDate != "2081-05-01" {
		t.Errorf("not-due student's admission date moved to %s", untouched.LastAdmissionDate)
	}
	wantBalance(t, env, due.ID, "1000")
}

func TestChargeEnrollmentProratesFirstMonth(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.students.add(&models.Student{
		Name:             "Laxmi",
		Status:           models.StudentStatusActive,
		CustomMonthlyFee: decimal.NewFromInt(3000),
		AdmissionFeeType: models.AdmissionFeeNormal,
	})

	enrollDate := calendar.Date{Year: 2081, Month: 10, Day: 19}
	if err := env.fees.ChargeEnrollment(context.Background(), s.ID, enrollDate); err != nil {
		t.Fatalf("ChargeEnrollment() error = %v", err)
	}

	txns, _ := env.store.ListByStudent(context.Background(), s.ID)
	if len(txns) != 2 {
		t.Fatalf("enrollment created %d transactions, want 2", len(txns))
	}
	if txns[0].Description != "Admission Fee" || !txns[0].Debit.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("admission txn = %q / %s", txns[0].Description, txns[0].Debit)
	}
	wantDesc := "Monthly Fee (Enrollment) - Magh 2081 (Prorated: 12/30 days)"
	if txns[1].Description != wantDesc {
		t.Errorf("enrollment fee description = %q, want %q", txns[1].Description, wantDesc)
	}
	if !txns[1].Debit.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("enrollment fee debit = %s, want 1200", txns[1].Debit)
	}
	wantBalance(t, env, s.ID, "2200")
}

func TestAdmitStudentCreatesAndCharges(t *testing.T) {
	env := newTestEnv(testToday)

	student, err := env.fees.AdmitStudent(context.Background(), models.AdmitStudentRequest{
		Name:       "Rekha",
		Phone:      "9841000000",
		MonthlyFee: decimal.NewFromInt(3000),
	}, testToday)
	if err != nil {
		t.Fatalf("AdmitStudent() error = %v", err)
	}
	if student.Status != models.StudentStatusActive {
		t.Errorf("admitted student status = %s, want Active", student.Status)
	}
	if student.LastAdmissionDate != testToday.Key() {
		t.Errorf("last_admission_date = %s, want %s", student.LastAdmissionDate, testToday.Key())
	}

	txns, _ := env.store.ListByStudent(context.Background(), student.ID)
	if len(txns) != 2 {
		t.Fatalf("admission created %d transactions, want 2", len(txns))
	}
	if txns[0].Description != "Admission Fee" || !txns[0].Debit.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("admission txn = %q / %s", txns[0].Description, txns[0].Debit)
	}
	// Day 15 of a 30-day month: 16 remaining days of a 3000 fee.
	if !txns[1].Debit.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("prorated fee debit = %s, want 1600", txns[1].Debit)
	}
	wantBalance(t, env, student.ID, "2600")

	// The enrollment fee counts as the month's billing.
	due, err := env.fees.MonthlyFeeDue(context.Background(), student.ID, testToday)
	if err != nil {
		t.Fatalf("MonthlyFeeDue() error = %v", err)
	}
	if due {
		t.Error("MonthlyFeeDue() = true right after admission, want false")
	}
}

func TestAdmitStudentRejectsNegativeFees(t *testing.T) {
	env := newTestEnv(testToday)
	if _, err := env.fees.AdmitStudent(context.Background(), models.AdmitStudentRequest{
		Name:       "Bad",
		MonthlyFee: decimal.NewFromInt(-3000),
	}, testToday); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("AdmitStudent() error = %v, want ErrInvalidAmount", err)
	}
}

func TestRecordPaymentAutoBillsMonthlyFee(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Mina", 4500)

	txn, err := env.fees.RecordPayment(context.Background(), s.ID, decimal.NewFromInt(3000), "Cash", testToday)
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if txn.Description != "Payment - Cash" {
		t.Errorf("payment description = %q", txn.Description)
	}

	// The monthly fee was billed first, so the payment lands on fresh dues.
	wantBalance(t, env, s.ID, "1500")
	if got := countFees(t, env, s.ID); got != 1 {
		t.Errorf("auto-billing created %d fees, want 1", got)
	}

	// A second payment in the same month must not bill the fee again.
	if _, err := env.fees.RecordPayment(context.Background(), s.ID, decimal.NewFromInt(1500), "eSewa", testToday); err != nil {
		t.Fatalf("second RecordPayment() error = %v", err)
	}
	wantBalance(t, env, s.ID, "0")
	if got := countFees(t, env, s.ID); got != 1 {
		t.Errorf("second payment created extra fees: %d, want 1", got)
	}
}

func TestRecordPaymentSkipsFeeWhenProtected(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Nisha", 4500)
	env.pkgs.enrollments = append(env.pkgs.enrollments, &models.PackageEnrollment{
		ID:        1,
		StudentID: s.ID,
		PackageID: 1,
		StartDate: "2081-10-01",
		EndDate:   "2082-01-01",
	})

	if _, err := env.fees.RecordPayment(context.Background(), s.ID, decimal.NewFromInt(2000), "Cash", testToday); err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if got := countFees(t, env, s.ID); got != 0 {
		t.Errorf("payment during package billed %d fees, want 0", got)
	}
	wantBalance(t, env, s.ID, "-2000")
}

func TestRecordPaymentRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(testToday)
	s := env.addActiveStudent("Om", 4500)

	for _, amount := range []int64{0, -500} {
		if _, err := env.fees.RecordPayment(context.Background(), s.ID, decimal.NewFromInt(amount), "Cash", testToday); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("RecordPayment(%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if _, err := env.fees.RecordPayment(context.Background(), 404, decimal.NewFromInt(100), "Cash", testToday); !errors.Is(err, ErrNotFound) {
		t.Errorf("RecordPayment() unknown student error = %v, want ErrNotFound", err)
	}
}
