package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
)

// In-memory stores used by the service tests. They mirror the Postgres
// repositories' contracts: (nil, nil) for missing rows, (date, id) ordering.

type memLedger struct {
	mu     sync.Mutex
	nextID int64
	txns   []*models.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{}
}

func (m *memLedger) Insert(_ context.Context, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	txn.ID = m.nextID
	clone := *txn
	m.txns = append(m.txns, &clone)
	return nil
}

func (m *memLedger) GetByID(_ context.Context, id int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memLedger) byStudent(studentID int64) []*models.Transaction {
	var out []*models.Transaction
	for _, t := range m.txns {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memLedger) LatestNonVoid(_ context.Context, studentID int64) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ordered := m.byStudent(studentID)
	for i := len(ordered) - 1; i >= 0; i-- {
		if !ordered[i].IsVoid {
			clone := *ordered[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memLedger) ListByStudent(_ context.Context, studentID int64) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, t := range m.byStudent(studentID) {
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memLedger) ListByStudentRange(_ context.Context, studentID int64, startDate, endDate string) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ordered := m.byStudent(studentID)
	var out []*models.Transaction
	for i := len(ordered) - 1; i >= 0; i-- {
		t := ordered[i]
		if startDate != "" && t.Date < startDate {
			continue
		}
		if endDate != "" && t.Date > endDate {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memLedger) MarkVoid(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.ID == id {
			t.IsVoid = true
			return nil
		}
	}
	return fmt.Errorf("transaction %d missing", id)
}

func (m *memLedger) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.txns {
		if t.ID == id {
			m.txns = append(m.txns[:i], m.txns[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %d missing", id)
}

func (m *memLedger) UpdateBalances(_ context.Context, updates []BalanceUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		for _, t := range m.txns {
			if t.ID == u.TransactionID {
				t.BalanceAfter = u.Balance
			}
		}
	}
	return nil
}

func (m *memLedger) HasFeeForPeriod(_ context.Context, studentID int64, period, label string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.StudentID != studentID || t.IsVoid || t.Type != models.TxnTypeFee {
			continue
		}
		if (period != "" && t.Period == period) || strings.Contains(t.Description, label) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLedger) SearchByDescription(_ context.Context, search string, limit int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Transaction
	for _, t := range m.txns {
		if strings.Contains(strings.ToLower(t.Description), strings.ToLower(search)) {
			clone := *t
			out = append(out, &clone)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memStudents struct {
	mu       sync.Mutex
	nextID   int64
	students map[int64]*models.Student
}

func newMemStudents() *memStudents {
	return &memStudents{students: make(map[int64]*models.Student)}
}

func (m *memStudents) add(s *models.Student) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.students[s.ID] = s
	return s
}

func (m *memStudents) Create(_ context.Context, s *models.Student) error {
	m.add(s)
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	clone := *s
	return &clone, nil
}

func (m *memStudents) ListActive(_ context.Context) ([]*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id := range m.students {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*models.Student
	for _, id := range ids {
		if m.students[id].Status == models.StudentStatusActive {
			clone := *m.students[id]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStudents) UpdateLastAdmissionDate(_ context.Context, id int64, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return fmt.Errorf("student %d missing", id)
	}
	s.LastAdmissionDate = date
	return nil
}

func (m *memStudents) SearchByNameOrPhone(_ context.Context, search string, limit int) ([]*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Student
	for _, s := range m.students {
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(search)) || strings.Contains(s.Phone, search) {
			clone := *s
			out = append(out, &clone)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type memPackages struct {
	mu          sync.Mutex
	nextID      int64
	packages    map[int64]*models.Package
	enrollments []*models.PackageEnrollment
}

func newMemPackages() *memPackages {
	return &memPackages{packages: make(map[int64]*models.Package)}
}

func (m *memPackages) addPackage(p *models.Package) *models.Package {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.packages[p.ID] = p
	return p
}

func (m *memPackages) GetPackage(_ context.Context, id int64) (*models.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *memPackages) InsertEnrollment(_ context.Context, e *models.PackageEnrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	clone := *e
	m.enrollments = append(m.enrollments, &clone)
	return nil
}

func (m *memPackages) GetEnrollment(_ context.Context, id int64) (*models.PackageEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memPackages) DeleteEnrollment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.enrollments {
		if e.ID == id {
			m.enrollments = append(m.enrollments[:i], m.enrollments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("enrollment %d missing", id)
}

func (m *memPackages) FindActive(_ context.Context, studentID int64, date string) (*models.PackageEnrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.StartDate <= date && e.EndDate >= date {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

type memSettings struct {
	settings models.Settings
}

func (m *memSettings) Get(_ context.Context) (*models.Settings, error) {
	clone := m.settings
	return &clone, nil
}

// fakeCalendar is a deterministic calendar with uniform 30-day months.
type fakeCalendar struct {
	today calendar.Date
}

func (f *fakeCalendar) Today() calendar.Date { return f.today }

func (f *fakeCalendar) DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d out of range", month)
	}
	return 30, nil
}

func (f *fakeCalendar) AddMonths(d calendar.Date, n int) (calendar.Date, error) {
	total := d.Month - 1 + n
	year := d.Year + total/12
	month := total%12 + 1
	day := d.Day
	if day > 30 {
		day = 30
	}
	return calendar.Date{Year: year, Month: month, Day: day}, nil
}

type testEnv struct {
	ledger   *LedgerService
	fees     *FeeService
	packages *PackageService
	store    *memLedger
	students *memStudents
	pkgs     *memPackages
	settings *memSettings
	cal      *fakeCalendar
}

func newTestEnv(today calendar.Date) *testEnv {
	store := newMemLedger()
	students := newMemStudents()
	pkgs := newMemPackages()
	settings := &memSettings{settings: models.Settings{ID: 1, DefaultAdmissionFee: decimal.NewFromInt(1000)}}
	cal := &fakeCalendar{today: today}
	log := zap.NewNop()

	ledger := NewLedgerService(store, students, cal, log)
	fees := NewFeeService(ledger, store, students, pkgs, settings, cal, log)
	packages := NewPackageService(ledger, store, pkgs, students, cal, log)

	return &testEnv{
		ledger:   ledger,
		fees:     fees,
		packages: packages,
		store:    store,
		students: students,
		pkgs:     pkgs,
		settings: settings,
		cal:      cal,
	}
}

func (e *testEnv) addActiveStudent(name string, monthlyFee int64) *models.Student {
	return e.students.add(&models.Student{
		Name:              name,
		Status:            models.StudentStatusActive,
		CustomMonthlyFee:  decimal.NewFromInt(monthlyFee),
		BaseMonthlyFee:    decimal.NewFromInt(monthlyFee),
		AdmissionFeeType:  models.AdmissionFeeNormal,
		LastAdmissionDate: "2081-01-01",
	})
}
