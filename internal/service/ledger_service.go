package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
)

// LedgerService is the transaction engine: it owns every mutation of a
// student's ledger and keeps the running-balance chain consistent.
type LedgerService struct {
	store    LedgerStore
	students StudentStore
	cal      calendar.Calendar
	logger   *zap.Logger
	locks    *studentLocks
}

func NewLedgerService(store LedgerStore, students StudentStore, cal calendar.Calendar, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:    store,
		students: students,
		cal:      cal,
		logger:   logger,
		locks:    newStudentLocks(),
	}
}

// AppendParams describes one new ledger entry. Date backdates the entry when
// set; Period tags FEE entries with their structured billing period.
type AppendParams struct {
	StudentID   int64
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Type        models.TransactionType
	Date        string
	Period      string
}

// Append creates a new transaction whose balance_after extends the student's
// chain: previous non-void balance plus debit minus credit. A backdated entry
// (date earlier than the latest non-void one) triggers an immediate recompute
// so the chain stays consistent without the caller remembering to ask for it.
func (s *LedgerService) Append(ctx context.Context, p AppendParams) (*models.Transaction, error) {
	if p.Debit.IsNegative() || p.Credit.IsNegative() {
		return nil, fmt.Errorf("%w: debit and credit must be non-negative", ErrInvalidAmount)
	}
	if p.Debit.IsZero() && p.Credit.IsZero() {
		return nil, fmt.Errorf("%w: transaction must carry an amount", ErrInvalidAmount)
	}

	student, err := s.students.GetByID(ctx, p.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", p.StudentID, ErrNotFound)
	}

	date := p.Date
	if date == "" {
		date = s.cal.Today().Key()
	}
	if _, err := calendar.Parse(date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInconsistentState, err)
	}

	lock := s.locks.get(p.StudentID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.store.LatestNonVoid(ctx, p.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous balance: %w", err)
	}
	previousBalance := decimal.Zero
	if prev != nil {
		previousBalance = prev.BalanceAfter
	}

	txn := &models.Transaction{
		Reference:    uuid.New().String(),
		StudentID:    p.StudentID,
		Date:         date,
		Description:  p.Description,
		Debit:        p.Debit,
		Credit:       p.Credit,
		BalanceAfter: previousBalance.Add(p.Debit).Sub(p.Credit),
		Type:         p.Type,
		Period:       p.Period,
		IsVoid:       false,
		CreatedAt:    time.Now(),
	}

	if err := s.store.Insert(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	// Out-of-order insert: the append-time balance math assumed this entry is
	// chronologically last, so restore the invariant for the whole chain.
	if prev != nil && date < prev.Date {
		if err := s.recomputeLocked(ctx, p.StudentID); err != nil {
			return nil, err
		}
		if txn, err = s.store.GetByID(ctx, txn.ID); err != nil {
			return nil, err
		}
	}

	txnAppendedTotal.WithLabelValues(string(p.Type)).Inc()
	s.logger.Info("transaction appended",
		zap.Int64("student_id", p.StudentID),
		zap.Int64("transaction_id", txn.ID),
		zap.String("type", string(p.Type)),
		zap.String("date", txn.Date))

	return txn, nil
}

// Void marks a transaction void and recomputes the student's chain. The row is
// never removed. Voiding an already-void transaction is a no-op success.
func (s *LedgerService) Void(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	txn, err := s.store.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}
	if txn == nil {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if txn.IsVoid {
		return txn, nil
	}

	lock := s.locks.get(txn.StudentID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.MarkVoid(ctx, transactionID); err != nil {
		return nil, fmt.Errorf("failed to void transaction: %w", err)
	}
	if err := s.recomputeLocked(ctx, txn.StudentID); err != nil {
		return nil, err
	}

	txnVoidedTotal.Inc()
	s.logger.Info("transaction voided",
		zap.Int64("transaction_id", transactionID),
		zap.Int64("student_id", txn.StudentID))

	return s.store.GetByID(ctx, transactionID)
}

// Delete physically removes a transaction and recomputes. The capability check
// (admin only) is the caller's responsibility.
func (s *LedgerService) Delete(ctx context.Context, transactionID int64) error {
	txn, err := s.store.GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to look up transaction: %w", err)
	}
	if txn == nil {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}

	lock := s.locks.get(txn.StudentID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if err := s.recomputeLocked(ctx, txn.StudentID); err != nil {
		return err
	}

	txnDeletedTotal.Inc()
	s.logger.Info("transaction deleted",
		zap.Int64("transaction_id", transactionID),
		zap.Int64("student_id", txn.StudentID))

	return nil
}

// Recompute rebuilds every balance_after snapshot for the student from an
// empty running balance. This is the single source of truth after any void,
// edit or delete.
func (s *LedgerService) Recompute(ctx context.Context, studentID int64) error {
	lock := s.locks.get(studentID)
	lock.Lock()
	defer lock.Unlock()
	return s.recomputeLocked(ctx, studentID)
}

// recomputeLocked walks the full history in (date asc, id asc) order. Void
// rows do not move the running balance but are restamped with it, matching the
// original recalculation behavior (see DESIGN.md). The update batch is applied
// atomically; a malformed date aborts before anything is written.
func (s *LedgerService) recomputeLocked(ctx context.Context, studentID int64) error {
	txns, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	running := decimal.Zero
	updates := make([]BalanceUpdate, 0, len(txns))
	for _, t := range txns {
		if _, err := calendar.Parse(t.Date); err != nil {
			return fmt.Errorf("%w: transaction %d: %v", ErrInconsistentState, t.ID, err)
		}
		if !t.IsVoid {
			running = running.Add(t.Debit).Sub(t.Credit)
		}
		updates = append(updates, BalanceUpdate{TransactionID: t.ID, Balance: running})
	}

	if err := s.store.UpdateBalances(ctx, updates); err != nil {
		return fmt.Errorf("failed to write recomputed balances: %w", err)
	}

	recomputesTotal.Inc()
	s.logger.Info("balances recomputed",
		zap.Int64("student_id", studentID),
		zap.Int("transactions", len(updates)),
		zap.String("balance", running.String()))

	return nil
}

// GetBalance returns the student's current balance: the balance_after of the
// most recent non-void transaction, or zero when the ledger is empty.
func (s *LedgerService) GetBalance(ctx context.Context, studentID int64) (*models.StudentBalance, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}

	balance := &models.StudentBalance{
		StudentID: studentID,
		Balance:   decimal.Zero,
		AsOf:      s.cal.Today().Key(),
	}
	last, err := s.store.LatestNonVoid(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if last != nil {
		balance.Balance = last.BalanceAfter
	}
	return balance, nil
}

// Ledger lists a student's transactions newest-first, optionally bounded by
// inclusive date keys.
func (s *LedgerService) Ledger(ctx context.Context, studentID int64, startDate, endDate string) ([]*models.Transaction, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}
	return s.store.ListByStudentRange(ctx, studentID, startDate, endDate)
}
