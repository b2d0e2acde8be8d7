package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/besal25/dance-academy/internal/models"
	"github.com/besal25/dance-academy/internal/service"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const txnColumns = `id, reference, student_id, date, description, debit, credit, balance_after, txn_type, period, is_void, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.StudentID,
		&txn.Date,
		&txn.Description,
		&txn.Debit,
		&txn.Credit,
		&txn.BalanceAfter,
		&txn.Type,
		&txn.Period,
		&txn.IsVoid,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *LedgerRepository) Insert(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO ledger_transactions (reference, student_id, date, description, debit, credit, balance_after, txn_type, period, is_void, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		txn.Reference,
		txn.StudentID,
		txn.Date,
		txn.Description,
		txn.Debit,
		txn.Credit,
		txn.BalanceAfter,
		txn.Type,
		txn.Period,
		txn.IsVoid,
		txn.CreatedAt,
	).Scan(&txn.ID)
}

func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions WHERE id = $1`, txnColumns)
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return txn, err
}

func (r *LedgerRepository) LatestNonVoid(ctx context.Context, studentID int64) (*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE student_id = $1 AND is_void = FALSE
		ORDER BY date DESC, id DESC
		LIMIT 1
	`, txnColumns)
	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, studentID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return txn, err
}

func (r *LedgerRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE student_id = $1
		ORDER BY date ASC, id ASC
	`, txnColumns)
	return r.queryTransactions(ctx, query, studentID)
}

func (r *LedgerRepository) ListByStudentRange(ctx context.Context, studentID int64, startDate, endDate string) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE student_id = $1
		  AND ($2 = '' OR date >= $2)
		  AND ($3 = '' OR date <= $3)
		ORDER BY date DESC, id DESC
	`, txnColumns)
	return r.queryTransactions(ctx, query, studentID, startDate, endDate)
}

func (r *LedgerRepository) MarkVoid(ctx context.Context, id int64) error {
	query := `UPDATE ledger_transactions SET is_void = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *LedgerRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM ledger_transactions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// UpdateBalances applies a recomputation batch inside one transaction so the
// chain is never half-written.
func (r *LedgerRepository) UpdateBalances(ctx context.Context, updates []service.BalanceUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE ledger_transactions SET balance_after = $1 WHERE id = $2`
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, query, u.Balance, u.TransactionID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *LedgerRepository) HasFeeForPeriod(ctx context.Context, studentID int64, period, label string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ledger_transactions
			WHERE student_id = $1
			  AND is_void = FALSE
			  AND txn_type = 'FEE'
			  AND (period = $2 OR description LIKE '%' || $3 || '%')
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, studentID, period, label).Scan(&exists)
	return exists, err
}

func (r *LedgerRepository) SearchByDescription(ctx context.Context, search string, limit int) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM ledger_transactions
		WHERE description ILIKE '%%' || $1 || '%%'
		ORDER BY date DESC, id DESC
		LIMIT $2
	`, txnColumns)
	return r.queryTransactions(ctx, query, search, limit)
}

func (r *LedgerRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}
