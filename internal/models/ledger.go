package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxnTypeFee        TransactionType = "FEE"
	TxnTypePayment    TransactionType = "PAYMENT"
	TxnTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Transaction is one row in a student's ledger. BalanceAfter is a snapshot of
// the running balance (debit-positive: positive means the student owes money)
// taken when the row was appended or last recomputed. Rows are never reordered;
// (Date, ID) ascending is the chronological order.
type Transaction struct {
	ID           int64           `json:"id" db:"id"`
	Reference    string          `json:"reference" db:"reference"`
	StudentID    int64           `json:"student_id" db:"student_id"`
	Date         string          `json:"date" db:"date"`
	Description  string          `json:"description" db:"description"`
	Debit        decimal.Decimal `json:"debit" db:"debit"`
	Credit       decimal.Decimal `json:"credit" db:"credit"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	Type         TransactionType `json:"txn_type" db:"txn_type"`
	Period       string          `json:"period,omitempty" db:"period"`
	IsVoid       bool            `json:"is_void" db:"is_void"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// AppendTransactionRequest is the payload for the generic append endpoint.
// Date is optional; when set it backdates the entry.
type AppendTransactionRequest struct {
	Description string          `json:"description" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	TxnType     TransactionType `json:"txn_type" binding:"required,oneof=FEE PAYMENT ADJUSTMENT"`
	Date        string          `json:"date"`
	Period      string          `json:"period"`
}

// PaymentRequest records a payment against a student's ledger.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Mode   string          `json:"mode" binding:"required"`
}

// StudentBalance is the balance query response.
type StudentBalance struct {
	StudentID int64           `json:"student_id"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      string          `json:"as_of"`
}

// Database schema
const LedgerSchema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
    id BIGSERIAL PRIMARY KEY,
    reference VARCHAR(36) NOT NULL UNIQUE,
    student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    date VARCHAR(10) NOT NULL,
    description TEXT NOT NULL,
    debit DECIMAL(19, 4) NOT NULL DEFAULT 0,
    credit DECIMAL(19, 4) NOT NULL DEFAULT 0,
    balance_after DECIMAL(19, 4) NOT NULL,
    txn_type VARCHAR(20) NOT NULL,
    period VARCHAR(7) NOT NULL DEFAULT '',
    is_void BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ledger_student_date ON ledger_transactions(student_id, date, id);
CREATE INDEX IF NOT EXISTS idx_ledger_period ON ledger_transactions(student_id, period) WHERE txn_type = 'FEE';
`
