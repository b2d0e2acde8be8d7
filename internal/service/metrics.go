package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	txnAppendedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_appended_total",
		Help: "Transactions appended to student ledgers, by type.",
	}, []string{"type"})

	txnVoidedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_voided_total",
		Help: "Transactions marked void.",
	})

	txnDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_deleted_total",
		Help: "Transactions physically deleted.",
	})

	recomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_recomputes_total",
		Help: "Full balance recomputations performed.",
	})

	feesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_monthly_fees_generated_total",
		Help: "Monthly fee transactions created by the fee generator.",
	})
)
