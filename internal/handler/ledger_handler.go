package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/models"
	"github.com/besal25/dance-academy/internal/service"
)

// LedgerHandler exposes the transaction engine. Capability checks (who may
// void, who may delete) belong to the route layer wiring these handlers.
type LedgerHandler struct {
	ledger *service.LedgerService
	logger *zap.Logger
}

func NewLedgerHandler(ledger *service.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// AppendTransaction handles POST /students/:id/transactions.
func (h *LedgerHandler) AppendTransaction(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.ledger.Append(c.Request.Context(), service.AppendParams{
		StudentID:   studentID,
		Description: req.Description,
		Debit:       req.Debit,
		Credit:      req.Credit,
		Type:        req.TxnType,
		Date:        req.Date,
		Period:      req.Period,
	})
	if err != nil {
		h.logger.Error("failed to append transaction", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// VoidTransaction handles POST /transactions/:id/void. Standard accounting:
// never delete, mark void and recompute.
func (h *LedgerHandler) VoidTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	txn, err := h.ledger.Void(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to void transaction", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// DeleteTransaction handles DELETE /transactions/:id. Admin-only route.
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete transaction", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// Recompute handles POST /students/:id/recompute.
func (h *LedgerHandler) Recompute(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.Recompute(c.Request.Context(), studentID); err != nil {
		h.logger.Error("failed to recompute balances", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_id": studentID, "status": "recomputed"})
}

// GetBalance handles GET /students/:id/balance.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), studentID)
	if err != nil {
		h.logger.Error("failed to get balance", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GetLedger handles GET /students/:id/ledger?start_date=&end_date=.
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	transactions, err := h.ledger.Ledger(c.Request.Context(), studentID,
		c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.logger.Error("failed to list ledger", zap.Error(err))
		respondError(c, err)
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"student_id": studentID, "transactions": transactions})
}
