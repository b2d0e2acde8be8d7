package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/models"
	"github.com/besal25/dance-academy/internal/service"
)

// FeeHandler exposes the fee policy engine: payments with auto-billing, bulk
// monthly fee generation, annual renewals, and re-admission charges.
type FeeHandler struct {
	fees   *service.FeeService
	cal    calendar.Calendar
	logger *zap.Logger
}

func NewFeeHandler(fees *service.FeeService, cal calendar.Calendar, logger *zap.Logger) *FeeHandler {
	return &FeeHandler{fees: fees, cal: cal, logger: logger}
}

// asOfDate resolves an optional as_of date key, defaulting to today. Billing
// runs can be replayed for other dates this way.
func (h *FeeHandler) asOfDate(c *gin.Context, key string) (calendar.Date, bool) {
	if key == "" {
		return h.cal.Today(), true
	}
	d, err := calendar.Parse(key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return calendar.Date{}, false
	}
	return d, true
}

// AdmitStudent handles POST /students: creates the student and posts the
// admission fee plus the prorated first monthly fee.
func (h *FeeHandler) AdmitStudent(c *gin.Context) {
	var req models.AdmitStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asOf, ok := h.asOfDate(c, c.Query("as_of"))
	if !ok {
		return
	}

	student, err := h.fees.AdmitStudent(c.Request.Context(), req, asOf)
	if err != nil {
		h.logger.Error("failed to admit student", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// RecordPayment handles POST /students/:id/payments.
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	asOf, ok := h.asOfDate(c, c.Query("as_of"))
	if !ok {
		return
	}

	txn, err := h.fees.RecordPayment(c.Request.Context(), studentID, req.Amount, req.Mode, asOf)
	if err != nil {
		h.logger.Error("failed to record payment", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GenerateFees handles POST /fees/generate.
func (h *FeeHandler) GenerateFees(c *gin.Context) {
	var req struct {
		AsOf string `json:"as_of"`
	}
	// Body is optional; an empty body means "bill for today".
	_ = c.ShouldBindJSON(&req)
	asOf, ok := h.asOfDate(c, req.AsOf)
	if !ok {
		return
	}

	count, err := h.fees.GenerateMonthlyFees(c.Request.Context(), asOf)
	if err != nil {
		h.logger.Error("fee generation failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": asOf.PeriodKey(), "generated": count})
}

// RenewAdmissions handles POST /fees/renew-admissions.
func (h *FeeHandler) RenewAdmissions(c *gin.Context) {
	var req struct {
		AsOf string `json:"as_of"`
	}
	_ = c.ShouldBindJSON(&req)
	asOf, ok := h.asOfDate(c, req.AsOf)
	if !ok {
		return
	}

	count, err := h.fees.RenewAdmissions(c.Request.Context(), asOf)
	if err != nil {
		h.logger.Error("admission renewal failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"renewed": count})
}

// ChargeReadmission handles POST /students/:id/readmission. Explicit only:
// re-activating a student never charges this automatically.
func (h *FeeHandler) ChargeReadmission(c *gin.Context) {
	studentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, ok := h.asOfDate(c, c.Query("as_of"))
	if !ok {
		return
	}

	txn, err := h.fees.ChargeReadmission(c.Request.Context(), studentID, asOf)
	if err != nil {
		h.logger.Error("re-admission charge failed", zap.Error(err))
		respondError(c, err)
		return
	}
	if txn == nil {
		c.JSON(http.StatusOK, gin.H{"charged": false})
		return
	}
	c.JSON(http.StatusCreated, txn)
}
