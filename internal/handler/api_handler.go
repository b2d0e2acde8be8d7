package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/calendar"
	"github.com/besal25/dance-academy/internal/service"
	"github.com/besal25/dance-academy/pkg/redis"
)

const alertsCacheKey = "api:alerts"

// APIHandler serves the thin JSON search and alerts endpoints used by the
// front-end header bar.
type APIHandler struct {
	students service.StudentStore
	store    service.LedgerStore
	ledger   *service.LedgerService
	fees     *service.FeeService
	cache    *redis.Client
	cal      calendar.Calendar
	logger   *zap.Logger
}

func NewAPIHandler(students service.StudentStore, store service.LedgerStore, ledger *service.LedgerService, fees *service.FeeService, cache *redis.Client, cal calendar.Calendar, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		students: students,
		store:    store,
		ledger:   ledger,
		fees:     fees,
		cache:    cache,
		cal:      cal,
		logger:   logger,
	}
}

type searchResult struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	URL      string `json:"url"`
}

// Search handles GET /search?q=. Students match on name or phone, transactions
// on numeric id or description substring.
func (h *APIHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, gin.H{"results": []searchResult{}})
		return
	}

	results := []searchResult{}
	ctx := c.Request.Context()

	students, err := h.students.SearchByNameOrPhone(ctx, query, 5)
	if err != nil {
		h.logger.Error("student search failed", zap.Error(err))
		respondError(c, err)
		return
	}
	for _, s := range students {
		results = append(results, searchResult{
			Type:     "Student",
			Title:    s.Name,
			Subtitle: fmt.Sprintf("Phone: %s", s.Phone),
			URL:      fmt.Sprintf("/api/v1/students/%d/ledger", s.ID),
		})
	}

	if id, err := strconv.ParseInt(query, 10, 64); err == nil {
		txn, err := h.store.GetByID(ctx, id)
		if err != nil {
			h.logger.Error("transaction lookup failed", zap.Error(err))
			respondError(c, err)
			return
		}
		if txn != nil {
			amount := txn.Debit
			if txn.Credit.IsPositive() {
				amount = txn.Credit
			}
			results = append(results, searchResult{
				Type:     "Transaction",
				Title:    fmt.Sprintf("Txn #%d: %s", txn.ID, txn.Description),
				Subtitle: fmt.Sprintf("Student: %d | Rs %s", txn.StudentID, amount.String()),
				URL:      fmt.Sprintf("/api/v1/students/%d/ledger", txn.StudentID),
			})
		}
	} else {
		txns, err := h.store.SearchByDescription(ctx, query, 3)
		if err != nil {
			h.logger.Error("transaction search failed", zap.Error(err))
			respondError(c, err)
			return
		}
		for _, txn := range txns {
			amount := txn.Debit
			if txn.Credit.IsPositive() {
				amount = txn.Credit
			}
			results = append(results, searchResult{
				Type:     "Transaction",
				Title:    fmt.Sprintf("Txn #%d: %s", txn.ID, txn.Description),
				Subtitle: fmt.Sprintf("Student: %d | Rs %s", txn.StudentID, amount.String()),
				URL:      fmt.Sprintf("/api/v1/students/%d/ledger", txn.StudentID),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

type alert struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Alerts handles GET /alerts: birthdays today, students with outstanding dues,
// and admissions due for renewal. The payload is cached briefly because it
// walks every active student's balance.
func (h *APIHandler) Alerts(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, alertsCacheKey); err == nil {
			var notifications []alert
			if json.Unmarshal([]byte(cached), &notifications) == nil {
				c.JSON(http.StatusOK, gin.H{"notifications": notifications, "cached": true})
				return
			}
		}
	}

	today := h.cal.Today()
	students, err := h.students.ListActive(ctx)
	if err != nil {
		h.logger.Error("failed to list students for alerts", zap.Error(err))
		respondError(c, err)
		return
	}

	notifications := []alert{}
	for _, s := range students {
		if s.DOB != "" {
			if dob, err := calendar.Parse(s.DOB); err == nil && dob.Month == today.Month && dob.Day == today.Day {
				notifications = append(notifications, alert{
					ID:      fmt.Sprintf("bday-%d", s.ID),
					Kind:    "birthday",
					Message: fmt.Sprintf("%s has a birthday today", s.Name),
				})
			}
		}

		balance, err := h.ledger.GetBalance(ctx, s.ID)
		if err != nil {
			h.logger.Error("failed to read balance for alerts", zap.Error(err))
			respondError(c, err)
			return
		}
		if balance.Balance.IsPositive() {
			notifications = append(notifications, alert{
				ID:      fmt.Sprintf("due-%d", s.ID),
				Kind:    "dues",
				Message: fmt.Sprintf("%s owes Rs %s", s.Name, balance.Balance.String()),
			})
		}

		if h.fees.RenewalDue(s, today) {
			notifications = append(notifications, alert{
				ID:      fmt.Sprintf("renewal-%d", s.ID),
				Kind:    "renewal",
				Message: fmt.Sprintf("%s is due for admission renewal", s.Name),
			})
		}
	}

	if h.cache != nil {
		if payload, err := json.Marshal(notifications); err == nil {
			if err := h.cache.Set(ctx, alertsCacheKey, string(payload), 60*time.Second); err != nil {
				h.logger.Warn("failed to cache alerts", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
