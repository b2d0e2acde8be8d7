package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/besal25/dance-academy/internal/service"
)

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInconsistentState):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
