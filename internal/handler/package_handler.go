package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/besal25/dance-academy/internal/models"
	"github.com/besal25/dance-academy/internal/service"
)

type PackageHandler struct {
	packages *service.PackageService
	logger   *zap.Logger
}

func NewPackageHandler(packages *service.PackageService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{packages: packages, logger: logger}
}

// Enroll handles POST /packages/:id/enroll.
func (h *PackageHandler) Enroll(c *gin.Context) {
	packageID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.EnrollPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enrollment, err := h.packages.Enroll(c.Request.Context(), packageID, req)
	if err != nil {
		h.logger.Error("package enrollment failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

// Unenroll handles DELETE /enrollments/:id: removes the enrollment and voids
// the package charges it posted.
func (h *PackageHandler) Unenroll(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.packages.Unenroll(c.Request.Context(), id); err != nil {
		h.logger.Error("package unenrollment failed", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
