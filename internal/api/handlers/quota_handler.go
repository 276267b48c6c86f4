package handlers

import (
	"net/http"

	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
)

// QuotaHandler exposes lecturer capacity per period.
type QuotaHandler struct {
	quotaService serviceInterfaces.QuotaService
}

func NewQuotaHandler(quotaService serviceInterfaces.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaService: quotaService}
}

// GetQuota handles GET /api/v1/lecturers/:lecturer_id/periods/:period_id/quota
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	lecturerID, ok := pathUUID(c, "lecturer_id")
	if !ok {
		return
	}
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	max, err := h.quotaService.EffectiveMax(c.Request.Context(), lecturerID, periodID)
	if err != nil {
		respondError(c, "get effective quota", err)
		return
	}

	available, err := h.quotaService.AvailableCapacity(c.Request.Context(), lecturerID, periodID)
	if err != nil {
		respondError(c, "get available capacity", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"max_students":       max,
			"available_capacity": available,
		},
	})
}

// SetQuota handles PUT /api/v1/lecturers/:lecturer_id/periods/:period_id/quota
func (h *QuotaHandler) SetQuota(c *gin.Context) {
	lecturerID, ok := pathUUID(c, "lecturer_id")
	if !ok {
		return
	}
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	type quotaRequest struct {
		MaxStudents int `json:"max_students" validate:"gte=0"`
	}

	var req quotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Errors:  err.Error(),
		})
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  validator.FormatValidationError(err),
		})
		return
	}

	if err := h.quotaService.SetCustomQuota(c.Request.Context(), lecturerID, periodID, req.MaxStudents); err != nil {
		respondError(c, "set custom quota", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Quota updated",
	})
}
