package handlers

import (
	"net/http"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AvailabilityHandler serves the lecturer availability grid.
type AvailabilityHandler struct {
	availabilityService serviceInterfaces.AvailabilityService
}

func NewAvailabilityHandler(availabilityService serviceInterfaces.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilityService: availabilityService}
}

// GetAvailability handles GET /api/v1/schedules/:schedule_id/availability
// Query params: lecturer_id (required), type (required).
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	scheduleID, ok := pathUUID(c, "schedule_id")
	if !ok {
		return
	}

	lecturerID, err := uuid.Parse(c.Query("lecturer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid lecturer_id",
			Errors:  err.Error(),
		})
		return
	}

	scheduleType := domain.ScheduleType(c.Query("type"))
	if scheduleType != domain.ScheduleProposalHearing && scheduleType != domain.ScheduleThesisDefense {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "type must be proposal_hearing or thesis_defense",
		})
		return
	}

	grid, err := h.availabilityService.LoadAvailability(c.Request.Context(), lecturerID, scheduleID, scheduleType)
	if err != nil {
		respondError(c, "load availability", err)
		return
	}

	locked, err := h.availabilityService.LockedSlots(c.Request.Context(), lecturerID, scheduleID)
	if err != nil {
		respondError(c, "load locked slots", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: gin.H{
			"slots":  grid,
			"locked": locked,
		},
	})
}

// SaveAvailability handles PUT /api/v1/availability
// The actor must be the lecturer whose grid is being written.
func (h *AvailabilityHandler) SaveAvailability(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req serviceInterfaces.SaveAvailabilityRequest
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

	if err := h.availabilityService.SaveAvailability(c.Request.Context(), actor, &req); err != nil {
		respondError(c, "save availability", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Availability saved",
	})
}
