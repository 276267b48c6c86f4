package handlers

import (
	"net/http"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PeriodHandler handles period and schedule management requests.
type PeriodHandler struct {
	periodService serviceInterfaces.PeriodService
	periodRepo    interfaces.PeriodRepository
	scheduleRepo  interfaces.ScheduleRepository
}

func NewPeriodHandler(
	periodService serviceInterfaces.PeriodService,
	periodRepo interfaces.PeriodRepository,
	scheduleRepo interfaces.ScheduleRepository,
) *PeriodHandler {
	return &PeriodHandler{
		periodService: periodService,
		periodRepo:    periodRepo,
		scheduleRepo:  scheduleRepo,
	}
}

// periodView decorates a stored period with its derived status.
type periodView struct {
	*domain.Period
	Status domain.PeriodStatus `json:"status"`
}

// CreatePeriod handles POST /api/v1/periods
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	var req serviceInterfaces.CreatePeriodRequest

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

	period, err := h.periodService.CreatePeriod(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "create period", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Period created",
		Data:    period,
	})
}

// ListPeriods handles GET /api/v1/periods
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	periods, err := h.periodRepo.List(c.Request.Context())
	if err != nil {
		respondError(c, "list periods", err)
		return
	}

	now := time.Now().UTC()
	views := make([]periodView, 0, len(periods))
	for _, period := range periods {
		status, err := h.periodService.PeriodStatus(c.Request.Context(), period.PeriodID, now)
		if err != nil {
			respondError(c, "derive period status", err)
			return
		}
		views = append(views, periodView{Period: period, Status: status})
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    views,
	})
}

// GetPeriod handles GET /api/v1/periods/:period_id
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	period, err := h.periodRepo.GetByID(c.Request.Context(), periodID)
	if err != nil {
		respondError(c, "get period", err)
		return
	}
	if period == nil {
		respondError(c, "get period", domain.ErrNotFound)
		return
	}

	status, err := h.periodService.PeriodStatus(c.Request.Context(), periodID, time.Now().UTC())
	if err != nil {
		respondError(c, "derive period status", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    periodView{Period: period, Status: status},
	})
}

// ArchivePeriod handles POST /api/v1/periods/:period_id/archive
func (h *PeriodHandler) ArchivePeriod(c *gin.Context) {
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	if err := h.periodService.ArchivePeriod(c.Request.Context(), periodID); err != nil {
		respondError(c, "archive period", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Period archived",
	})
}

// RegisterStudent handles POST /api/v1/periods/:period_id/register
func (h *PeriodHandler) RegisterStudent(c *gin.Context) {
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	type registerRequest struct {
		StudentID uuid.UUID `json:"student_id" validate:"required"`
	}

	var req registerRequest
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

	result, err := h.periodService.RegisterStudent(c.Request.Context(), req.StudentID, periodID, time.Now().UTC())
	if err != nil {
		respondError(c, "register student", err)
		return
	}

	respondTransition(c, result, nil)
}

// ListSchedules handles GET /api/v1/periods/:period_id/schedules
func (h *PeriodHandler) ListSchedules(c *gin.Context) {
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	schedules, err := h.scheduleRepo.ListByPeriod(c.Request.Context(), periodID)
	if err != nil {
		respondError(c, "list schedules", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    schedules,
	})
}

// UpcomingProposalHearings handles GET /api/v1/periods/:period_id/proposal-hearings/upcoming
func (h *PeriodHandler) UpcomingProposalHearings(c *gin.Context) {
	periodID, ok := pathUUID(c, "period_id")
	if !ok {
		return
	}

	hearings, err := h.periodService.UpcomingProposalHearings(c.Request.Context(), periodID, time.Now().UTC())
	if err != nil {
		respondError(c, "list upcoming proposal hearings", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    hearings,
	})
}

// CreateSchedule handles POST /api/v1/schedules
func (h *PeriodHandler) CreateSchedule(c *gin.Context) {
	var req serviceInterfaces.CreateScheduleRequest

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

	schedule, err := h.periodService.CreateSchedule(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "create schedule", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Schedule created",
		Data:    schedule,
	})
}

// UpdateSchedule handles PUT /api/v1/schedules/:schedule_id
func (h *PeriodHandler) UpdateSchedule(c *gin.Context) {
	scheduleID, ok := pathUUID(c, "schedule_id")
	if !ok {
		return
	}

	var req serviceInterfaces.UpdateScheduleRequest
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

	schedule, err := h.periodService.UpdateSchedule(c.Request.Context(), scheduleID, &req)
	if err != nil {
		respondError(c, "update schedule", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Schedule updated",
		Data:    schedule,
	})
}

// DeleteSchedule handles DELETE /api/v1/schedules/:schedule_id
// Pass ?force=true to cascade presentations and availability rows.
func (h *PeriodHandler) DeleteSchedule(c *gin.Context) {
	scheduleID, ok := pathUUID(c, "schedule_id")
	if !ok {
		return
	}

	force := c.Query("force") == "true"
	if err := h.periodService.DeleteSchedule(c.Request.Context(), scheduleID, force); err != nil {
		respondError(c, "delete schedule", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Schedule deleted",
	})
}
