package handlers

import (
	"net/http"
	"strings"
	"time"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// PresentationHandler handles proposal hearing and thesis defense slots.
type PresentationHandler struct {
	presentationService serviceInterfaces.PresentationService
	presentationRepo    interfaces.PresentationRepository
}

func NewPresentationHandler(
	presentationService serviceInterfaces.PresentationService,
	presentationRepo interfaces.PresentationRepository,
) *PresentationHandler {
	return &PresentationHandler{
		presentationService: presentationService,
		presentationRepo:    presentationRepo,
	}
}

// AvailableLecturers handles GET /api/v1/presentations/available-lecturers
// Query params: schedule_id, date, start_time, end_time, optional exclude_id.
func (h *PresentationHandler) AvailableLecturers(c *gin.Context) {
	scheduleID, err := uuid.Parse(c.Query("schedule_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid schedule_id",
			Errors:  err.Error(),
		})
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "date must be in YYYY-MM-DD format",
			Errors:  err.Error(),
		})
		return
	}

	startTime := c.Query("start_time")
	endTime := c.Query("end_time")
	if startTime == "" || endTime == "" {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "start_time and end_time are required",
		})
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Invalid exclude_id",
				Errors:  err.Error(),
			})
			return
		}
		excludeID = &id
	}

	lecturers, err := h.presentationService.AvailableLecturers(c.Request.Context(), scheduleID, date, startTime, endTime, excludeID)
	if err != nil {
		respondError(c, "list available lecturers", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    lecturers,
	})
}

// ListBySchedule handles GET /api/v1/schedules/:schedule_id/presentations
func (h *PresentationHandler) ListBySchedule(c *gin.Context) {
	scheduleID, ok := pathUUID(c, "schedule_id")
	if !ok {
		return
	}

	presentations, err := h.presentationRepo.ListBySchedule(c.Request.Context(), scheduleID)
	if err != nil {
		respondError(c, "list presentations", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    presentations,
	})
}

// Create handles POST /api/v1/presentations
// Accepts JSON, or multipart/form-data when a document is attached.
func (h *PresentationHandler) Create(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	presentation, result, err := h.presentationService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, "create presentation", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: result.Message,
		Data:    presentation,
	})
}

// Update handles PUT /api/v1/presentations/:presentation_id
func (h *PresentationHandler) Update(c *gin.Context) {
	presentationID, ok := pathUUID(c, "presentation_id")
	if !ok {
		return
	}

	req, ok := h.bind(c)
	if !ok {
		return
	}

	result, err := h.presentationService.Update(c.Request.Context(), presentationID, req)
	if err != nil {
		respondError(c, "update presentation", err)
		return
	}

	respondTransition(c, result, nil)
}

// Delete handles DELETE /api/v1/presentations/:presentation_id
func (h *PresentationHandler) Delete(c *gin.Context) {
	presentationID, ok := pathUUID(c, "presentation_id")
	if !ok {
		return
	}

	if err := h.presentationService.Delete(c.Request.Context(), presentationID); err != nil {
		respondError(c, "delete presentation", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Presentation deleted",
	})
}

// RecordDecision handles POST /api/v1/presentations/:presentation_id/decision
// Only the lead examiner may call this, after the presentation has ended.
func (h *PresentationHandler) RecordDecision(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	presentationID, ok := pathUUID(c, "presentation_id")
	if !ok {
		return
	}

	type decisionRequest struct {
		Decision domain.PresentationDecision `json:"decision" validate:"required,oneof=pass fail"`
		Reason   string                      `json:"reason"`
	}

	var req decisionRequest
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

	result, err := h.presentationService.RecordDecision(c.Request.Context(), actor, presentationID, req.Decision, req.Reason, time.Now().UTC())
	if err != nil {
		respondError(c, "record decision", err)
		return
	}

	respondTransition(c, result, nil)
}

func (h *PresentationHandler) bind(c *gin.Context) (*serviceInterfaces.CreatePresentationRequest, bool) {
	var req serviceInterfaces.CreatePresentationRequest

	if c.ContentType() == "multipart/form-data" {
		if !bindPresentationForm(c, &req) {
			return nil, false
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Errors:  err.Error(),
		})
		return nil, false
	}

	if err := validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  validator.FormatValidationError(err),
		})
		return nil, false
	}

	return &req, true
}

func bindPresentationForm(c *gin.Context, req *serviceInterfaces.CreatePresentationRequest) bool {
	fail := func(field string, err error) bool {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid " + field,
			Errors:  err.Error(),
		})
		return false
	}

	var err error
	if req.PeriodScheduleID, err = uuid.Parse(c.PostForm("period_schedule_id")); err != nil {
		return fail("period_schedule_id", err)
	}
	if req.StudentID, err = uuid.Parse(c.PostForm("student_id")); err != nil {
		return fail("student_id", err)
	}
	if req.VenueID, err = uuid.Parse(c.PostForm("venue_id")); err != nil {
		return fail("venue_id", err)
	}
	req.Date = c.PostForm("presentation_date")
	req.StartTime = c.PostForm("start_time")
	req.EndTime = c.PostForm("end_time")
	req.Type = domain.PresentationType(c.PostForm("presentation_type"))
	req.Notes = c.PostForm("notes")

	if raw := c.PostForm("lead_examiner_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fail("lead_examiner_id", err)
		}
		req.LeadExaminerID = &id
	}
	if raw := c.PostForm("examiner_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return fail("examiner_ids", err)
			}
			req.ExaminerIDs = append(req.ExaminerIDs, id)
		}
	}

	content, name, err := formFileBytes(c, "document")
	if err != nil {
		return fail("document", err)
	}
	req.Document = content
	req.DocumentName = name
	return true
}
