package handlers

import (
	"context"
	"net/http"
	"strconv"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SupervisionHandler handles direct supervision applications.
type SupervisionHandler struct {
	supervisionService serviceInterfaces.SupervisionService
	applicationRepo    interfaces.SupervisionApplicationRepository
}

func NewSupervisionHandler(
	supervisionService serviceInterfaces.SupervisionService,
	applicationRepo interfaces.SupervisionApplicationRepository,
) *SupervisionHandler {
	return &SupervisionHandler{
		supervisionService: supervisionService,
		applicationRepo:    applicationRepo,
	}
}

// Apply handles POST /api/v1/supervision-applications
// Accepts JSON, or multipart/form-data when a document is attached.
func (h *SupervisionHandler) Apply(c *gin.Context) {
	var req serviceInterfaces.ApplySupervisionRequest

	if c.ContentType() == "multipart/form-data" {
		if !bindSupervisionForm(c, &req) {
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
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

	app, err := h.supervisionService.Apply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "apply for supervision", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Application submitted",
		Data:    app,
	})
}

func bindSupervisionForm(c *gin.Context, req *serviceInterfaces.ApplySupervisionRequest) bool {
	fail := func(field string, err error) bool {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid " + field,
			Errors:  err.Error(),
		})
		return false
	}

	var err error
	if req.StudentID, err = uuid.Parse(c.PostForm("student_id")); err != nil {
		return fail("student_id", err)
	}
	if req.LecturerID, err = uuid.Parse(c.PostForm("lecturer_id")); err != nil {
		return fail("lecturer_id", err)
	}
	if req.PeriodID, err = uuid.Parse(c.PostForm("period_id")); err != nil {
		return fail("period_id", err)
	}
	if raw := c.PostForm("proposed_role"); raw != "" {
		role, err := strconv.Atoi(raw)
		if err != nil {
			return fail("proposed_role", err)
		}
		req.ProposedRole = domain.SupervisorRole(role)
	}
	req.StudentNotes = c.PostForm("student_notes")

	content, name, err := formFileBytes(c, "document")
	if err != nil {
		return fail("document", err)
	}
	req.Document = content
	req.DocumentName = name
	return true
}

// ListByLecturer handles GET /api/v1/supervision-applications
// Query params: lecturer_id, period_id.
func (h *SupervisionHandler) ListByLecturer(c *gin.Context) {
	lecturerID, err := uuid.Parse(c.Query("lecturer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid lecturer_id",
			Errors:  err.Error(),
		})
		return
	}
	periodID, err := uuid.Parse(c.Query("period_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid period_id",
			Errors:  err.Error(),
		})
		return
	}

	apps, err := h.applicationRepo.ListByLecturerAndPeriod(c.Request.Context(), lecturerID, periodID)
	if err != nil {
		respondError(c, "list supervision applications", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    apps,
	})
}

type lecturerNotesRequest struct {
	Notes string `json:"notes"`
}

// Accept handles POST /api/v1/supervision-applications/:application_id/accept
func (h *SupervisionHandler) Accept(c *gin.Context) {
	h.decide(c, h.supervisionService.Accept)
}

// Decline handles POST /api/v1/supervision-applications/:application_id/decline
func (h *SupervisionHandler) Decline(c *gin.Context) {
	h.decide(c, h.supervisionService.Decline)
}

func (h *SupervisionHandler) decide(
	c *gin.Context,
	op func(ctx context.Context, actorLecturerID, applicationID uuid.UUID, notes string) (domain.TransitionResult, error),
) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	applicationID, ok := pathUUID(c, "application_id")
	if !ok {
		return
	}

	var req lecturerNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, APIResponse{
				Success: false,
				Message: "Invalid request format",
				Errors:  err.Error(),
			})
			return
		}
	}

	result, err := op(c.Request.Context(), actor, applicationID, req.Notes)
	if err != nil {
		respondError(c, "decide supervision application", err)
		return
	}

	respondTransition(c, result, nil)
}
