package handlers

import (
	"context"
	"net/http"
	"strings"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"
	serviceInterfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/service"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TopicHandler handles lecturer topics and topic applications.
type TopicHandler struct {
	topicService    serviceInterfaces.TopicService
	topicRepo       interfaces.TopicRepository
	applicationRepo interfaces.TopicApplicationRepository
}

func NewTopicHandler(
	topicService serviceInterfaces.TopicService,
	topicRepo interfaces.TopicRepository,
	applicationRepo interfaces.TopicApplicationRepository,
) *TopicHandler {
	return &TopicHandler{
		topicService:    topicService,
		topicRepo:       topicRepo,
		applicationRepo: applicationRepo,
	}
}

// CreateTopic handles POST /api/v1/topics
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	type createTopicRequest struct {
		LecturerID   uuid.UUID `json:"lecturer_id" validate:"required"`
		PeriodID     uuid.UUID `json:"period_id" validate:"required"`
		Topic        string    `json:"topic" validate:"required"`
		Description  string    `json:"description"`
		StudentQuota int       `json:"student_quota" validate:"gte=0"`
	}

	var req createTopicRequest
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

	topic := &domain.LecturerTopic{
		LecturerID:   req.LecturerID,
		PeriodID:     req.PeriodID,
		Topic:        req.Topic,
		Description:  req.Description,
		StudentQuota: req.StudentQuota,
	}

	if err := h.topicService.CreateTopic(c.Request.Context(), topic); err != nil {
		respondError(c, "create topic", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Topic created",
		Data:    topic,
	})
}

// ListTopics handles GET /api/v1/topics
// Query params: lecturer_id, period_id.
func (h *TopicHandler) ListTopics(c *gin.Context) {
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

	topics, err := h.topicRepo.ListByLecturerAndPeriod(c.Request.Context(), lecturerID, periodID)
	if err != nil {
		respondError(c, "list topics", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    topics,
	})
}

// Apply handles POST /api/v1/topic-applications
// Accepts JSON, or multipart/form-data when a document is attached.
func (h *TopicHandler) Apply(c *gin.Context) {
	var req serviceInterfaces.ApplyTopicRequest

	if c.ContentType() == "multipart/form-data" {
		if !bindTopicForm(c, &req) {
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

	app, err := h.topicService.Apply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "apply for topic", err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Application submitted",
		Data:    app,
	})
}

func bindTopicForm(c *gin.Context, req *serviceInterfaces.ApplyTopicRequest) bool {
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
	if req.TopicID, err = uuid.Parse(c.PostForm("topic_id")); err != nil {
		return fail("topic_id", err)
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

// ListApplications handles GET /api/v1/topic-applications
// Query params: lecturer_id, period_id, optional status (comma separated).
func (h *TopicHandler) ListApplications(c *gin.Context) {
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

	var statuses []domain.ApplicationStatus
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.ApplicationStatus(strings.TrimSpace(s)))
		}
	}

	apps, err := h.applicationRepo.ListByLecturerAndPeriod(c.Request.Context(), lecturerID, periodID, statuses)
	if err != nil {
		respondError(c, "list topic applications", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    apps,
	})
}

// Accept handles POST /api/v1/topic-applications/:application_id/accept
func (h *TopicHandler) Accept(c *gin.Context) {
	h.decide(c, h.topicService.Accept)
}

// Decline handles POST /api/v1/topic-applications/:application_id/decline
func (h *TopicHandler) Decline(c *gin.Context) {
	h.decide(c, h.topicService.Decline)
}

// Release handles POST /api/v1/topic-applications/:application_id/release
func (h *TopicHandler) Release(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	applicationID, ok := pathUUID(c, "application_id")
	if !ok {
		return
	}

	type releaseRequest struct {
		Reason string `json:"reason"`
	}
	var req releaseRequest
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

	result, err := h.topicService.Release(c.Request.Context(), actor, applicationID, req.Reason)
	if err != nil {
		respondError(c, "release supervision", err)
		return
	}

	respondTransition(c, result, nil)
}

// Reopen handles POST /api/v1/topic-applications/:application_id/reopen
func (h *TopicHandler) Reopen(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	applicationID, ok := pathUUID(c, "application_id")
	if !ok {
		return
	}

	result, err := h.topicService.Reopen(c.Request.Context(), actor, applicationID)
	if err != nil {
		respondError(c, "reopen topic application", err)
		return
	}

	respondTransition(c, result, nil)
}

func (h *TopicHandler) decide(
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
		respondError(c, "decide topic application", err)
		return
	}

	respondTransition(c, result, nil)
}
