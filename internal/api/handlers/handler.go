package handlers

import (
	"errors"
	"io"
	"net/http"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

const actorHeader = "X-Actor-ID"

// actorID reads the authenticated actor from the request header. Upstream
// auth middleware is expected to have populated it; a missing or malformed
// value is a client error.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(actorHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, APIResponse{
			Success: false,
			Message: "Missing " + actorHeader + " header",
		})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, APIResponse{
			Success: false,
			Message: "Invalid " + actorHeader + " header",
			Errors:  err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a uuid path parameter, responding 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid " + name,
			Errors:  err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps domain error kinds to HTTP status codes. Anything
// unrecognized is a 500 and gets logged with the failing operation.
func respondError(c *gin.Context, operation string, err error) {
	var validationErr *domain.ValidationError
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Message: "Resource not found",
		})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, APIResponse{
			Success: false,
			Message: "You do not own this resource",
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, APIResponse{
			Success: false,
			Message: validationErr.Message,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Message: conflictErr.Message,
		})
	default:
		logger.Error("%s failed: %v", operation, err)
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: "Internal server error",
		})
	}
}

// respondTransition renders a TransitionResult: success as 200, a guard
// failure as 409 with the guard's message.
func respondTransition(c *gin.Context, result domain.TransitionResult, data interface{}) {
	if !result.Success {
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Message: result.Message,
		})
		return
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: result.Message,
		Data:    data,
	})
}

// formFileBytes reads an optional uploaded file from a multipart form.
// A missing file is not an error.
func formFileBytes(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", nil
		}
		return nil, "", err
	}
	f, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return content, header.Filename, nil
}
