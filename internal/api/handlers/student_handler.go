package handlers

import (
	"net/http"

	domain "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/domain/thesis"
	interfaces "github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/interfaces/infrastructure"

	"github.com/gin-gonic/gin"
)

// StudentHandler serves student state and the append-only status history.
type StudentHandler struct {
	studentRepo interfaces.StudentRepository
	historyRepo interfaces.HistoryRepository
}

func NewStudentHandler(studentRepo interfaces.StudentRepository, historyRepo interfaces.HistoryRepository) *StudentHandler {
	return &StudentHandler{studentRepo: studentRepo, historyRepo: historyRepo}
}

// GetStudent handles GET /api/v1/students/:student_id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	studentID, ok := pathUUID(c, "student_id")
	if !ok {
		return
	}

	student, err := h.studentRepo.GetByID(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, "get student", err)
		return
	}
	if student == nil {
		respondError(c, "get student", domain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    student,
	})
}

// GetHistory handles GET /api/v1/students/:student_id/history
func (h *StudentHandler) GetHistory(c *gin.Context) {
	studentID, ok := pathUUID(c, "student_id")
	if !ok {
		return
	}

	history, err := h.historyRepo.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, "get student history", err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    history,
	})
}
