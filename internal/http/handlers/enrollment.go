package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/http/response"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

type EnrollmentHandler struct {
	log         *logger.Logger
	enrollments services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollments services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{log: log.With("handler", "EnrollmentHandler"), enrollments: enrollments}
}

// POST /api/enrollments
// body: { "course_id": "..." }
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req struct {
		CourseID uuid.UUID `json:"course_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	enr, err := h.enrollments.Enroll(c.Request.Context(), req.CourseID)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": enr})
}

// GET /api/enrollments
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	rows, err := h.enrollments.ListForStudent(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": rows})
}

// GET /api/enrollments/:id
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	enr, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": enr})
}
