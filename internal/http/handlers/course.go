package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shamsacademy/academy-backend/internal/http/response"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService) *CourseHandler {
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courses: courses}
}

// GET /api/courses?level=&limit=&offset=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	rows, err := h.courses.ListPublished(c.Request.Context(), c.Query("level"), intQuery(c, "limit", 0), intQuery(c, "offset", 0))
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": rows})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	course, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/tests/:id
func (h *CourseHandler) GetTest(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	test, err := h.courses.GetTest(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"test": test})
}
