package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shamsacademy/academy-backend/internal/http/response"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

type AssistantHandler struct {
	log       *logger.Logger
	assistant services.AssistantService
}

func NewAssistantHandler(log *logger.Logger, assistant services.AssistantService) *AssistantHandler {
	return &AssistantHandler{log: log.With("handler", "AssistantHandler"), assistant: assistant}
}

// POST /api/ai/chat
// body: { "message": "..." }
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	// Malformed bodies fall through as an empty message.
	_ = c.ShouldBindJSON(&req)
	out, err := h.assistant.Chat(c.Request.Context(), req.Message)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"response": out})
}

// POST /api/ai/generate-course
// body: { "topic": "...", "level": "beginner|intermediate|advanced" }
func (h *AssistantHandler) GenerateCourse(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
		Level string `json:"level"`
	}
	_ = c.ShouldBindJSON(&req)
	out, err := h.assistant.GenerateCourse(c.Request.Context(), req.Topic, req.Level)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"content": out})
}
