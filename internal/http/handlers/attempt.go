package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/http/response"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

type AttemptHandler struct {
	log      *logger.Logger
	attempts services.AttemptService
	certs    services.CertificationService
}

func NewAttemptHandler(log *logger.Logger, attempts services.AttemptService, certs services.CertificationService) *AttemptHandler {
	return &AttemptHandler{log: log.With("handler", "AttemptHandler"), attempts: attempts, certs: certs}
}

type answerRequest struct {
	QuestionID     uuid.UUID   `json:"question_id" binding:"required"`
	ChoiceIDs      []uuid.UUID `json:"choice_ids"`
	AnswerText     string      `json:"answer_text"`
	CodeSubmission string      `json:"code_submission"`
}

// POST /api/tests/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	testID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.attempts.Start(c.Request.Context(), testID)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"attempt":   res.Attempt,
		"test":      res.Test,
		"questions": res.Questions,
	})
}

// POST /api/attempts/:id/submit
// body: { "answers": [{ "question_id": "...", "choice_ids": ["..."], "answer_text": "...", "code_submission": "..." }] }
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers []answerRequest `json:"answers" binding:"dive"`
	}
	if !bindJSON(c, &req) {
		return
	}
	answers := make([]domainagg.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domainagg.AnswerInput{
			QuestionID:     a.QuestionID,
			ChoiceIDs:      a.ChoiceIDs,
			AnswerText:     a.AnswerText,
			CodeSubmission: a.CodeSubmission,
		})
	}
	res, err := h.attempts.Submit(c.Request.Context(), attemptID, answers)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/attempts/:id/certificate
func (h *AttemptHandler) IssueCertificate(c *gin.Context) {
	attemptID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.certs.Certify(c.Request.Context(), attemptID)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"certificate":  res.Certificate,
		"achievements": res.Achievements,
	})
}

// GET /api/achievements
func (h *AttemptHandler) ListAchievements(c *gin.Context) {
	rows, err := h.certs.ListAchievements(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": rows})
}

// GET /api/certificates
func (h *AttemptHandler) ListCertificates(c *gin.Context) {
	rows, err := h.certs.ListCertificates(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": rows})
}
