package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/http/response"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/services"
)

const (
	maxWebhookBytes = 1 << 20
	signatureHeader = "X-Signature"
)

type PaymentHandler struct {
	log           *logger.Logger
	payments      services.PaymentService
	webhookSecret []byte
}

// NewPaymentHandler builds the payment endpoints. With a non-empty
// webhookSecret every callback must carry a valid X-Signature.
func NewPaymentHandler(log *logger.Logger, payments services.PaymentService, webhookSecret string) *PaymentHandler {
	h := &PaymentHandler{log: log.With("handler", "PaymentHandler"), payments: payments}
	if s := strings.TrimSpace(webhookSecret); s != "" {
		h.webhookSecret = []byte(s)
	}
	return h
}

// POST /api/payments
// body: { "enrollment_id": "...", "payment_method": "click|payme|uzum", "card_type": "...", "return_url": "..." }
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req services.CreatePaymentInput
	if !bindJSON(c, &req) {
		return
	}
	pay, err := h.payments.CreatePayment(c.Request.Context(), req)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"payment": pay})
}

// GET /api/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pay, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"payment": pay})
}

// POST /api/payments/:id/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pay, err := h.payments.Verify(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"payment": pay})
}

// POST /api/payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pay, err := h.payments.Cancel(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"payment": pay})
}

// POST /api/payments/webhook/:method
// body: { "transaction_id": "...", "payment_id": "...", "status": "success|...", "error_message": "..." }
func (h *PaymentHandler) Webhook(c *gin.Context) {
	method := billing.Method(strings.ToLower(c.Param("method")))
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(raw) > maxWebhookBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", errors.New("webhook body too large"))
		return
	}
	if !h.signatureOK(c.GetHeader(signatureHeader), raw) {
		h.log.Warn("webhook signature mismatch", "method", method)
		response.RespondError(c, http.StatusUnauthorized, "invalid_signature", errors.New("invalid webhook signature"))
		return
	}

	var in services.WebhookInput
	if err := json.Unmarshal(raw, &in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in.Raw = raw

	pay, err := h.payments.HandleWebhook(c.Request.Context(), method, in)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "ok", "payment": pay})
}

// signatureOK accepts a hex HMAC-SHA256 of the body, optionally prefixed
// with "sha256=".
func (h *PaymentHandler) signatureOK(header string, body []byte) bool {
	if len(h.webhookSecret) == 0 {
		return true
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
