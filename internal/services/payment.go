package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/payments"
	"github.com/shamsacademy/academy-backend/internal/platform/validate"
)

const (
	DefaultProviderTimeout = 15 * time.Second

	WebhookStatusSuccess = "success"

	verificationFailedMessage = "Payment verification failed"
	webhookFailedMessage      = "Payment failed"
)

type CreatePaymentInput struct {
	EnrollmentID uuid.UUID `json:"enrollment_id" validate:"required"`
	Method       string    `json:"payment_method" validate:"required"`
	CardType     string    `json:"card_type" validate:"required"`
	ReturnURL    string    `json:"return_url,omitempty" validate:"omitempty,url"`
}

// WebhookInput is a provider callback. PaymentID is the provider's id;
// TransactionID is ours and is used when the provider id is unknown.
type WebhookInput struct {
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
	ErrorMessage  string `json:"error_message"`
	Raw           []byte `json:"-"`
}

type PaymentService interface {
	// CreatePayment opens a pending payment and asks the provider for a
	// checkout. When the provider fails the payment is returned failed
	// together with an external_service error.
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*types.Payment, error)
	Get(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error)
	Verify(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error)
	Cancel(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error)
	HandleWebhook(ctx context.Context, method billing.Method, in WebhookInput) (*types.Payment, error)
}

type PaymentServiceConfig struct {
	ProviderTimeout time.Duration
	ReturnURL       string
}

type paymentService struct {
	db          *gorm.DB
	log         *logger.Logger
	agg         domainagg.PaymentAggregate
	payments    repos.PaymentRepo
	enrollments repos.EnrollmentRepo
	courses     repos.CourseRepo
	providers   payments.Registry
	cfg         PaymentServiceConfig
	now         clock
}

func NewPaymentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	agg domainagg.PaymentAggregate,
	paymentRepo repos.PaymentRepo,
	enrollmentRepo repos.EnrollmentRepo,
	courseRepo repos.CourseRepo,
	providers payments.Registry,
	cfg PaymentServiceConfig,
) PaymentService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	return &paymentService{
		db:          db,
		log:         baseLog.With("service", "PaymentService"),
		agg:         agg,
		payments:    paymentRepo,
		enrollments: enrollmentRepo,
		courses:     courseRepo,
		providers:   providers,
		cfg:         cfg,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, in CreatePaymentInput) (*types.Payment, error) {
	const op = "Billing.Payment.Create"
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(op, in); err != nil {
		return nil, err
	}
	method := billing.Method(strings.ToLower(strings.TrimSpace(in.Method)))
	provider, err := s.providers.Get(method)
	if err != nil {
		return nil, domainagg.Validation(op, "unsupported payment method: "+in.Method)
	}

	opened, err := s.agg.Open(ctx, domainagg.OpenPaymentInput{
		EnrollmentID: in.EnrollmentID,
		StudentID:    id.UserID,
		Method:       method,
		CardType:     strings.ToLower(strings.TrimSpace(in.CardType)),
		Now:          s.now.now(),
	})
	if err != nil {
		return nil, err
	}
	pay := opened.Payment
	observability.Current().IncPaymentTransition(string(method), string(billing.StatusPending))

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.ReturnURL
	}
	req := payments.CreateRequest{
		TransactionID: pay.TransactionID,
		AmountMinor:   pay.AmountMinor,
		Currency:      pay.Currency,
		CardType:      pay.CardType,
		Description:   s.describe(ctx, opened.Enrollment),
		ReturnURL:     returnURL,
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	ref, perr := provider.CreatePayment(pctx, req)
	cancel()
	if perr != nil {
		s.log.Warn("provider rejected payment",
			"payment_id", pay.ID,
			"method", method,
			"error", perr,
		)
		// The request context may already be gone; the failure must land.
		failed, ferr := s.agg.ResolveFailure(context.WithoutCancel(ctx), domainagg.ResolveFailureInput{
			PaymentID: pay.ID,
			Reason:    perr.Error(),
			Now:       s.now.now(),
		})
		if ferr != nil {
			s.log.Error("failed to record provider failure", "payment_id", pay.ID, "error", ferr)
			return pay, domainagg.ExternalService(op, "payment provider unavailable", perr)
		}
		if failed.Changed {
			observability.Current().IncPaymentTransition(string(method), string(billing.StatusFailed))
		}
		return failed.Payment, domainagg.ExternalService(op, "payment provider unavailable", perr)
	}

	attached, err := s.agg.AttachReference(context.WithoutCancel(ctx), domainagg.AttachReferenceInput{
		PaymentID:         pay.ID,
		ExternalPaymentID: ref.PaymentID,
		RedirectURL:       ref.RedirectURL,
		Payload:           ref.Raw,
	})
	if err != nil {
		return pay, err
	}
	s.log.Info("payment opened",
		"payment_id", pay.ID,
		"enrollment_id", pay.EnrollmentID,
		"method", method,
		"amount_minor", pay.AmountMinor,
	)
	return attached.Payment, nil
}

func (s *paymentService) describe(ctx context.Context, enr *types.Enrollment) string {
	if enr == nil {
		return ""
	}
	course, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, enr.CourseID)
	if err != nil || course == nil {
		return ""
	}
	return "Enrollment: " + course.Title
}

// owned loads a payment visible to the caller: students see their own,
// admins see all.
func (s *paymentService) owned(ctx context.Context, op string, paymentID uuid.UUID) (*types.Payment, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	pay, err := s.payments.GetByID(dbc, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if pay == nil {
		return nil, domainagg.NotFound(op, "payment not found")
	}
	if isAdmin(id) {
		return pay, nil
	}
	enr, err := s.enrollments.GetByID(dbc, pay.EnrollmentID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if enr == nil || enr.StudentID != id.UserID {
		return nil, domainagg.NotFound(op, "payment not found")
	}
	return pay, nil
}

func (s *paymentService) Get(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error) {
	return s.owned(ctx, "Billing.Payment.Get", paymentID)
}

func (s *paymentService) Verify(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error) {
	const op = "Billing.Payment.Verify"
	pay, err := s.owned(ctx, op, paymentID)
	if err != nil {
		return nil, err
	}
	if pay.Status.Terminal() {
		return pay, nil
	}
	provider, err := s.providers.Get(pay.Method)
	if err != nil {
		return nil, domainagg.Validation(op, "unsupported payment method: "+string(pay.Method))
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	ok, verr := provider.VerifyPayment(pctx, pay.TransactionID)
	cancel()
	if verr != nil {
		s.log.Warn("payment verification failed", "payment_id", pay.ID, "error", verr)
		failed, ferr := s.resolveFailure(context.WithoutCancel(ctx), pay, verr.Error(), nil)
		if ferr != nil {
			// A concurrent webhook may have settled the payment first.
			s.log.Error("failed to record verification failure", "payment_id", pay.ID, "error", ferr)
			if cur, gerr := s.payments.GetByID(dbctx.Context{Ctx: ctx}, pay.ID); gerr == nil && cur != nil {
				pay = cur
			}
			return pay, domainagg.ExternalService(op, "payment provider unavailable", verr)
		}
		return failed, domainagg.ExternalService(op, "payment provider unavailable", verr)
	}
	if ok {
		return s.resolveSuccess(ctx, pay, pay.PaymentID, nil)
	}
	failed, err := s.resolveFailure(ctx, pay, verificationFailedMessage, nil)
	if err != nil {
		return nil, err
	}
	return failed, domainagg.Validation(op, verificationFailedMessage)
}

func (s *paymentService) Cancel(ctx context.Context, paymentID uuid.UUID) (*types.Payment, error) {
	const op = "Billing.Payment.Cancel"
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	pay, err := s.owned(ctx, op, paymentID)
	if err != nil {
		return nil, err
	}
	in := domainagg.CancelPaymentInput{PaymentID: pay.ID, Now: s.now.now()}
	if !isAdmin(id) {
		in.StudentID = id.UserID
	}
	res, err := s.agg.Cancel(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.Changed {
		observability.Current().IncPaymentTransition(string(pay.Method), string(billing.StatusCancelled))
	}
	return res.Payment, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, method billing.Method, in WebhookInput) (*types.Payment, error) {
	const op = "Billing.Payment.Webhook"
	if !method.Valid() {
		return nil, domainagg.Validation(op, "unsupported payment method: "+string(method))
	}
	if err := validate.Struct(op, in); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	pay, err := s.payments.GetByExternalID(dbc, method, strings.TrimSpace(in.PaymentID))
	if err != nil {
		return nil, fmt.Errorf("lookup payment: %w", err)
	}
	if pay == nil && strings.TrimSpace(in.TransactionID) != "" {
		pay, err = s.payments.GetByTransactionID(dbc, strings.TrimSpace(in.TransactionID))
		if err != nil {
			return nil, fmt.Errorf("lookup payment: %w", err)
		}
		if pay != nil && pay.Method != method {
			pay = nil
		}
	}
	if pay == nil {
		s.log.Warn("webhook for unknown payment", "method", method, "payment_id", in.PaymentID)
		return nil, domainagg.NotFound(op, "Payment not found")
	}

	if strings.EqualFold(strings.TrimSpace(in.Status), WebhookStatusSuccess) {
		return s.resolveSuccess(ctx, pay, in.PaymentID, in.Raw)
	}
	reason := strings.TrimSpace(in.ErrorMessage)
	if reason == "" {
		reason = webhookFailedMessage
	}
	return s.resolveFailure(ctx, pay, reason, in.Raw)
}

func (s *paymentService) resolveSuccess(ctx context.Context, pay *types.Payment, externalID string, raw []byte) (*types.Payment, error) {
	res, err := s.agg.ResolveSuccess(ctx, domainagg.ResolveSuccessInput{
		PaymentID:         pay.ID,
		ExternalPaymentID: externalID,
		Payload:           raw,
		Now:               s.now.now(),
	})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		observability.Current().IncPaymentTransition(string(pay.Method), string(billing.StatusCompleted))
		s.log.Info("payment completed", "payment_id", pay.ID, "enrollment_id", pay.EnrollmentID)
	}
	return res.Payment, nil
}

func (s *paymentService) resolveFailure(ctx context.Context, pay *types.Payment, reason string, raw []byte) (*types.Payment, error) {
	res, err := s.agg.ResolveFailure(ctx, domainagg.ResolveFailureInput{
		PaymentID: pay.ID,
		Reason:    reason,
		Payload:   raw,
		Now:       s.now.now(),
	})
	if err != nil {
		return nil, err
	}
	if res.Changed {
		observability.Current().IncPaymentTransition(string(pay.Method), string(billing.StatusFailed))
		s.log.Info("payment failed", "payment_id", pay.ID, "reason", reason)
	}
	return res.Payment, nil
}
