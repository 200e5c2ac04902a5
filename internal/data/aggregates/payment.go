package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/shamsacademy/academy-backend/internal/data/repos"
	types "github.com/shamsacademy/academy-backend/internal/domain"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

type PaymentAggregateDeps struct {
	Base BaseDeps

	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	Payments    repos.PaymentRepo
}

type paymentAggregate struct {
	deps PaymentAggregateDeps
}

func NewPaymentAggregate(deps PaymentAggregateDeps) domainagg.PaymentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &paymentAggregate{deps: deps}
}

func (a *paymentAggregate) Contract() domainagg.Contract {
	return domainagg.PaymentAggregateContract
}

func (a *paymentAggregate) Open(ctx context.Context, in domainagg.OpenPaymentInput) (domainagg.PaymentResult, error) {
	const op = "Billing.Payment.Open"
	var out domainagg.PaymentResult
	if in.EnrollmentID == uuid.Nil {
		return out, MapError(op, ValidationError("enrollment_id is required"))
	}
	if !in.Method.Valid() {
		return out, MapError(op, ValidationError("unsupported payment method: "+string(in.Method)))
	}
	if !billing.IsValidCardType(in.CardType) {
		return out, MapError(op, ValidationError("unsupported card type: "+in.CardType))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		enr, err := a.deps.Enrollments.LockByID(dbc, in.EnrollmentID)
		if err != nil {
			return err
		}
		if enr == nil || (in.StudentID != uuid.Nil && enr.StudentID != in.StudentID) {
			return NotFoundError("enrollment not found")
		}
		if enr.PaymentStatus == enrollment.PaymentCompleted {
			return ConflictError("enrollment is already paid")
		}
		pending, err := a.deps.Payments.GetPendingByEnrollment(dbc, enr.ID)
		if err != nil {
			return err
		}
		if pending != nil {
			return ConflictError("a payment is already pending for this enrollment")
		}

		course, err := a.deps.Courses.GetByID(dbc, enr.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return NotFoundError("course not found")
		}
		if !course.RequiresPayment() {
			return ConflictError("course does not require payment")
		}

		// idx_payment_enrollment_pending rejects a concurrent second insert.
		p, err := a.deps.Payments.Create(dbc, &types.Payment{
			EnrollmentID:  enr.ID,
			AmountMinor:   course.PriceMinor,
			Currency:      course.Currency,
			Method:        in.Method,
			CardType:      in.CardType,
			Status:        billing.StatusPending,
			TransactionID: uuid.NewString(),
		})
		if err != nil {
			return err
		}

		if enr.PaymentStatus != enrollment.PaymentPending {
			if err := a.deps.Enrollments.UpdateFields(dbc, enr.ID, map[string]interface{}{
				"payment_status": enrollment.PaymentPending,
			}); err != nil {
				return err
			}
			enr.PaymentStatus = enrollment.PaymentPending
		}

		out = domainagg.PaymentResult{Payment: p, Enrollment: enr, Changed: true}
		return nil
	})
	return out, err
}

func (a *paymentAggregate) AttachReference(ctx context.Context, in domainagg.AttachReferenceInput) (domainagg.PaymentResult, error) {
	const op = "Billing.Payment.AttachReference"
	var out domainagg.PaymentResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Payments.LockByID(dbc, in.PaymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return NotFoundError("payment not found")
		}
		out.Payment = p
		// A webhook may have resolved the payment before the provider call returned.
		if p.Status != billing.StatusPending {
			return nil
		}

		updates := map[string]interface{}{}
		if ext := strings.TrimSpace(in.ExternalPaymentID); ext != "" && p.PaymentID == "" {
			updates["payment_id"] = ext
			p.PaymentID = ext
		}
		if url := strings.TrimSpace(in.RedirectURL); url != "" {
			updates["redirect_url"] = url
			p.RedirectURL = url
		}
		if len(in.Payload) > 0 {
			updates["provider_payload"] = datatypes.JSON(in.Payload)
			p.ProviderPayload = datatypes.JSON(in.Payload)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := a.deps.Payments.UpdateFields(dbc, p.ID, updates); err != nil {
			return err
		}
		out.Changed = true
		return nil
	})
	return out, err
}

func (a *paymentAggregate) ResolveSuccess(ctx context.Context, in domainagg.ResolveSuccessInput) (domainagg.PaymentResult, error) {
	return a.transition(ctx, "Billing.Payment.ResolveSuccess", in.PaymentID, uuid.Nil, paymentTransition{
		target:     billing.StatusCompleted,
		enrollment: enrollment.PaymentCompleted,
		updates: func(p *types.Payment) map[string]interface{} {
			ext := strings.TrimSpace(in.ExternalPaymentID)
			if ext == "" {
				ext = p.PaymentID
			}
			u := map[string]interface{}{
				"status":        billing.StatusCompleted,
				"payment_id":    ext,
				"error_message": "",
				"resolved_at":   now(in.Now),
			}
			if len(in.Payload) > 0 {
				u["provider_payload"] = datatypes.JSON(in.Payload)
			}
			return u
		},
	})
}

func (a *paymentAggregate) ResolveFailure(ctx context.Context, in domainagg.ResolveFailureInput) (domainagg.PaymentResult, error) {
	return a.transition(ctx, "Billing.Payment.ResolveFailure", in.PaymentID, uuid.Nil, paymentTransition{
		target:     billing.StatusFailed,
		enrollment: enrollment.PaymentFailed,
		updates: func(*types.Payment) map[string]interface{} {
			reason := strings.TrimSpace(in.Reason)
			if reason == "" {
				reason = "payment failed"
			}
			u := map[string]interface{}{
				"status":        billing.StatusFailed,
				"error_message": reason,
				"resolved_at":   now(in.Now),
			}
			if len(in.Payload) > 0 {
				u["provider_payload"] = datatypes.JSON(in.Payload)
			}
			return u
		},
	})
}

func (a *paymentAggregate) Cancel(ctx context.Context, in domainagg.CancelPaymentInput) (domainagg.PaymentResult, error) {
	return a.transition(ctx, "Billing.Payment.Cancel", in.PaymentID, in.StudentID, paymentTransition{
		target:     billing.StatusCancelled,
		enrollment: enrollment.PaymentFailed,
		updates: func(*types.Payment) map[string]interface{} {
			return map[string]interface{}{
				"status":      billing.StatusCancelled,
				"resolved_at": now(in.Now),
			}
		},
	})
}

// paymentTransition moves a pending payment to target and cascades the
// enrollment payment status in the same transaction.
type paymentTransition struct {
	target     billing.Status
	enrollment string
	updates    func(p *types.Payment) map[string]interface{}
}

func (a *paymentAggregate) transition(ctx context.Context, op string, paymentID, studentID uuid.UUID, t paymentTransition) (domainagg.PaymentResult, error) {
	var out domainagg.PaymentResult
	if paymentID == uuid.Nil {
		return out, MapError(op, ValidationError("payment_id is required"))
	}
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Payments.LockByID(dbc, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return NotFoundError("payment not found")
		}
		enr, err := a.deps.Enrollments.LockByID(dbc, p.EnrollmentID)
		if err != nil {
			return err
		}
		if enr == nil || (studentID != uuid.Nil && enr.StudentID != studentID) {
			return NotFoundError("payment not found")
		}
		out.Payment, out.Enrollment = p, enr

		// One re-read covers a writer that resolved the row between our read
		// and the compare-and-set.
		for i := 0; i < 2; i++ {
			if done, err := settled(p.Status, t.target); done || err != nil {
				return err
			}
			updates := t.updates(p)
			ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, &types.Payment{}, p.ID,
				[]string{string(billing.StatusPending)}, updates)
			if err != nil {
				return err
			}
			if ok {
				applyPaymentUpdates(p, updates)
				return a.cascade(dbc, p, enr, t.enrollment, &out)
			}
			p, err = a.deps.Payments.GetByID(dbc, paymentID)
			if err != nil {
				return err
			}
			if p == nil {
				return NotFoundError("payment not found")
			}
			out.Payment = p
		}
		return RetryableError("payment changed concurrently")
	})
	return out, err
}

// settled reports whether a payment in current needs no transition to reach
// target. Terminal states other than target never move.
func settled(current, target billing.Status) (bool, error) {
	switch {
	case current == target:
		return true, nil
	case current == billing.StatusPending:
		return false, nil
	default:
		return true, ConflictError("payment is already " + string(current))
	}
}

func (a *paymentAggregate) cascade(dbc dbctx.Context, p *types.Payment, enr *types.Enrollment, status string, out *domainagg.PaymentResult) error {
	out.Changed = true
	if enr.PaymentStatus == enrollment.PaymentCompleted && status != enrollment.PaymentCompleted {
		// A settled enrollment is never downgraded by a later payment.
		return nil
	}
	updates := map[string]interface{}{"payment_status": status}
	if status == enrollment.PaymentCompleted {
		updates["payment_id"] = p.PaymentID
		enr.PaymentID = p.PaymentID
	}
	if err := a.deps.Enrollments.UpdateFields(dbc, enr.ID, updates); err != nil {
		return err
	}
	enr.PaymentStatus = status
	return nil
}

func applyPaymentUpdates(p *types.Payment, updates map[string]interface{}) {
	if v, ok := updates["status"].(billing.Status); ok {
		p.Status = v
	}
	if v, ok := updates["payment_id"].(string); ok {
		p.PaymentID = v
	}
	if v, ok := updates["error_message"].(string); ok {
		p.ErrorMessage = v
	}
	if v, ok := updates["provider_payload"].(datatypes.JSON); ok {
		p.ProviderPayload = v
	}
	if v, ok := updates["resolved_at"].(time.Time); ok {
		p.ResolvedAt = &v
	}
}
