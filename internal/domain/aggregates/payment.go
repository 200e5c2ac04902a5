package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
)

var PaymentAggregateContract = Contract{
	Name:             "Billing.PaymentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the payment lifecycle and its cascade onto enrollment payment status.",
}

// PaymentAggregate owns payment state transitions
// (pending -> completed | failed | cancelled). Terminal states never regress.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type PaymentAggregate interface {
	Aggregate

	// Open locks the enrollment and persists a pending payment. It fails
	// with CodeConflict when the enrollment is already paid or another
	// payment is pending.
	Open(ctx context.Context, in OpenPaymentInput) (PaymentResult, error)

	// AttachReference records the provider reference of a pending payment.
	AttachReference(ctx context.Context, in AttachReferenceInput) (PaymentResult, error)

	// ResolveSuccess completes a pending payment and the enrollment in one
	// transaction. Already completed payments are returned unchanged.
	ResolveSuccess(ctx context.Context, in ResolveSuccessInput) (PaymentResult, error)

	// ResolveFailure fails a pending payment and the enrollment payment
	// status. Already failed payments are returned unchanged.
	ResolveFailure(ctx context.Context, in ResolveFailureInput) (PaymentResult, error)

	// Cancel cancels a pending payment; the enrollment may pay again.
	Cancel(ctx context.Context, in CancelPaymentInput) (PaymentResult, error)
}

type OpenPaymentInput struct {
	EnrollmentID uuid.UUID
	// StudentID, when set, must own the enrollment.
	StudentID uuid.UUID
	Method    billing.Method
	CardType  string
	Now       time.Time
}

type AttachReferenceInput struct {
	PaymentID         uuid.UUID
	ExternalPaymentID string
	RedirectURL       string
	Payload           []byte
}

type ResolveSuccessInput struct {
	PaymentID         uuid.UUID
	ExternalPaymentID string
	Payload           []byte
	Now               time.Time
}

type ResolveFailureInput struct {
	PaymentID uuid.UUID
	Reason    string
	Payload   []byte
	Now       time.Time
}

type CancelPaymentInput struct {
	PaymentID uuid.UUID
	StudentID uuid.UUID
	Now       time.Time
}

type PaymentResult struct {
	Payment    *billing.Payment
	Enrollment *enrollment.Enrollment
	// Changed is false when the call was an idempotent no-op.
	Changed bool
}
