package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
)

func TestMapErrorTaggedKinds(t *testing.T) {
	cases := []struct {
		err  error
		want domainagg.ErrorCode
	}{
		{ValidationError("bad input"), domainagg.CodeValidation},
		{NotFoundError("payment not found"), domainagg.CodeNotFound},
		{ConflictError("stale"), domainagg.CodeConflict},
		{InvariantError("broken"), domainagg.CodeInvariantViolation},
		{RetryableError("busy"), domainagg.CodeRetryable},
		{fmt.Errorf("wrapped: %w", ConflictError("inner")), domainagg.CodeConflict},
	}
	for _, tc := range cases {
		got := MapError("op", tc.err)
		if !domainagg.IsCode(got, tc.want) {
			t.Fatalf("MapError(%v): want=%s got=%s", tc.err, tc.want, domainagg.CodeOf(got))
		}
	}
}

func TestMapErrorKeepsTaggedMessage(t *testing.T) {
	err := MapError("Billing.Payment.Open", ConflictError("payment already pending"))
	if msg := domainagg.MessageOf(err); msg != "payment already pending" {
		t.Fatalf("message: want=%q got=%q", "payment already pending", msg)
	}
}

func TestMapErrorStorageFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"record not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: payment.enrollment_id"), domainagg.CodeConflict},
		{"deadline", context.DeadlineExceeded, domainagg.CodeRetryable},
		{"other", errors.New("disk on fire"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if !domainagg.IsCode(got, tc.want) {
				t.Fatalf("want=%s got=%s (%v)", tc.want, domainagg.CodeOf(got), got)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("expected cause to be preserved")
			}
		})
	}
}

func TestMapErrorPassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
