package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/enrollment"
)

var EnrollmentAggregateContract = Contract{
	Name:             "Learning.EnrollmentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns (student, course) enrollment uniqueness and the initial payment status.",
}

// EnrollmentAggregate owns enrollment creation.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type EnrollmentAggregate interface {
	Aggregate

	// Enroll creates the enrollment. Paid courses start awaiting payment,
	// free courses start completed.
	Enroll(ctx context.Context, in EnrollInput) (EnrollResult, error)
}

type EnrollInput struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
	Now       time.Time
}

type EnrollResult struct {
	Enrollment *enrollment.Enrollment
}
