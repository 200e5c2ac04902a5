package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/assessment"
	"github.com/shamsacademy/academy-backend/internal/domain/catalog"
)

var AttemptAggregateContract = Contract{
	Name:             "Assessment.AttemptAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns attempt start, scoring and timeout; one in-progress attempt per (test, student).",
}

// AttemptAggregate owns test attempt transitions
// (in_progress -> completed | timeout).
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type AttemptAggregate interface {
	Aggregate

	// Start creates the attempt and one blank question attempt per question.
	Start(ctx context.Context, in StartAttemptInput) (StartAttemptResult, error)

	// Submit grades the answers and completes the attempt.
	Submit(ctx context.Context, in SubmitAttemptInput) (SubmitAttemptResult, error)

	// Expire moves an in-progress attempt to timeout. With RequireElapsed
	// the attempt is only expired once its time limit has passed.
	Expire(ctx context.Context, in ExpireAttemptInput) (ExpireAttemptResult, error)
}

type StartAttemptInput struct {
	TestID    uuid.UUID
	StudentID uuid.UUID
	Now       time.Time
}

type StartAttemptResult struct {
	Attempt   *assessment.TestAttempt
	Test      *catalog.Test
	Questions []*assessment.QuestionAttempt
}

type AnswerInput struct {
	QuestionID     uuid.UUID
	ChoiceIDs      []uuid.UUID
	AnswerText     string
	CodeSubmission string
}

type SubmitAttemptInput struct {
	AttemptID uuid.UUID
	StudentID uuid.UUID
	Answers   []AnswerInput
	Now       time.Time
}

type SubmitAttemptResult struct {
	Attempt      *assessment.TestAttempt
	Test         *catalog.Test
	Questions    []*assessment.QuestionAttempt
	EarnedPoints int
	TotalPoints  int
	Passed       bool
}

type ExpireAttemptInput struct {
	AttemptID      uuid.UUID
	RequireElapsed bool
	Now            time.Time
}

type ExpireAttemptResult struct {
	Attempt *assessment.TestAttempt
	Expired bool
}
