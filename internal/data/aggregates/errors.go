package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrNotFound indicates a referenced row is absent or not visible to the caller.
	ErrNotFound = errors.New("aggregate not found")
	// ErrInvariant indicates invariant rule violation.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrConflict indicates a state machine precondition or uniqueness conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// taggedError carries a user-facing message and the sentinel it matches.
type taggedError struct {
	kind error
	msg  string
}

func (e *taggedError) Error() string        { return e.msg }
func (e *taggedError) Is(target error) bool { return target == e.kind }

func tag(kind error, msg string) error {
	return &taggedError{kind: kind, msg: strings.TrimSpace(msg)}
}

func ValidationError(msg string) error { return tag(ErrValidation, msg) }
func NotFoundError(msg string) error   { return tag(ErrNotFound, msg) }
func InvariantError(msg string) error  { return tag(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tag(ErrConflict, msg) }
func RetryableError(msg string) error  { return tag(ErrRetryable, msg) }

// MapError maps infrastructure/domain failures into aggregate error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}

	var tagged *taggedError
	if errors.As(err, &tagged) {
		return domainagg.NewError(codeForKind(tagged.kind), op, tagged.msg, err)
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.NewError(domainagg.CodeNotFound, op, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.NewError(domainagg.CodeConflict, op, "record already exists", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.NewError(domainagg.CodeRetryable, op, "operation timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domainagg.NewError(domainagg.CodeConflict, op, "record already exists", err) // unique_violation
		case "23503":
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, "referenced record missing", err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domainagg.NewError(domainagg.CodeRetryable, op, "concurrent update, retry", err) // serialization/deadlock/lock_not_available
		}
	}

	// sqlite and driver errors only expose text.
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return domainagg.NewError(domainagg.CodeConflict, op, "record already exists", err)
	case strings.Contains(msg, "foreign key constraint failed"):
		return domainagg.NewError(domainagg.CodePreconditionFailed, op, "referenced record missing", err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.NewError(domainagg.CodeRetryable, op, "concurrent update, retry", err)
	default:
		return domainagg.NewError(domainagg.CodeInternal, op, "internal error", err)
	}
}

func codeForKind(kind error) domainagg.ErrorCode {
	switch kind {
	case ErrValidation:
		return domainagg.CodeValidation
	case ErrNotFound:
		return domainagg.CodeNotFound
	case ErrInvariant:
		return domainagg.CodeInvariantViolation
	case ErrConflict:
		return domainagg.CodeConflict
	case ErrRetryable:
		return domainagg.CodeRetryable
	default:
		return domainagg.CodeInternal
	}
}
