package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
)

// Error is an HTTP-facing error: a status, a stable code, and the cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromDomain maps a domain error kind to its HTTP status. Unknown errors
// become 500 "internal".
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	code := domainagg.CodeOf(err)
	return &Error{Status: StatusFor(code), Code: string(code), Err: err}
}

func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict, domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation:
		return http.StatusConflict
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeRateLimited:
		return http.StatusTooManyRequests
	case domainagg.CodeExternalService:
		return http.StatusBadGateway
	case domainagg.CodeUnavailable:
		return http.StatusServiceUnavailable
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
