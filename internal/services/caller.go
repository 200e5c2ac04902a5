package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/user"
	"github.com/shamsacademy/academy-backend/internal/platform/apierr"
	"github.com/shamsacademy/academy-backend/internal/platform/ctxutil"
)

var errNoIdentity = errors.New("identity not set in context")

// caller returns the authenticated identity or a 401.
func caller(ctx context.Context) (*ctxutil.Identity, error) {
	id := ctxutil.GetIdentity(ctx)
	if id == nil || id.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errNoIdentity)
	}
	return id, nil
}

func isAdmin(id *ctxutil.Identity) bool {
	return id != nil && id.Role == user.RoleAdmin
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
