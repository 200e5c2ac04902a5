package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context carries the request context and, when set, the open transaction
// repositories must write through.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func (c Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// DB returns the open transaction when present, otherwise fallback, bound
// to the request context.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	t := c.Tx
	if t == nil {
		t = fallback
	}
	return t.WithContext(c.Context())
}
