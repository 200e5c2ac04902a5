package sweeper

import (
	"context"
	"time"

	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

const JobType = "attempt_timeout_sweep"

// Expirer is the slice of the attempt service the sweep needs.
type Expirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type Sweeper struct {
	log      *logger.Logger
	attempts Expirer
	now      func() time.Time
}

func New(baseLog *logger.Logger, attempts Expirer) *Sweeper {
	return &Sweeper{
		log:      baseLog.With("job", JobType),
		attempts: attempts,
		now:      time.Now,
	}
}

func (s *Sweeper) Type() string { return JobType }

// Run expires every in-progress attempt whose time limit has passed.
// Partial progress is kept when the sweep is cut short.
func (s *Sweeper) Run(ctx context.Context) error {
	at := s.now().UTC()
	n, err := s.attempts.ExpireOverdue(ctx, at)
	if n > 0 {
		s.log.Info("Expired overdue attempts", "count", n, "at", at)
	}
	return err
}
