package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// Scheduler runs registered handlers on cron specs. A run that is still
// going when its next tick fires is skipped, not queued.
type Scheduler struct {
	log     *logger.Logger
	reg     *Registry
	cron    *cron.Cron
	timeout time.Duration

	mu     sync.Mutex
	base   context.Context
	cancel context.CancelFunc
}

func NewScheduler(baseLog *logger.Logger, reg *Registry, timeout time.Duration) *Scheduler {
	log := baseLog.With("component", "JobScheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		log:     log,
		reg:     reg,
		timeout: timeout,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

func (s *Scheduler) Schedule(spec, jobType string) error {
	if _, ok := s.reg.Get(jobType); !ok {
		return fmt.Errorf("no handler registered for job_type=%s", jobType)
	}
	_, err := s.cron.AddFunc(spec, func() {
		_ = s.RunNow(s.baseContext(), jobType)
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", jobType, spec, err)
	}
	s.log.Info("Job scheduled", "job_type", jobType, "spec", spec)
	return nil
}

// RunNow runs one handler synchronously under the per-run timeout.
func (s *Scheduler) RunNow(ctx context.Context, jobType string) error {
	h, ok := s.reg.Get(jobType)
	if !ok {
		return fmt.Errorf("no handler registered for job_type=%s", jobType)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	err := h.Run(ctx)
	if err != nil {
		s.log.Warn("Job failed", "job_type", jobType, "duration", time.Since(start).String(), "error", err)
		return err
	}
	s.log.Debug("Job finished", "job_type", jobType, "duration", time.Since(start).String())
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == nil {
		return context.Background()
	}
	return s.base
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
