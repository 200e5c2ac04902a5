package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type countingHandler struct {
	jobType string
	runs    atomic.Int32
	err     error
	sawDL   atomic.Bool
}

func (h *countingHandler) Type() string { return h.jobType }

func (h *countingHandler) Run(ctx context.Context) error {
	h.runs.Add(1)
	if _, ok := ctx.Deadline(); ok {
		h.sawDL.Store(true)
	}
	return h.err
}

func TestRegistryRejectsDuplicatesAndEmptyTypes(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&countingHandler{jobType: "a"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(&countingHandler{jobType: "a"}); err == nil {
		t.Fatalf("duplicate: want error")
	}
	if err := reg.Register(&countingHandler{}); err == nil {
		t.Fatalf("empty type: want error")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("nil handler: want error")
	}
	if err := reg.Register(&countingHandler{jobType: "b"}); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if got := reg.Types(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("Types: got=%v", got)
	}
}

func TestRunNowAppliesTimeoutAndReportsErrors(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	h := &countingHandler{jobType: "sweep", err: boom}
	if err := reg.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s := NewScheduler(logger.NewNop(), reg, time.Minute)

	if err := s.RunNow(context.Background(), "sweep"); !errors.Is(err, boom) {
		t.Fatalf("RunNow: want=%v got=%v", boom, err)
	}
	if h.runs.Load() != 1 || !h.sawDL.Load() {
		t.Fatalf("run: runs=%d deadline=%v", h.runs.Load(), h.sawDL.Load())
	}
	if err := s.RunNow(context.Background(), "missing"); err == nil {
		t.Fatalf("unknown job: want error")
	}
}

func TestScheduleValidatesSpecAndType(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(&countingHandler{jobType: "sweep"})
	s := NewScheduler(logger.NewNop(), reg, 0)

	if err := s.Schedule("@every 1m", "missing"); err == nil {
		t.Fatalf("unknown job: want error")
	}
	if err := s.Schedule("not a spec", "sweep"); err == nil {
		t.Fatalf("bad spec: want error")
	}
	if err := s.Schedule("@every 1m", "sweep"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	s.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
