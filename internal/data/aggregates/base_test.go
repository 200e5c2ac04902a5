package aggregates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/dbctx"
)

func TestExecuteWriteStatusPerOutcome(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    string
		conflicts int
		retries   int
	}{
		{name: "success", status: "success"},
		{name: "conflict", err: ConflictError("payment is already completed"), status: string(domainagg.CodeConflict), conflicts: 1},
		{name: "retryable", err: RetryableError("could not serialize access"), status: string(domainagg.CodeRetryable), retries: 1},
		{name: "invariant", err: InvariantError("enrollment missing for payment"), status: string(domainagg.CodeInvariantViolation)},
		{name: "deadline", err: context.DeadlineExceeded, status: string(domainagg.CodeRetryable), retries: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks},
				"Billing.Payment.ResolveSuccess", func(dbctx.Context) error { return tc.err })
			if tc.err == nil && err != nil {
				t.Fatalf("executeWrite: %v", err)
			}
			if tc.err != nil && domainagg.CodeOf(err) == "" {
				t.Fatalf("executeWrite: want domain error got=%v", err)
			}
			ops := hooks.ops()
			if len(ops) != 1 || ops[0].Name != "Billing.Payment.ResolveSuccess" || ops[0].Status != tc.status {
				t.Fatalf("operations: want one %s got=%+v", tc.status, ops)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("counters: conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(errors.New("boom")); got != string(domainagg.CodeInternal) {
		t.Fatalf("plain error status: want=%s got=%s", domainagg.CodeInternal, got)
	}
}

func TestPaymentOpenReportsHooks(t *testing.T) {
	f := newFixture(t)
	s, enr := f.paidEnrollment(t)
	in := domainagg.OpenPaymentInput{EnrollmentID: enr.ID, StudentID: s.ID, Method: billing.MethodClick, CardType: billing.CardHumo}

	if _, err := f.payment().Open(f.ctx, in); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := f.payment().Open(f.ctx, in); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second Open: want conflict got=%v", err)
	}
	var statuses []string
	for _, op := range f.hooks.ops() {
		if op.Name == "Billing.Payment.Open" {
			statuses = append(statuses, op.Status)
		}
	}
	if len(statuses) != 2 || statuses[0] != "success" || statuses[1] != string(domainagg.CodeConflict) {
		t.Fatalf("Open statuses: got=%v", statuses)
	}
	if len(f.hooks.Conflicts) != 1 || f.hooks.Conflicts[0] != "Billing.Payment.Open" {
		t.Fatalf("conflicts: got=%v", f.hooks.Conflicts)
	}
}

func TestObservabilityHooksExportAggregateMetrics(t *testing.T) {
	f := newFixture(t)
	m := observability.NewMetrics()
	f.base.Hooks = NewObservabilityHooks(m, f.base.Log)

	if _, err := f.payment().ResolveSuccess(f.ctx, domainagg.ResolveSuccessInput{PaymentID: uuid.New(), ExternalPaymentID: "P1"}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("ResolveSuccess unknown: want not_found got=%v", err)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	want := `academy_aggregate_operations_total{operation="Billing.Payment.ResolveSuccess",status="not_found"} 1`
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("missing %q in:\n%s", want, buf.String())
	}
	if opDomain("Billing.Payment.Open") != "Billing" || opDomain("plain") != "plain" {
		t.Fatalf("opDomain")
	}
}

func TestAggregatesDeclareValidContracts(t *testing.T) {
	f := newFixture(t)
	if err := domainagg.ValidateContracts(f.enrollment(), f.payment(), f.attempt(), f.certification()); err != nil {
		t.Fatalf("ValidateContracts: %v", err)
	}
}

func TestGormTxRunnerBoundsWritesWithoutDeadline(t *testing.T) {
	f := newFixture(t)
	runner := NewGormTxRunner(f.db, WithWriteTimeout(time.Second))

	var deadline time.Time
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		if dbc.Tx == nil {
			t.Fatalf("InTx: want transaction handle")
		}
		deadline, _ = dbc.Ctx.Deadline()
		return nil
	})
	if err != nil || deadline.IsZero() {
		t.Fatalf("InTx: want deadline got=%v err=%v", deadline, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := ctx.Deadline()
	_ = runner.InTx(ctx, func(dbc dbctx.Context) error {
		deadline, _ = dbc.Ctx.Deadline()
		return nil
	})
	if !deadline.Equal(want) {
		t.Fatalf("caller deadline overridden: want=%v got=%v", want, deadline)
	}

	if err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil }); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("nil db: want internal got=%v", err)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

// spyHooks is safe for the concurrent scenarios in this package.
type spyHooks struct {
	mu         sync.Mutex
	operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.operations = append(h.operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

func (h *spyHooks) ops() []spyOperation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]spyOperation(nil), h.operations...)
}
