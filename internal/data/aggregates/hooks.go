package aggregates

import (
	"strings"
	"time"

	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// Hooks receives one ObserveOperation per aggregate write, plus a conflict
// or retry signal when the write ended that way. Op names look like
// "Billing.Payment.ResolveSuccess".
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricHooks struct {
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewObservabilityHooks records aggregate writes as metrics. Conflicts are
// logged at debug (double submits and racing payment callbacks end there);
// retryable failures at warn since they point at lock contention.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	if metrics == nil && log == nil {
		return noopHooks{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &metricHooks{metrics: metrics, log: log.With("component", "AggregateHooks")}
}

func (h *metricHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h *metricHooks) IncConflict(name string) {
	name = strings.TrimSpace(name)
	h.metrics.IncAggregateConflict(name)
	h.log.Debug("aggregate conflict", "op", name, "domain", opDomain(name))
}

func (h *metricHooks) IncRetry(name string) {
	name = strings.TrimSpace(name)
	h.metrics.IncAggregateRetry(name)
	h.log.Warn("aggregate write retryable", "op", name, "domain", opDomain(name))
}

// opDomain is the leading segment of an op name ("Billing" for
// "Billing.Payment.Open").
func opDomain(op string) string {
	if i := strings.IndexByte(op, '.'); i > 0 {
		return op[:i]
	}
	return op
}
