package observability

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	paymentTransitions *CounterVec
	providerCalls      *CounterVec
	providerLatency    *HistogramVec

	attemptsScored     *CounterVec
	attemptsExpired    *CounterVec
	credentialsIssued  *CounterVec
	assistantRequests  *CounterVec
	assistantCacheHits *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init returns the process-wide metrics registry, or nil when metrics are
// disabled. All Metrics methods are nil-safe.
func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("academy_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("academy_api_request_duration_seconds", "API request latency.", []string{"method", "route"}, latency),
		apiInflight: NewGauge("academy_api_inflight_requests", "In-flight API requests."),

		aggregateOps:       NewCounterVec("academy_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"operation", "status"}),
		aggregateLatency:   NewHistogramVec("academy_aggregate_operation_duration_seconds", "Aggregate write latency.", []string{"operation"}, latency),
		aggregateConflicts: NewCounterVec("academy_aggregate_conflicts_total", "Aggregate conflicts by operation.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("academy_aggregate_retryable_total", "Aggregate retryable failures by operation.", []string{"operation"}),

		paymentTransitions: NewCounterVec("academy_payment_transitions_total", "Payment transitions by method/to.", []string{"method", "to"}),
		providerCalls:      NewCounterVec("academy_payment_provider_calls_total", "Provider calls by method/call/status.", []string{"method", "call", "status"}),
		providerLatency:    NewHistogramVec("academy_payment_provider_duration_seconds", "Provider call latency.", []string{"method", "call"}, latency),

		attemptsScored:     NewCounterVec("academy_attempts_scored_total", "Scored attempts by outcome.", []string{"outcome"}),
		attemptsExpired:    NewCounterVec("academy_attempts_expired_total", "Attempts moved to timeout.", []string{"source"}),
		credentialsIssued:  NewCounterVec("academy_credentials_issued_total", "Certificates and achievements issued by kind.", []string{"kind"}),
		assistantRequests:  NewCounterVec("academy_assistant_requests_total", "Assistant requests by endpoint/status.", []string{"endpoint", "status"}),
		assistantCacheHits: NewCounterVec("academy_assistant_cache_total", "Assistant cache lookups by endpoint/result.", []string{"endpoint", "result"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.paymentTransitions, m.providerCalls, m.providerLatency,
		m.attemptsScored, m.attemptsExpired, m.credentialsIssued,
		m.assistantRequests, m.assistantCacheHits,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m != nil {
		m.aggregateConflicts.Inc(op)
	}
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m != nil {
		m.aggregateRetries.Inc(op)
	}
}

func (m *Metrics) IncPaymentTransition(method, to string) {
	if m != nil {
		m.paymentTransitions.Inc(method, to)
	}
}

func (m *Metrics) ObserveProviderCall(method, call, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.Inc(method, call, status)
	m.providerLatency.Observe(dur.Seconds(), method, call)
}

func (m *Metrics) IncAttemptScored(outcome string) {
	if m != nil {
		m.attemptsScored.Inc(outcome)
	}
}

func (m *Metrics) AddAttemptsExpired(source string, n int) {
	if m != nil && n > 0 {
		m.attemptsExpired.Add(float64(n), source)
	}
}

func (m *Metrics) IncCredentialIssued(kind string) {
	if m != nil {
		m.credentialsIssued.Inc(kind)
	}
}

func (m *Metrics) IncAssistantRequest(endpoint, status string) {
	if m != nil {
		m.assistantRequests.Inc(endpoint, status)
	}
}

func (m *Metrics) IncAssistantCache(endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.assistantCacheHits.Inc(endpoint, result)
}
