package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/httpx"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

const (
	retryWait    = 300 * time.Millisecond
	retryMaxWait = 3 * time.Second
)

// GatewayError is a well-formed gateway response that reports a failure.
// Transport problems and non-2xx statuses surface as httpx errors instead.
type GatewayError struct {
	Method  billing.Method
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request rejected"
	}
	return fmt.Sprintf("%s: %s (code %s)", e.Method, msg, e.Code)
}

type transport struct {
	method billing.Method
	log    *logger.Logger
	http   *resty.Client
}

func newTransport(log *logger.Logger, method billing.Method, pc ProviderConfig, cfg Config) *transport {
	cfg = cfg.withDefaults()
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(pc.BaseURL), "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			return httpx.RetryAfter(resp, retryWait, retryMaxWait), nil
		}).
		AddRetryCondition(httpx.RetryCondition).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if log == nil {
		log = logger.NewNop()
	}
	return &transport{
		method: method,
		log:    log.With("provider", string(method)),
		http:   client,
	}
}

// do runs one gateway call inside a span and records its latency.
func (t *transport) do(ctx context.Context, call string, build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := observability.Tracer().Start(ctx, "payments."+call, trace.WithAttributes(
		attribute.String("payment.method", string(t.method)),
	))
	defer span.End()

	start := time.Now()
	resp, err := build(t.http.R().SetContext(ctx))
	err = httpx.CheckResponse(resp, err)
	t.finish(span, call, start, resp, err)
	return resp, err
}

func (t *transport) finish(span trace.Span, call string, start time.Time, resp *resty.Response, err error) {
	status := "ok"
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	}
	if err != nil {
		status = "error"
		var ctxErr bool
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = "timeout"
			ctxErr = true
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.log.Warn("gateway call failed",
			"call", call,
			"timeout", ctxErr,
			"retryable", httpx.IsRetryableError(err),
			"error", err,
		)
	}
	observability.Current().ObserveProviderCall(string(t.method), call, status, time.Since(start))
}

func (t *transport) rejected(call string, gerr *GatewayError) error {
	t.log.Warn("gateway rejected request", "call", call, "code", gerr.Code, "message", gerr.Message)
	return gerr
}

// majorUnits renders minor units as a decimal string ("150000.00").
func majorUnits(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
