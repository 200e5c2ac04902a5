// Package payments talks to the Uzbek payment gateways (Click, Payme, Uzum).
//
// Each gateway sits behind Provider. The payment service opens a checkout with
// CreatePayment after the pending row is committed, and later asks
// VerifyPayment when the student polls instead of waiting for a webhook.
package payments

import (
	"context"
	"fmt"
	"sort"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
)

type CreateRequest struct {
	// TransactionID is our idempotency key; gateways echo it back as the
	// merchant order reference.
	TransactionID string
	AmountMinor   int64
	Currency      string
	CardType      string
	Description   string
	ReturnURL     string
}

// Reference is what a gateway hands back for a newly opened checkout.
type Reference struct {
	PaymentID   string
	RedirectURL string
	Raw         []byte
}

type Provider interface {
	Method() billing.Method
	CreatePayment(ctx context.Context, req CreateRequest) (Reference, error)
	VerifyPayment(ctx context.Context, transactionID string) (bool, error)
}

type Registry map[billing.Method]Provider

func (r Registry) Get(method billing.Method) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("payments: no providers registered")
	}
	p, ok := r[method]
	if !ok || p == nil {
		return nil, fmt.Errorf("payments: unsupported method %q", method)
	}
	return p, nil
}

func (r Registry) Methods() []billing.Method {
	out := make([]billing.Method, 0, len(r))
	for m := range r {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
