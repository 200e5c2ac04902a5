package payments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// Payme speaks JSON-RPC against the receipts API. Amounts are in tiyin,
// which is the same scale as our minor units.
type Payme struct {
	cfg       ProviderConfig
	returnURL string
	t         *transport
	seq       atomic.Int64
}

const paymeReceiptPaid = 4

func NewPayme(log *logger.Logger, pc ProviderConfig, cfg Config) *Payme {
	return &Payme{
		cfg:       pc,
		returnURL: cfg.ReturnURL,
		t:         newTransport(log, billing.MethodPayme, pc, cfg),
	}
}

func (p *Payme) Method() billing.Method { return billing.MethodPayme }

type paymeRequest struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type paymeAccount struct {
	OrderID string `json:"order_id"`
}

type paymeError struct {
	Code    int             `json:"code"`
	Message json.RawMessage `json:"message"`
}

func (e *paymeError) text() string {
	if e == nil || len(e.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Message, &s); err == nil {
		return s
	}
	// Payme localizes messages as {"ru": "...", "uz": "...", "en": "..."}.
	var loc map[string]string
	if err := json.Unmarshal(e.Message, &loc); err == nil {
		for _, k := range []string{"en", "ru", "uz"} {
			if v := loc[k]; v != "" {
				return v
			}
		}
	}
	return string(e.Message)
}

type paymeReceipt struct {
	ID    string `json:"_id"`
	State int    `json:"state"`
}

type paymeResponse struct {
	Result *struct {
		Receipt paymeReceipt `json:"receipt"`
	} `json:"result"`
	Error *paymeError `json:"error"`
}

func (p *Payme) call(ctx context.Context, call, method string, params any) (*resty.Response, paymeResponse, error) {
	var out paymeResponse
	resp, err := p.t.do(ctx, call, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("X-Auth", p.cfg.MerchantID+":"+p.cfg.SecretKey).
			SetBody(paymeRequest{ID: p.seq.Add(1), Method: method, Params: params}).
			SetResult(&out).
			Post("")
	})
	if err != nil {
		return resp, out, err
	}
	if out.Error != nil {
		return resp, out, p.t.rejected(call, &GatewayError{
			Method:  billing.MethodPayme,
			Code:    strconv.Itoa(out.Error.Code),
			Message: out.Error.text(),
		})
	}
	if out.Result == nil {
		return resp, out, p.t.rejected(call, &GatewayError{
			Method:  billing.MethodPayme,
			Code:    "empty_result",
			Message: "response carried neither result nor error",
		})
	}
	return resp, out, nil
}

func (p *Payme) CreatePayment(ctx context.Context, req CreateRequest) (Reference, error) {
	params := map[string]any{
		"amount":  req.AmountMinor,
		"account": paymeAccount{OrderID: req.TransactionID},
	}
	if req.Description != "" {
		params["description"] = req.Description
	}
	resp, out, err := p.call(ctx, "create", "receipts.create", params)
	if err != nil {
		return Reference{}, err
	}
	return Reference{
		PaymentID:   out.Result.Receipt.ID,
		RedirectURL: p.checkoutURL(req),
		Raw:         resp.Body(),
	}, nil
}

// checkoutURL encodes merchant, order and amount the way the hosted
// checkout expects: base64("m=...;ac.order_id=...;a=...;c=...").
func (p *Payme) checkoutURL(req CreateRequest) string {
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = p.returnURL
	}
	params := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d", p.cfg.MerchantID, req.TransactionID, req.AmountMinor)
	if returnURL != "" {
		params += ";c=" + returnURL
	}
	return joinURL(p.cfg.CheckoutURL, base64.StdEncoding.EncodeToString([]byte(params)))
}

func (p *Payme) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	_, out, err := p.call(ctx, "verify", "receipts.check", map[string]any{
		"account": paymeAccount{OrderID: transactionID},
	})
	if err != nil {
		return false, err
	}
	return out.Result.Receipt.State == paymeReceiptPaid, nil
}
