package payments

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// Click merchant API: invoices are created per transaction and looked up by
// merchant_trans_id.
type Click struct {
	cfg       ProviderConfig
	returnURL string
	t         *transport
	now       func() time.Time
}

const clickPaymentConfirmed = 2

func NewClick(log *logger.Logger, pc ProviderConfig, cfg Config) *Click {
	return &Click{
		cfg:       pc,
		returnURL: cfg.ReturnURL,
		t:         newTransport(log, billing.MethodClick, pc, cfg),
		now:       time.Now,
	}
}

func (c *Click) Method() billing.Method { return billing.MethodClick }

type clickInvoiceRequest struct {
	ServiceID       string `json:"service_id"`
	Amount          string `json:"amount"`
	MerchantTransID string `json:"merchant_trans_id"`
	CardType        string `json:"card_type,omitempty"`
}

type clickInvoiceResponse struct {
	ErrorCode int    `json:"error_code"`
	ErrorNote string `json:"error_note"`
	InvoiceID int64  `json:"invoice_id"`
}

type clickStatusResponse struct {
	ErrorCode     int    `json:"error_code"`
	ErrorNote     string `json:"error_note"`
	PaymentID     int64  `json:"payment_id"`
	PaymentStatus int    `json:"payment_status"`
}

// authHeader is "<merchant>:<sha1(timestamp+secret)>:<timestamp>".
func (c *Click) authHeader() string {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sum := sha1.Sum([]byte(ts + c.cfg.SecretKey))
	return c.cfg.MerchantID + ":" + hex.EncodeToString(sum[:]) + ":" + ts
}

func (c *Click) CreatePayment(ctx context.Context, req CreateRequest) (Reference, error) {
	var out clickInvoiceResponse
	resp, err := c.t.do(ctx, "create", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("Auth", c.authHeader()).
			SetBody(clickInvoiceRequest{
				ServiceID:       c.cfg.MerchantID,
				Amount:          majorUnits(req.AmountMinor),
				MerchantTransID: req.TransactionID,
				CardType:        req.CardType,
			}).
			SetResult(&out).
			Post("/v2/merchant/invoice/create")
	})
	if err != nil {
		return Reference{}, err
	}
	if out.ErrorCode != 0 {
		return Reference{}, c.t.rejected("create", &GatewayError{
			Method:  billing.MethodClick,
			Code:    strconv.Itoa(out.ErrorCode),
			Message: out.ErrorNote,
		})
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = c.returnURL
	}
	q := url.Values{}
	q.Set("service_id", c.cfg.MerchantID)
	q.Set("merchant_id", c.cfg.MerchantID)
	q.Set("amount", majorUnits(req.AmountMinor))
	q.Set("transaction_param", req.TransactionID)
	if returnURL != "" {
		q.Set("return_url", returnURL)
	}
	ref := Reference{
		RedirectURL: withQuery(c.cfg.CheckoutURL, q),
		Raw:         resp.Body(),
	}
	if out.InvoiceID != 0 {
		ref.PaymentID = strconv.FormatInt(out.InvoiceID, 10)
	}
	return ref, nil
}

func (c *Click) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	var out clickStatusResponse
	path := fmt.Sprintf("/v2/merchant/payment/status_by_mti/%s/%s",
		url.PathEscape(c.cfg.MerchantID), url.PathEscape(transactionID))
	_, err := c.t.do(ctx, "verify", func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Auth", c.authHeader()).SetResult(&out).Get(path)
	})
	if err != nil {
		return false, err
	}
	if out.ErrorCode != 0 {
		return false, c.t.rejected("verify", &GatewayError{
			Method:  billing.MethodClick,
			Code:    strconv.Itoa(out.ErrorCode),
			Message: out.ErrorNote,
		})
	}
	return out.PaymentStatus == clickPaymentConfirmed, nil
}
