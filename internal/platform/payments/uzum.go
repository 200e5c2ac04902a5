package payments

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// ISO 4217 numeric code for UZS.
const uzumCurrencyUZS = 860

type Uzum struct {
	cfg       ProviderConfig
	returnURL string
	t         *transport
}

func NewUzum(log *logger.Logger, pc ProviderConfig, cfg Config) *Uzum {
	return &Uzum{
		cfg:       pc,
		returnURL: cfg.ReturnURL,
		t:         newTransport(log, billing.MethodUzum, pc, cfg),
	}
}

func (u *Uzum) Method() billing.Method { return billing.MethodUzum }

type uzumRegisterRequest struct {
	Amount         int64  `json:"amount"`
	Currency       int    `json:"currency"`
	OrderNumber    string `json:"orderNumber"`
	PaymentDetails string `json:"paymentDetails,omitempty"`
	ViewType       string `json:"viewType"`
	SuccessURL     string `json:"successUrl,omitempty"`
	FailureURL     string `json:"failureUrl,omitempty"`
}

type uzumEnvelope[T any] struct {
	ErrorCode int    `json:"errorCode"`
	Message   string `json:"message"`
	Result    *T     `json:"result"`
}

type uzumRegisterResult struct {
	OrderID            string `json:"orderId"`
	PaymentRedirectURL string `json:"paymentRedirectUrl"`
}

type uzumStatusResult struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

func (u *Uzum) headers(r *resty.Request) *resty.Request {
	return r.
		SetHeader("X-Terminal-Id", u.cfg.MerchantID).
		SetHeader("X-API-Key", u.cfg.SecretKey).
		SetHeader("Content-Language", "ru-RU")
}

func (u *Uzum) CreatePayment(ctx context.Context, req CreateRequest) (Reference, error) {
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = u.returnURL
	}
	var out uzumEnvelope[uzumRegisterResult]
	resp, err := u.t.do(ctx, "create", func(r *resty.Request) (*resty.Response, error) {
		return u.headers(r).
			SetBody(uzumRegisterRequest{
				Amount:         req.AmountMinor,
				Currency:       uzumCurrencyUZS,
				OrderNumber:    req.TransactionID,
				PaymentDetails: req.Description,
				ViewType:       "REDIRECT",
				SuccessURL:     returnURL,
				FailureURL:     returnURL,
			}).
			SetResult(&out).
			Post("/api/v1/payment/register")
	})
	if err != nil {
		return Reference{}, err
	}
	if out.ErrorCode != 0 || out.Result == nil || out.Result.PaymentRedirectURL == "" {
		return Reference{}, u.t.rejected("create", &GatewayError{
			Method:  billing.MethodUzum,
			Code:    strconv.Itoa(out.ErrorCode),
			Message: out.Message,
		})
	}
	return Reference{
		PaymentID:   out.Result.OrderID,
		RedirectURL: out.Result.PaymentRedirectURL,
		Raw:         resp.Body(),
	}, nil
}

func (u *Uzum) VerifyPayment(ctx context.Context, transactionID string) (bool, error) {
	var out uzumEnvelope[uzumStatusResult]
	_, err := u.t.do(ctx, "verify", func(r *resty.Request) (*resty.Response, error) {
		return u.headers(r).
			SetBody(map[string]string{"orderNumber": transactionID}).
			SetResult(&out).
			Post("/api/v1/payment/getOrderStatus")
	})
	if err != nil {
		return false, err
	}
	if out.ErrorCode != 0 || out.Result == nil {
		return false, u.t.rejected("verify", &GatewayError{
			Method:  billing.MethodUzum,
			Code:    strconv.Itoa(out.ErrorCode),
			Message: out.Message,
		})
	}
	return strings.EqualFold(out.Result.Status, "COMPLETED"), nil
}
