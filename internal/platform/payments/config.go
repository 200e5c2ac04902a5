package payments

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/domain/billing"
	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
)

type ProviderConfig struct {
	BaseURL    string
	MerchantID string
	SecretKey  string
	// CheckoutURL is where the student is sent; defaults per provider.
	CheckoutURL string
}

func (c ProviderConfig) complete() bool {
	return strings.TrimSpace(c.BaseURL) != "" &&
		strings.TrimSpace(c.MerchantID) != "" &&
		strings.TrimSpace(c.SecretKey) != ""
}

type Config struct {
	Mode       Mode
	Timeout    time.Duration
	MaxRetries int
	ReturnURL  string

	Click ProviderConfig
	Payme ProviderConfig
	Uzum  ProviderConfig
}

func ConfigFromEnv() Config {
	mode := Mode(strings.ToLower(envutil.String("PAYMENTS_MODE", string(ModeSandbox))))
	if mode != ModeLive {
		mode = ModeSandbox
	}
	return Config{
		Mode:       mode,
		Timeout:    envutil.Duration("PAYMENTS_TIMEOUT", 10*time.Second),
		MaxRetries: envutil.Int("PAYMENTS_MAX_RETRIES", 2),
		ReturnURL:  envutil.String("PAYMENTS_RETURN_URL", ""),
		Click: ProviderConfig{
			BaseURL:     envutil.String("CLICK_BASE_URL", "https://api.click.uz"),
			MerchantID:  envutil.String("CLICK_MERCHANT_ID", ""),
			SecretKey:   envutil.String("CLICK_SECRET_KEY", ""),
			CheckoutURL: envutil.String("CLICK_CHECKOUT_URL", "https://my.click.uz/services/pay"),
		},
		Payme: ProviderConfig{
			BaseURL:     envutil.String("PAYME_BASE_URL", "https://checkout.paycom.uz/api"),
			MerchantID:  envutil.String("PAYME_MERCHANT_ID", ""),
			SecretKey:   envutil.String("PAYME_SECRET_KEY", ""),
			CheckoutURL: envutil.String("PAYME_CHECKOUT_URL", "https://checkout.paycom.uz"),
		},
		Uzum: ProviderConfig{
			BaseURL:    envutil.String("UZUM_BASE_URL", "https://checkout.uzumbank.uz"),
			MerchantID: envutil.String("UZUM_TERMINAL_ID", ""),
			SecretKey:  envutil.String("UZUM_API_KEY", ""),
		},
	}
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeSandbox
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Validate reports a configuration error when live mode lacks credentials.
func (c Config) Validate() error {
	if c.Mode != ModeLive {
		return nil
	}
	var missing []string
	if !c.Click.complete() {
		missing = append(missing, string(billing.MethodClick))
	}
	if !c.Payme.complete() {
		missing = append(missing, string(billing.MethodPayme))
	}
	if !c.Uzum.complete() {
		missing = append(missing, string(billing.MethodUzum))
	}
	if len(missing) > 0 {
		return domainagg.Configuration("Payments.Config", fmt.Sprintf("missing live credentials for: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// NewRegistry builds one provider per supported method. Live mode with
// incomplete credentials fails here so the process never boots half-wired.
func NewRegistry(log *logger.Logger, cfg Config) (Registry, error) {
	if log == nil {
		log = logger.NewNop()
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.With("component", "Payments", "mode", string(cfg.Mode))

	if cfg.Mode == ModeSandbox {
		return Registry{
			billing.MethodClick: NewSandbox(billing.MethodClick, sandboxHosts[billing.MethodClick]),
			billing.MethodPayme: NewSandbox(billing.MethodPayme, sandboxHosts[billing.MethodPayme]),
			billing.MethodUzum:  NewSandbox(billing.MethodUzum, sandboxHosts[billing.MethodUzum]),
		}, nil
	}
	return Registry{
		billing.MethodClick: NewClick(log, cfg.Click, cfg),
		billing.MethodPayme: NewPayme(log, cfg.Payme, cfg),
		billing.MethodUzum:  NewUzum(log, cfg.Uzum, cfg),
	}, nil
}

var sandboxHosts = map[billing.Method]string{
	billing.MethodClick: "click.uz",
	billing.MethodPayme: "payme.uz",
	billing.MethodUzum:  "uzum.uz",
}

func joinURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

func withQuery(raw string, q url.Values) string {
	if len(q) == 0 {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + q.Encode()
}
