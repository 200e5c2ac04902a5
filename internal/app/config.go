package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/shamsacademy/academy-backend/internal/data/db"
	"github.com/shamsacademy/academy-backend/internal/observability"
	"github.com/shamsacademy/academy-backend/internal/platform/envutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/openai"
	"github.com/shamsacademy/academy-backend/internal/platform/payments"
	"github.com/shamsacademy/academy-backend/internal/services"
)

const (
	defaultServiceName = "academy-api"
	shutdownGrace      = 10 * time.Second
)

type Config struct {
	Port           string
	ServiceName    string
	AllowedOrigins []string
	AutoMigrate    bool
	WriteTimeout   time.Duration

	Postgres db.PostgresConfig
	Auth     services.AuthConfig
	Otel     observability.OtelConfig

	Payments        payments.Config
	ProviderTimeout time.Duration
	WebhookSecret   string

	OpenAI openai.Config
}

func LoadConfig(log *logger.Logger) Config {
	serviceName := envutil.String("SERVICE_NAME", defaultServiceName)
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		ServiceName:    serviceName,
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		AutoMigrate:    envutil.Bool("DB_AUTO_MIGRATE", true),
		WriteTimeout:   envutil.Duration("DB_WRITE_TIMEOUT", 10*time.Second),
		Postgres:       db.PostgresConfigFromEnv(),
		Auth: services.AuthConfig{
			Secret:    envutil.String("JWT_SECRET", ""),
			Issuer:    envutil.String("JWT_ISSUER", ""),
			Audience:  envutil.String("JWT_AUDIENCE", ""),
			Leeway:    envutil.Duration("JWT_LEEWAY", 30*time.Second),
			AccessTTL: envutil.Duration("JWT_ACCESS_TTL", time.Hour),
		},
		Otel:            observability.OtelConfigFromEnv(serviceName),
		Payments:        payments.ConfigFromEnv(),
		ProviderTimeout: envutil.Duration("PAYMENTS_PROVIDER_TIMEOUT", services.DefaultProviderTimeout),
		WebhookSecret:   envutil.String("PAYMENTS_WEBHOOK_SECRET", ""),
		OpenAI:          openai.ConfigFromEnv(),
	}

	if cfg.Auth.Secret == "" {
		log.Warn("JWT_SECRET is not set; every authenticated request will be rejected")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set; assistant endpoints will report a configuration error")
	}
	if cfg.WebhookSecret == "" {
		log.Warn("PAYMENTS_WEBHOOK_SECRET is not set; webhook signatures are not checked")
	}
	return cfg
}

// Validate fails boot on settings that cannot work at runtime.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is empty")
	}
	if err := c.Payments.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Config) Address() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	return ":" + port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
