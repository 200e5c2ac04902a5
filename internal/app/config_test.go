package app

import (
	"testing"
	"time"

	"github.com/shamsacademy/academy-backend/internal/data/repos/testutil"
	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
	"github.com/shamsacademy/academy-backend/internal/platform/payments"
)

func TestLoadConfigReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://academy.example, ,https://admin.academy.example")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_LEEWAY", "5")
	t.Setenv("PAYMENTS_PROVIDER_TIMEOUT", "20s")
	t.Setenv("PAYMENTS_MODE", "sandbox")
	t.Setenv("DB_WRITE_TIMEOUT", "3s")

	cfg := LoadConfig(logger.NewNop())
	if cfg.Address() != ":9090" {
		t.Fatalf("address: want=:9090 got=%s", cfg.Address())
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.academy.example" {
		t.Fatalf("origins: got=%v", cfg.AllowedOrigins)
	}
	if cfg.Auth.Secret != "s3cret" || cfg.Auth.Leeway != 5*time.Second {
		t.Fatalf("auth: got=%+v", cfg.Auth)
	}
	if cfg.ProviderTimeout != 20*time.Second {
		t.Fatalf("provider timeout: want=20s got=%s", cfg.ProviderTimeout)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("write timeout: want=3s got=%s", cfg.WriteTimeout)
	}
	if cfg.Payments.Mode != payments.ModeSandbox {
		t.Fatalf("payments mode: got=%s", cfg.Payments.Mode)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsLiveModeWithoutCredentials(t *testing.T) {
	t.Setenv("PAYMENTS_MODE", "live")
	t.Setenv("CLICK_MERCHANT_ID", "m-1")
	t.Setenv("CLICK_SECRET_KEY", "k-1")

	cfg := LoadConfig(logger.NewNop())
	err := cfg.Validate()
	if !domainagg.IsCode(err, domainagg.CodeConfiguration) {
		t.Fatalf("Validate: want configuration error got=%v", err)
	}
}

func TestWiredAggregatesPassContractCheck(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	aggs := wireAggregates(db, log, Config{WriteTimeout: time.Second}, wireRepos(db, log), nil)
	if err := aggs.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	aggs.Certification = nil
	if err := aggs.Validate(); !domainagg.IsCode(err, domainagg.CodeConfiguration) {
		t.Fatalf("missing aggregate: want configuration got=%v", err)
	}
}
