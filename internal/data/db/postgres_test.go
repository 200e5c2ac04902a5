package db

import (
	"strings"
	"testing"
)

func TestPostgresConfigDSNEscapesCredentials(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "academy",
		Password: "p@ss:word/1",
		Name:     "academy",
		SSLMode:  "require",
	}
	dsn := cfg.DSN()
	if !strings.HasPrefix(dsn, "postgres://academy:") {
		t.Fatalf("unexpected prefix: %s", dsn)
	}
	if strings.Contains(dsn, "p@ss:word/1") {
		t.Fatalf("password not escaped: %s", dsn)
	}
	if !strings.HasSuffix(dsn, "@db.internal:5433/academy?sslmode=require") {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestPostgresConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_NAME", "")
	cfg := PostgresConfigFromEnv()
	if cfg.Host != "localhost" || cfg.Name != "academy" || cfg.SSLMode != "disable" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxOpenConns != 25 {
		t.Fatalf("MaxOpenConns: want=25 got=%d", cfg.MaxOpenConns)
	}
}
