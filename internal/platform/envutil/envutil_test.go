package envutil

import (
	"os"
	"testing"
	"time"
)

func TestDurationAcceptsSecondsAndGoSyntax(t *testing.T) {
	t.Setenv("X_TIMEOUT", "15")
	if got := Duration("X_TIMEOUT", time.Second); got != 15*time.Second {
		t.Fatalf("seconds: want=15s got=%s", got)
	}
	t.Setenv("X_TIMEOUT", "250ms")
	if got := Duration("X_TIMEOUT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("go syntax: want=250ms got=%s", got)
	}
	t.Setenv("X_TIMEOUT", "soon")
	if got := Duration("X_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("fallback: want=1s got=%s", got)
	}
}

func TestBoolAndIntFallbacks(t *testing.T) {
	t.Setenv("X_FLAG", "off")
	if Bool("X_FLAG", true) {
		t.Fatalf("want false for off")
	}
	t.Setenv("X_FLAG", "maybe")
	if !Bool("X_FLAG", true) {
		t.Fatalf("want default for unparseable value")
	}
	t.Setenv("X_INT", "abc")
	if got := Int("X_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
	t.Setenv("X_STR", "  ")
	if got := String("X_STR", "def"); got != "def" {
		t.Fatalf("String fallback: want=def got=%q", got)
	}
}

func TestLoadDotEnvKeepsProcessValues(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/.env"
	if err := os.WriteFile(path, []byte("DOTENV_A=from-file\nDOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DOTENV_A", "from-env")
	t.Setenv("DOTENV_B", "")
	os.Unsetenv("DOTENV_B")

	if err := LoadDotEnv(path, dir+"/missing.env"); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := String("DOTENV_A", ""); got != "from-env" {
		t.Fatalf("DOTENV_A: want=from-env got=%q", got)
	}
	if got := String("DOTENV_B", ""); got != "from-file" {
		t.Fatalf("DOTENV_B: want=from-file got=%q", got)
	}
}
