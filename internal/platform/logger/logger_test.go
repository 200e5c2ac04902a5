package logger

import "testing"

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	cases := map[string]interface{}{
		"authorization": "Bearer abc",
		"secret_key":    "s3cr3t",
		"card_number":   "8600123412341234",
		"x-signature":   "deadbeef",
	}
	for key, val := range cases {
		if got := sanitizeValue(key, val); got != "[REDACTED]" {
			t.Fatalf("sanitizeValue(%q): want=[REDACTED] got=%v", key, got)
		}
	}
}

func TestSanitizeValueHashesIdentifiers(t *testing.T) {
	got, ok := sanitizeValue("student_id", "5b0c2c6e-1f55-4d6b-8d3d-3f8f5a0b9a11").(string)
	if !ok {
		t.Fatalf("want string result")
	}
	if len(got) != len("hash:")+12 || got[:5] != "hash:" {
		t.Fatalf("unexpected hash format: %q", got)
	}
	again := sanitizeValue("student_id", "5b0c2c6e-1f55-4d6b-8d3d-3f8f5a0b9a11")
	if again != got {
		t.Fatalf("hash not stable: %v vs %v", again, got)
	}
}

func TestSanitizeValueRedactsNestedAndJWTLikeStrings(t *testing.T) {
	in := map[string]interface{}{
		"method": "payme",
		"api_key": "k",
	}
	out, ok := sanitizeValue("payload", in).(map[string]interface{})
	if !ok {
		t.Fatalf("want map result")
	}
	if out["method"] != "payme" || out["api_key"] != "[REDACTED]" {
		t.Fatalf("unexpected nested sanitize: %#v", out)
	}
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	if got := sanitizeValue("note", jwtish); got != "[REDACTED]" {
		t.Fatalf("jwt-like string: want=[REDACTED] got=%v", got)
	}
}

func TestSanitizeKVsKeepsOddTrailingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"method", "click", "dangling"})
	if redactionOn() && len(out) != 3 {
		t.Fatalf("len: want=3 got=%d", len(out))
	}
}
