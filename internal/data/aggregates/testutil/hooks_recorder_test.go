package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorder_CapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("agg.op", "success", 10*time.Millisecond)
	h.IncConflict("agg.op")
	h.IncRetry("agg.op")

	if len(h.Operations) != 1 {
		t.Fatalf("expected 1 op event, got %d", len(h.Operations))
	}
	if h.Operations[0].Name != "agg.op" || h.Operations[0].Status != "success" {
		t.Fatalf("unexpected op event: %+v", h.Operations[0])
	}
	if len(h.Conflicts) != 1 || h.Conflicts[0] != "agg.op" {
		t.Fatalf("unexpected conflicts: %+v", h.Conflicts)
	}
	if len(h.Retries) != 1 || h.Retries[0] != "agg.op" {
		t.Fatalf("unexpected retries: %+v", h.Retries)
	}
}

func TestHooksRecorder_StatusesFiltersByOperation(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("Billing.Payment.Open", "success", 0)
	h.ObserveOperation("Billing.Payment.Cancel", "conflict", 0)
	h.ObserveOperation("Billing.Payment.Open", "conflict", 0)

	got := h.Statuses("Billing.Payment.Open")
	if len(got) != 2 || got[0] != "success" || got[1] != "conflict" {
		t.Fatalf("statuses: want=[success conflict] got=%v", got)
	}
}
