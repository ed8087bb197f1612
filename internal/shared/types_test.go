package shared

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	id := NewID("rec_")
	if !strings.HasPrefix(id, "rec_") {
		t.Errorf("expected rec_ prefix, got %s", id)
	}
	if len(id) != len("rec_")+32 {
		t.Errorf("expected 32 hex chars after prefix, got length %d", len(id))
	}
	if id == NewID("rec_") {
		t.Error("two generated ids should differ")
	}
}

func TestSignalType_Valid(t *testing.T) {
	tests := []struct {
		signal SignalType
		want   bool
	}{
		{SignalBuy, true},
		{SignalSell, true},
		{SignalHold, true},
		{SignalType("MAYBE"), false},
		{SignalType(""), false},
		{SignalType("buy"), false},
	}

	for _, tt := range tests {
		if got := tt.signal.Valid(); got != tt.want {
			t.Errorf("%q: expected valid=%v, got %v", tt.signal, tt.want, got)
		}
	}
}
