package interaction

import (
	"testing"
	"time"
)

func TestWeights(t *testing.T) {
	tests := []struct {
		typ  Type
		want float64
	}{
		{Viewed, 1},
		{Starred, 3},
		{Forked, 5},
		{UsedAsTemplate, 4},
		{Type("liked"), 0},
	}
	for _, tt := range tests {
		if got := tt.typ.Weight(); got != tt.want {
			t.Errorf("%s.Weight() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestCounter(t *testing.T) {
	tests := []struct {
		typ  Type
		want Counter
	}{
		{Viewed, CounterViews},
		{Starred, CounterNone},
		{Forked, CounterForks},
		{UsedAsTemplate, CounterUses},
	}
	for _, tt := range tests {
		if got := tt.typ.Counter(); got != tt.want {
			t.Errorf("%s.Counter() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range Types {
		got, err := ParseType(string(typ))
		if err != nil || got != typ {
			t.Errorf("ParseType(%q) = %q, %v", typ, got, err)
		}
	}
	if _, err := ParseType("VIEWED"); err == nil {
		t.Error("expected error for wrong case")
	}
	if _, err := ParseType(""); err == nil {
		t.Error("expected error for empty type")
	}
}

func TestNew(t *testing.T) {
	at := time.Now()
	if _, err := New("", "p", Viewed, at); err == nil {
		t.Error("expected error for empty user")
	}
	if _, err := New("u", "", Viewed, at); err == nil {
		t.Error("expected error for empty prompt")
	}
	if _, err := New("u", "p", "shared", at); err == nil {
		t.Error("expected error for unknown type")
	}
	i, err := New("u", "p", Forked, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i.UserID != "u" || i.PromptID != "p" || i.Type != Forked || !i.At.Equal(at) {
		t.Errorf("unexpected interaction: %+v", i)
	}
}
