package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	first := NewID("ht")
	second := NewID("ht")
	if !strings.HasPrefix(first, "ht_") || len(first) != len("ht_")+32 {
		t.Fatalf("unexpected id shape %q", first)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
	if bare := NewID(""); len(bare) != 32 || strings.Contains(bare, "-") {
		t.Fatalf("unexpected bare id %q", bare)
	}
}

func TestNewRequestIDIsSortable(t *testing.T) {
	previous := NewRequestID()
	for i := 0; i < 100; i++ {
		next := NewRequestID()
		if next <= previous {
			t.Fatalf("expected %q > %q", next, previous)
		}
		previous = next
	}
}
