package clock

import (
	"testing"
	"time"
)

func TestSystemNowUTC(t *testing.T) {
	t.Parallel()

	clk := NewSystem()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

func TestSystemNowMonotonic(t *testing.T) {
	t.Parallel()

	clk := NewSystem()
	first := clk.Now()
	second := clk.Now()
	if second.Before(first) {
		t.Fatalf("expected second call %v to be >= first %v", second, first)
	}
}
