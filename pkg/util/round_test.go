package util

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int32
		want   float64
	}{
		{1.005, 2, 1.01},
		{-2.345, 2, -2.35},
		{12.34567, 4, 12.3457},
		{100, 2, 100},
		{0, 2, 0},
	}
	for _, c := range cases {
		if got := Round(c.in, c.places); got != c.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
	if !math.IsInf(Round(math.Inf(1), 2), 1) {
		t.Fatalf("expected +Inf passthrough")
	}
}

func TestNormalizeHexID(t *testing.T) {
	if got := NormalizeHexID("ABC"); got != "0xabc" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeHexID("0xabc"); got != "0xabc" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeHexID(" "); got != "" {
		t.Fatalf("got %q", got)
	}
}
