package util

import (
	"testing"
	"time"
)

func TestParseEpochMillis(t *testing.T) {
	if ms, ok := ParseEpochMillis("1700000000123"); !ok || ms != 1700000000123 {
		t.Fatalf("unexpected ms %d ok=%v", ms, ok)
	}
	ms, ok := ParseEpochMillis("2024-10-10T10:10:10.500Z")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 10, 10, 10, 500_000_000, time.UTC).UnixMilli()
	if ms != want {
		t.Fatalf("got %d want %d", ms, want)
	}
	if _, ok := ParseEpochMillis("yesterday"); ok {
		t.Fatalf("expected failure")
	}
}

func TestBucketStart(t *testing.T) {
	if got := BucketStart(3_599_999, time.Hour); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := BucketStart(3_600_000, time.Hour); got != 3_600_000 {
		t.Fatalf("got %d", got)
	}
	if got := BucketStart(-1, time.Hour); got != -3_600_000 {
		t.Fatalf("got %d", got)
	}
}
