package util

import (
	"strconv"
	"time"
)

// ParseEpochMillis accepts an epoch-ms integer string or an RFC3339 timestamp.
// Sui GraphQL returns either depending on the endpoint version.
func ParseEpochMillis(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

// BucketStart floors an epoch-ms timestamp to the start of its interval bucket.
func BucketStart(ms int64, interval time.Duration) int64 {
	step := interval.Milliseconds()
	if step <= 0 {
		return ms
	}
	b := (ms / step) * step
	if ms < 0 && ms%step != 0 {
		b -= step
	}
	return b
}
