package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeHexID lowercases an object id and ensures the 0x prefix.
func NormalizeHexID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, "0x") {
		id = "0x" + id
	}
	return id
}

// ShortID trims long hex ids for log output.
func ShortID(id string) string {
	if len(id) <= 18 {
		return id
	}
	return id[:18] + "..."
}
