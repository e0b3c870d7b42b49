package cache

import (
	"fmt"
	"strings"
)

// GenerateKey joins prefix and id with ":".
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// GenerateKeyWithParams appends every param to prefix, ":" separated.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, p := range params {
		fmt.Fprintf(&sb, ":%v", p)
	}
	return sb.String()
}

// BuildPattern matches every key that starts with prefix.
func BuildPattern(prefix string) string {
	return prefix + "*"
}
