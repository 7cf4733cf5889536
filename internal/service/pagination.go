package service

import "strconv"

// Listing limits.
const (
	DefaultPostLimit    = 10
	MaxPostLimit        = 50
	DefaultCommentLimit = 20
	MaxCommentLimit     = 100
)

// ParseLimit reads a ?limit value. Missing or non-numeric input yields def;
// numbers are clamped to [1, max].
func ParseLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return ClampLimit(n, max)
}

// ClampLimit bounds n to [1, max].
func ClampLimit(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
