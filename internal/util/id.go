// Package util contains small internal helpers shared across packages.
package util

import "github.com/google/uuid"

// NewID returns a random unique identifier string.
func NewID() string { return uuid.NewString() }

// Truncate shortens s to at most n bytes, appending an ellipsis marker when
// content was cut. Used to keep response body snippets in errors bounded.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
