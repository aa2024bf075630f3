// Package strings provides small slice-cleaning utilities used when
// attaching caller-supplied comments and ACL grants to facts.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// Dedupe removes duplicate values from a slice of any comparable type,
// preserving first-occurrence order. Used to collapse repeated ACL subject
// grants before they are attached to a fact.
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return values
	}

	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}

	return result
}
