package enums

import (
	"fmt"
	"slices"
	"strings"
)

// Persisted enum values use underscores; API payloads use hyphens.

func toWire(value string) string {
	return strings.ReplaceAll(value, "_", "-")
}

func fromWire(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
}

func parseEnum[T ~string](valid []T, kind, value string) (T, error) {
	normalized := T(fromWire(value))
	if slices.Contains(valid, normalized) {
		return normalized, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
