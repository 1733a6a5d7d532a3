package state

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// number parses a loosely typed JSON value. Missing values, blank strings and
// non-finite results report ok=false.
func number(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false
		}
		value = strings.TrimSpace(v)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberOr(value any, fallback float64) float64 {
	if f, ok := number(value); ok {
		return f
	}
	return fallback
}

// maxCoercedInt bounds float to int conversions; larger magnitudes saturate.
const maxCoercedInt = math.MaxInt32

func toInt(f float64) int {
	return int(math.Round(max(-maxCoercedInt, min(maxCoercedInt, f))))
}

func intOr(value any, fallback int) int {
	if f, ok := number(value); ok {
		return toInt(f)
	}
	return fallback
}

// optionalInt returns nil for missing or non-numeric values.
func optionalInt(value any) *int {
	f, ok := number(value)
	if !ok {
		return nil
	}
	n := toInt(f)
	return &n
}

// text stringifies scalars and trims the result; objects and arrays become "".
func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(cast.ToString(v))
	}
}

func textOr(value any, fallback string) string {
	if s := text(value); s != "" {
		return s
	}
	return fallback
}

// truthy follows JSON-ish truthiness: false, 0, "", "false" and null are false.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return strings.TrimSpace(v) != ""
		}
		return b
	default:
		return cast.ToBool(v)
	}
}

func object(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

func list(value any) ([]any, bool) {
	l, ok := value.([]any)
	return l, ok
}

func sanitizeGroup(value any) int {
	return max(0, intOr(value, 0))
}
