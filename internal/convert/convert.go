// Package convert coerces loosely typed device values.
package convert

import (
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// EnsureNumber returns v as a float64. Strings are trimmed and parsed as
// decimals, with the empty string read as 0. Booleans become 1 or 0. Values
// that cannot be read as a number return def.
func EnsureNumber(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		return parse(n, def)
	default:
		return def
	}
}

func parse(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return def
	}
	f, err := d.Float64()
	if err != nil {
		return def
	}
	return f
}
