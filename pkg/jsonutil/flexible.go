// Package jsonutil holds small helpers for decoding loosely-typed values.
// Check parameters arrive as strings from CLI flags, but as raw JSON from
// MCP tool arguments and as any-typed scalars from YAML suite files; these
// helpers fold all three into the string form the parameter parser takes.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleStringValue converts a json.RawMessage to a string, tolerating
// clients that send numbers or booleans where a string is documented.
// Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return formatNumber(numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	// Objects and arrays fall back to their raw JSON text.
	return string(raw)
}

// CoerceString renders a decoded scalar (string, bool, integer, float, or
// nil) as its parameter-string form. YAML and JSON decoders hand back
// different concrete types for the same document; this normalizes them.
func CoerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber prints whole values without a decimal point so that an
// integer round-tripped through float64 stays an integer.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
