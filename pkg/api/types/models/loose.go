package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// decodeLoose reads a JSON object, or a JSON string containing a JSON object.
//
// Anything else, including broken payloads, yields an empty map.
func decodeLoose(b []byte) map[string]any {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return map[string]any{}
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return map[string]any{}
		}
		return decodeLoose([]byte(s))
	}

	ret := map[string]any{}
	if err := json.Unmarshal(b, &ret); err != nil || ret == nil {
		return map[string]any{}
	}
	return ret
}

// number reads v as float64. Numeric strings are accepted.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
