package protocol

import (
	"encoding/json"
	"fmt"
)

// Arguments maps parameter names to decoded JSON values. After validation
// integers are int64 and numbers are float64.
type Arguments map[string]any

// Has reports whether name is present and non-null.
func (a Arguments) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// String returns the named argument as a string, or "" when absent.
func (a Arguments) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the named argument as an int64, or 0 when absent.
func (a Arguments) Int(name string) int64 {
	switch v := a[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Float returns the named argument as a float64, or 0 when absent.
func (a Arguments) Float(name string) float64 {
	switch v := a[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Bool returns the named argument as a bool, or false when absent.
func (a Arguments) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Strings returns the string elements of an array argument.
func (a Arguments) Strings(name string) []string {
	items, _ := a[name].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a shallow copy of a.
func (a Arguments) Clone() Arguments {
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
