package host

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// Validate checks args against schema and returns a new argument map with
// defaults applied and numeric values normalised: integers to int64, numbers
// to float64. The input map is not modified.
func Validate(schema protocol.Schema, args protocol.Arguments) (protocol.Arguments, error) {
	out := make(protocol.Arguments, len(schema.Params))

	for _, p := range schema.Params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return nil, &protocol.InvalidArgumentError{Param: p.Name, Reason: "missing required argument"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		nv, err := coerce(p.Type, v)
		if err != nil {
			return nil, &protocol.InvalidArgumentError{Param: p.Name, Reason: err.Error()}
		}
		out[p.Name] = nv
	}

	// Sorted so the reported parameter is deterministic.
	extra := make([]string, 0)
	for name := range args {
		if _, ok := schema.Lookup(name); !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		if !schema.AllowExtra {
			return nil, &protocol.InvalidArgumentError{Param: name, Reason: "unrecognized argument"}
		}
		out[name] = args[name]
	}
	return out, nil
}

func coerce(tag protocol.TypeTag, v any) (any, error) {
	switch tag {
	case protocol.TypeAny, "":
		return v, nil
	case protocol.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case protocol.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case protocol.TypeInteger:
		if n, ok := toInt(v); ok {
			return n, nil
		}
	case protocol.TypeNumber:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case protocol.TypeObject:
		switch o := v.(type) {
		case map[string]any:
			return o, nil
		case protocol.Arguments:
			return map[string]any(o), nil
		}
	case protocol.TypeArray:
		if a, ok := v.([]any); ok {
			return a, nil
		}
	default:
		return nil, fmt.Errorf("unsupported type tag %q", tag)
	}
	return nil, fmt.Errorf("must be %s, got %s", tag, jsonTypeName(v))
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return toInt(float64(n))
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return toInt(f)
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case map[string]any, protocol.Arguments:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
