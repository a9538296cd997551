package host

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

func TestValidate(t *testing.T) {
	schema := protocol.Params(
		protocol.String("text", "", true),
		protocol.Int("limit", "", false).WithDefault(int64(10)),
		protocol.Number("ratio", "", false),
		protocol.Bool("verbose", "", false),
		protocol.Object("filter", "", false),
		protocol.Array("ids", "", false),
		protocol.Any("extra", "", false),
	)

	tests := []struct {
		name      string
		args      protocol.Arguments
		wantParam string
		want      protocol.Arguments
	}{
		{
			name: "required only, default applied",
			args: protocol.Arguments{"text": "hi"},
			want: protocol.Arguments{"text": "hi", "limit": int64(10)},
		},
		{
			name:      "missing required",
			args:      protocol.Arguments{"limit": 3},
			wantParam: "text",
		},
		{
			name:      "null required counts as missing",
			args:      protocol.Arguments{"text": nil},
			wantParam: "text",
		},
		{
			name: "integral float accepted as integer",
			args: protocol.Arguments{"text": "a", "limit": float64(5)},
			want: protocol.Arguments{"text": "a", "limit": int64(5)},
		},
		{
			name: "json number normalised",
			args: protocol.Arguments{"text": "a", "limit": json.Number("7"), "ratio": json.Number("0.25")},
			want: protocol.Arguments{"text": "a", "limit": int64(7), "ratio": 0.25},
		},
		{
			name:      "fractional integer rejected",
			args:      protocol.Arguments{"text": "a", "limit": 2.5},
			wantParam: "limit",
		},
		{
			name:      "string for integer rejected",
			args:      protocol.Arguments{"text": "a", "limit": "10"},
			wantParam: "limit",
		},
		{
			name:      "wrong string type",
			args:      protocol.Arguments{"text": 42},
			wantParam: "text",
		},
		{
			name:      "wrong bool type",
			args:      protocol.Arguments{"text": "a", "verbose": "yes"},
			wantParam: "verbose",
		},
		{
			name: "object, array and any",
			args: protocol.Arguments{
				"text":   "a",
				"filter": map[string]any{"city": "Austin"},
				"ids":    []any{"x"},
				"extra":  12,
			},
			want: protocol.Arguments{
				"text":   "a",
				"limit":  int64(10),
				"filter": map[string]any{"city": "Austin"},
				"ids":    []any{"x"},
				"extra":  12,
			},
		},
		{
			name:      "unrecognized argument",
			args:      protocol.Arguments{"text": "a", "zzz": 1, "aaa": 2},
			wantParam: "aaa",
		},
		{
			name: "optional null dropped",
			args: protocol.Arguments{"text": "a", "verbose": nil},
			want: protocol.Arguments{"text": "a", "limit": int64(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(schema, tt.args)
			if tt.wantParam != "" {
				var iae *protocol.InvalidArgumentError
				require.ErrorAs(t, err, &iae)
				assert.Equal(t, tt.wantParam, iae.Param)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_AllowExtra(t *testing.T) {
	schema := protocol.Schema{Params: []protocol.Param{protocol.String("a", "", false)}, AllowExtra: true}
	got, err := Validate(schema, protocol.Arguments{"a": "x", "b": 2})
	require.NoError(t, err)
	assert.Equal(t, protocol.Arguments{"a": "x", "b": 2}, got)
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	schema := protocol.Params(protocol.Int("n", "", true))
	in := protocol.Arguments{"n": float64(3)}
	_, err := Validate(schema, in)
	require.NoError(t, err)
	assert.Equal(t, float64(3), in["n"])
}

func TestValidate_NilArguments(t *testing.T) {
	got, err := Validate(protocol.Schema{}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
