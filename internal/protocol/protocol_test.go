package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClass(t *testing.T) {
	cases := map[string]Class{
		"tool":      ClassTool,
		"Tools":     ClassTool,
		"RESOURCE":  ClassResource,
		"resources": ClassResource,
		" prompt ":  ClassPrompt,
	}
	for in, want := range cases {
		got, err := ParseClass(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseClass("widget")
	require.Error(t, err)
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("Invoke")
	require.NoError(t, err)
	assert.Equal(t, OpInvoke, op)

	_, err = ParseOperation("delete")
	require.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(&NotFoundError{Class: ClassTool, Name: "x"}))
	assert.Equal(t, KindInvalidArgument, KindOf(fmt.Errorf("wrapped: %w", &InvalidArgumentError{Param: "a"})))
	assert.Equal(t, KindHandler, KindOf(errors.New("plain")))
	assert.Equal(t, KindTransport, KindOf(&TransportError{Op: "decode", Err: errors.New("bad")}))
}

func TestFail_CarriesParam(t *testing.T) {
	resp := Fail("7", &InvalidArgumentError{Param: "text", Reason: "missing required argument"})
	require.False(t, resp.OK())
	require.NotNil(t, resp.Error)
	assert.Equal(t, "7", resp.ID)
	assert.Equal(t, KindInvalidArgument, resp.Error.Kind)
	assert.Equal(t, "text", resp.Error.Param)
	assert.Contains(t, resp.Error.Message, "text")
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Class: ClassTool, Name: "missing"}
	assert.Equal(t, "unknown tool 'missing'", err.Error())
}

func TestSchemaJSONSchema(t *testing.T) {
	s := Params(
		String("text", "text to echo", true),
		Int("limit", "max results", false).WithDefault(10),
	)
	raw, err := json.Marshal(s.JSONSchema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []any{"text"}, doc["required"])

	props := doc["properties"].(map[string]any)
	limit := props["limit"].(map[string]any)
	assert.Equal(t, "integer", limit["type"])
	assert.EqualValues(t, 10, limit["default"])
	assert.Contains(t, doc, "additionalProperties")
}

func TestSchemaJSONSchema_AllowExtra(t *testing.T) {
	s := Schema{Params: []Param{Any("payload", "", false)}, AllowExtra: true}
	raw, err := json.Marshal(s.JSONSchema())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "additionalProperties")
}

func TestDescriptorMarshalJSON_OmitsHandler(t *testing.T) {
	d := Descriptor{
		Class:       ClassResource,
		Name:        "realestate://areas",
		Description: "All areas",
		MIMEType:    "application/json",
	}
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "resource", doc["class"])
	assert.Equal(t, "realestate://areas", doc["name"])
	assert.Equal(t, "application/json", doc["mimeType"])
	assert.Contains(t, doc, "inputSchema")
	assert.NotContains(t, doc, "Handler")
}

func TestArgumentsAccessors(t *testing.T) {
	args := Arguments{
		"s":   "hi",
		"i":   int64(4),
		"f":   2.5,
		"n":   json.Number("12"),
		"b":   true,
		"arr": []any{"a", 1, "b"},
		"nil": nil,
	}
	assert.Equal(t, "hi", args.String("s"))
	assert.Equal(t, int64(4), args.Int("i"))
	assert.Equal(t, int64(12), args.Int("n"))
	assert.InDelta(t, 2.5, args.Float("f"), 1e-9)
	assert.InDelta(t, 4.0, args.Float("i"), 1e-9)
	assert.True(t, args.Bool("b"))
	assert.Equal(t, []string{"a", "b"}, args.Strings("arr"))
	assert.False(t, args.Has("nil"))
	assert.False(t, args.Has("absent"))
	assert.Equal(t, "", args.String("absent"))

	clone := args.Clone()
	clone["s"] = "changed"
	assert.Equal(t, "hi", args.String("s"))
}
