package wire

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPC_Initialize(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`)
	assert.Equal(t, "2.0", got["jsonrpc"])
	assert.Equal(t, float64(1), got["id"])

	result := got["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	assert.Equal(t, map[string]any{"name": "test", "version": "0.0.1"}, result["serverInfo"])
	caps := result["capabilities"].(map[string]any)
	assert.Contains(t, caps, "tools")
	assert.Contains(t, caps, "resources")
	assert.Contains(t, caps, "prompts")
}

func TestRPC_InitializeUnknownVersionOffersLatest(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)
	result := got["result"].(map[string]any)
	assert.Equal(t, ProtocolVersions[0], result["protocolVersion"])
}

func TestRPC_Ping(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":"p","method":"ping"}`)
	assert.Equal(t, "p", got["id"])
	assert.Equal(t, map[string]any{}, got["result"])
}

func TestRPC_NotificationHasNoReply(t *testing.T) {
	codec := &Codec{}
	call, err := codec.Decode([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	require.NoError(t, err)
	assert.True(t, call.Notification())
	assert.Equal(t, DialectJSONRPC, call.Dialect())

	out, err := call.Serve(context.Background(), testDispatcher(t))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRPC_ToolsList(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	tools := got["result"].(map[string]any)["tools"].([]any)
	require.Len(t, tools, 3)

	echo := tools[0].(map[string]any)
	assert.Equal(t, "echo", echo["name"])
	assert.Equal(t, "Echo text back", echo["description"])
	schema := echo["inputSchema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"text"}, schema["required"])
}

func TestRPC_ToolsCall(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`)
	result := got["result"].(map[string]any)
	assert.NotEqual(t, true, result["isError"])
	content := result["content"].([]any)
	require.Len(t, content, 1)
	assert.Equal(t, map[string]any{"type": "text", "text": "hi"}, content[0])
}

func TestRPC_ToolsCallObjectResultIsJSONText(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"add","arguments":{"a":1,"b":2}}}`)
	content := got["result"].(map[string]any)["content"].([]any)
	text := content[0].(map[string]any)["text"].(string)
	assert.JSONEq(t, `{"sum":3}`, text)
}

func TestRPC_ToolsCallHandlerErrorIsResult(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"fail"}}`)
	assert.NotContains(t, got, "error")
	result := got["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]any)
	assert.Equal(t, "backend unavailable", content[0].(map[string]any)["text"])
}

func TestRPC_ToolsCallErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		code  float64
		kind  string
	}{
		{"unknown tool", `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"missing"}}`, CodeInvalidParams, "NotFoundError"},
		{"missing argument", `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"echo","arguments":{}}}`, CodeInvalidParams, "InvalidArgumentError"},
		{"unknown resource", `{"jsonrpc":"2.0","id":5,"method":"resources/read","params":{"uri":"realestate://nothing"}}`, CodeResourceNotFound, "NotFoundError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serve(t, testDispatcher(t), tt.frame)
			assert.NotContains(t, got, "result")
			rpcErr := got["error"].(map[string]any)
			assert.Equal(t, tt.code, rpcErr["code"])
			assert.Equal(t, tt.kind, rpcErr["data"].(map[string]any)["kind"])
		})
	}
}

func TestRPC_MethodNotFound(t *testing.T) {
	got := serve(t, testDispatcher(t), `{"jsonrpc":"2.0","id":6,"method":"sampling/createMessage"}`)
	rpcErr := got["error"].(map[string]any)
	assert.Equal(t, float64(CodeMethodNotFound), rpcErr["code"])
}

func TestRPC_Resources(t *testing.T) {
	h := testDispatcher(t)

	got := serve(t, h, `{"jsonrpc":"2.0","id":7,"method":"resources/list"}`)
	resources := got["result"].(map[string]any)["resources"].([]any)
	require.Len(t, resources, 1)
	r := resources[0].(map[string]any)
	assert.Equal(t, "realestate://properties", r["uri"])
	assert.Equal(t, "Properties", r["name"])
	assert.Equal(t, "application/json", r["mimeType"])

	got = serve(t, h, `{"jsonrpc":"2.0","id":8,"method":"resources/templates/list"}`)
	templates := got["result"].(map[string]any)["resourceTemplates"].([]any)
	require.Len(t, templates, 1)
	assert.Equal(t, "realestate://properties/{property_id}", templates[0].(map[string]any)["uriTemplate"])

	got = serve(t, h, `{"jsonrpc":"2.0","id":9,"method":"resources/read","params":{"uri":"realestate://properties/PROP007"}}`)
	contents := got["result"].(map[string]any)["contents"].([]any)
	require.Len(t, contents, 1)
	c := contents[0].(map[string]any)
	assert.Equal(t, "realestate://properties/PROP007", c["uri"])
	assert.Equal(t, "application/json", c["mimeType"])
	assert.JSONEq(t, `{"id":"PROP007"}`, c["text"].(string))
}

func TestRPC_Prompts(t *testing.T) {
	h := testDispatcher(t)

	got := serve(t, h, `{"jsonrpc":"2.0","id":10,"method":"prompts/list"}`)
	prompts := got["result"].(map[string]any)["prompts"].([]any)
	require.Len(t, prompts, 1)
	p := prompts[0].(map[string]any)
	assert.Equal(t, "market_report", p["name"])
	args := p["arguments"].([]any)
	require.Len(t, args, 2)
	assert.Equal(t, map[string]any{"name": "area", "description": "Area name", "required": true}, args[0])
	assert.Equal(t, "style", args[1].(map[string]any)["name"])

	got = serve(t, h, `{"jsonrpc":"2.0","id":11,"method":"prompts/get","params":{"name":"market_report","arguments":{"area":"Downtown"}}}`)
	messages := got["result"].(map[string]any)["messages"].([]any)
	require.Len(t, messages, 1)
	m := messages[0].(map[string]any)
	assert.Equal(t, "user", m["role"])
	assert.Equal(t, "Write a market report for Downtown", m["content"].(map[string]any)["text"])
}

func TestRPC_AnswerableDecodeError(t *testing.T) {
	codec := &Codec{}
	_, err := codec.Decode([]byte(`{"jsonrpc":"2.0","id":12,"method":42}`))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.True(t, de.Answerable())

	var reply map[string]any
	require.NoError(t, json.Unmarshal(de.Reply(), &reply))
	assert.Equal(t, float64(12), reply["id"])
	assert.Equal(t, float64(CodeInvalidRequest), reply["error"].(map[string]any)["code"])
}

func TestRPC_NullIDIsInvalidRequest(t *testing.T) {
	codec := &Codec{}
	call, err := codec.Decode([]byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
	require.Nil(t, call)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.True(t, de.Answerable())

	var reply map[string]any
	require.NoError(t, json.Unmarshal(de.Reply(), &reply))
	assert.Equal(t, "2.0", reply["jsonrpc"])
	assert.Contains(t, reply, "id")
	assert.Nil(t, reply["id"])
	assert.Equal(t, float64(CodeInvalidRequest), reply["error"].(map[string]any)["code"])
}

func TestRPC_ObjectIDIsInvalidRequest(t *testing.T) {
	_, err := (&Codec{}).Decode([]byte(`{"jsonrpc":"2.0","id":{"k":1},"method":"ping"}`))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.True(t, de.Answerable())

	var reply map[string]any
	require.NoError(t, json.Unmarshal(de.Reply(), &reply))
	assert.Equal(t, map[string]any{"k": float64(1)}, reply["id"])
}
