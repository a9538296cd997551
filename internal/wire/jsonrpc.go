package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// JSON-RPC 2.0 and MCP error codes.
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeResourceNotFound = -32002
)

// ProtocolVersions lists the MCP revisions the initialize handshake accepts.
// The first entry is offered when the client asks for an unknown revision.
// Batches allowed by 2025-03-26 are answered with an Invalid Request error.
var ProtocolVersions = []string{"2025-06-18", "2025-03-26", "2024-11-05"}

// JSONRPCResponse is an outgoing JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type failureData struct {
	Kind  protocol.ErrorKind `json:"kind"`
	Param string             `json:"param,omitempty"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

type getPromptParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

// listedDescriptor mirrors the discovery JSON of protocol.Descriptor.
type listedDescriptor struct {
	Name        string             `json:"name"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	MIMEType    string             `json:"mimeType"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

func (c *Codec) decodeRPC(data []byte, probe map[string]json.RawMessage) (*Call, error) {
	// A request with "id": null is not a notification; only an absent id is.
	if raw, ok := probe["id"]; ok && string(bytes.TrimSpace(raw)) == "null" {
		if _, isRequest := probe["method"]; isRequest {
			return nil, invalidRequest(nil, errors.New("request id must not be null"))
		}
	}
	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		if _, ok := idText(probe["id"]); !ok {
			return nil, unanswerable(err)
		}
		return nil, invalidRequest(probe["id"], err)
	}

	req, ok := msg.(*jsonrpc.Request)
	if !ok {
		// Responses from the client answer nothing this server asked.
		return &Call{codec: c, dialect: DialectJSONRPC, ignore: true}, nil
	}
	call := &Call{
		codec:   c,
		dialect: DialectJSONRPC,
		method:  req.Method,
		params:  req.Params,
		notify:  req.ID == (jsonrpc.ID{}),
	}
	if !call.notify {
		call.rpcID = req.ID.Raw()
		call.req.ID = fmt.Sprint(call.rpcID)
	}
	return call, nil
}

// invalidRequest builds an answerable decode error carrying a -32600 reply.
// A nil id is sent as null.
func invalidRequest(id any, err error) *DecodeError {
	te := &protocol.TransportError{Op: "decode", Err: err}
	reply, encErr := encodeRPC(id, nil, &RPCError{Code: CodeInvalidRequest, Message: te.Error()})
	if encErr != nil {
		return unanswerable(encErr)
	}
	return &DecodeError{Err: te, reply: reply}
}

func rejectBatch() *DecodeError {
	return invalidRequest(nil, errors.New("batch requests are not supported"))
}

func encodeRPC(id, result any, rpcErr *RPCError) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr})
}

func (c *Call) serveRPC(ctx context.Context, h Handler) ([]byte, error) {
	if c.ignore {
		return nil, nil
	}
	if c.notify || strings.HasPrefix(c.method, "notifications/") {
		// Notifications are fire-and-forget; none of them change server state.
		return nil, nil
	}
	result, rpcErr := c.route(ctx, h)
	if rpcErr != nil {
		return encodeRPC(c.rpcID, nil, rpcErr)
	}
	return encodeRPC(c.rpcID, result, nil)
}

func (c *Call) route(ctx context.Context, h Handler) (any, *RPCError) {
	switch c.method {
	case "initialize":
		return c.initialize()
	case "ping":
		return struct{}{}, nil
	case "tools/list":
		return c.listTools(ctx, h)
	case "tools/call":
		return c.callTool(ctx, h)
	case "resources/list":
		return c.listResources(ctx, h, false)
	case "resources/templates/list":
		return c.listResources(ctx, h, true)
	case "resources/read":
		return c.readResource(ctx, h)
	case "prompts/list":
		return c.listPrompts(ctx, h)
	case "prompts/get":
		return c.getPrompt(ctx, h)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", c.method)}
	}
}

func (c *Call) initialize() (any, *RPCError) {
	var p initializeParams
	if len(c.params) > 0 {
		if err := json.Unmarshal(c.params, &p); err != nil {
			return nil, invalidParams(err)
		}
	}
	version := ProtocolVersions[0]
	for _, v := range ProtocolVersions {
		if v == p.ProtocolVersion {
			version = v
			break
		}
	}
	return &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities: &mcp.ServerCapabilities{
			Tools:     &mcp.ToolCapabilities{},
			Resources: &mcp.ResourceCapabilities{},
			Prompts:   &mcp.PromptCapabilities{},
		},
		ServerInfo: &mcp.Implementation{Name: c.codec.ServerName, Version: c.codec.ServerVersion},
	}, nil
}

// dispatch runs one protocol request through h and maps a failure to a
// JSON-RPC error.
func (c *Call) dispatch(ctx context.Context, h Handler, req protocol.Request) (protocol.Response, *RPCError) {
	req.ID = c.req.ID
	resp := h.Handle(ctx, req)
	if resp.OK() {
		return resp, nil
	}
	return resp, rpcErrorFor(req.Class, resp.Error)
}

func (c *Call) list(ctx context.Context, h Handler, class protocol.Class) ([]listedDescriptor, *RPCError) {
	resp, rpcErr := c.dispatch(ctx, h, protocol.Request{Class: class, Operation: protocol.OpList})
	if rpcErr != nil {
		return nil, rpcErr
	}
	var out []listedDescriptor
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "listing is not decodable: " + err.Error()}
	}
	return out, nil
}

func (c *Call) listTools(ctx context.Context, h Handler) (any, *RPCError) {
	listed, rpcErr := c.list(ctx, h, protocol.ClassTool)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tools := make([]*mcp.Tool, 0, len(listed))
	for _, d := range listed {
		tools = append(tools, &mcp.Tool{
			Name:        d.Name,
			Title:       d.Title,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return &mcp.ListToolsResult{Tools: tools}, nil
}

func (c *Call) callTool(ctx context.Context, h Handler) (any, *RPCError) {
	var p toolCallParams
	if err := json.Unmarshal(c.params, &p); err != nil {
		return nil, invalidParams(err)
	}
	args, err := decodeArguments(p.Arguments)
	if err != nil {
		return nil, invalidParams(fmt.Errorf("arguments %w", err))
	}
	resp, rpcErr := c.dispatch(ctx, h, protocol.Request{
		Class:     protocol.ClassTool,
		Operation: protocol.OpInvoke,
		Name:      p.Name,
		Arguments: args,
	})
	if rpcErr != nil {
		if resp.Error != nil && resp.Error.Kind == protocol.KindHandler {
			// Tool execution failures are results the model can see.
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: resp.Error.Message}},
				IsError: true,
			}, nil
		}
		return nil, rpcErr
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: payloadText(resp.Payload)}},
	}, nil
}

func (c *Call) listResources(ctx context.Context, h Handler, templates bool) (any, *RPCError) {
	listed, rpcErr := c.list(ctx, h, protocol.ClassResource)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if templates {
		out := make([]*mcp.ResourceTemplate, 0)
		for _, d := range listed {
			if host.IsTemplate(d.Name) {
				out = append(out, &mcp.ResourceTemplate{
					URITemplate: d.Name,
					Name:        displayName(d),
					Title:       d.Title,
					Description: d.Description,
					MIMEType:    d.MIMEType,
				})
			}
		}
		return &mcp.ListResourceTemplatesResult{ResourceTemplates: out}, nil
	}
	out := make([]*mcp.Resource, 0)
	for _, d := range listed {
		if !host.IsTemplate(d.Name) {
			out = append(out, &mcp.Resource{
				URI:         d.Name,
				Name:        displayName(d),
				Title:       d.Title,
				Description: d.Description,
				MIMEType:    d.MIMEType,
			})
		}
	}
	return &mcp.ListResourcesResult{Resources: out}, nil
}

func (c *Call) readResource(ctx context.Context, h Handler) (any, *RPCError) {
	var p readResourceParams
	if err := json.Unmarshal(c.params, &p); err != nil {
		return nil, invalidParams(err)
	}
	resp, rpcErr := c.dispatch(ctx, h, protocol.Request{
		Class:     protocol.ClassResource,
		Operation: protocol.OpInvoke,
		Name:      p.URI,
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	mime := "application/json"
	if isJSONString(resp.Payload) {
		mime = "text/plain"
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      p.URI,
			MIMEType: mime,
			Text:     payloadText(resp.Payload),
		}},
	}, nil
}

func (c *Call) listPrompts(ctx context.Context, h Handler) (any, *RPCError) {
	listed, rpcErr := c.list(ctx, h, protocol.ClassPrompt)
	if rpcErr != nil {
		return nil, rpcErr
	}
	prompts := make([]*mcp.Prompt, 0, len(listed))
	for _, d := range listed {
		prompts = append(prompts, &mcp.Prompt{
			Name:        d.Name,
			Title:       d.Title,
			Description: d.Description,
			Arguments:   promptArguments(d.InputSchema),
		})
	}
	return &mcp.ListPromptsResult{Prompts: prompts}, nil
}

func (c *Call) getPrompt(ctx context.Context, h Handler) (any, *RPCError) {
	var p getPromptParams
	if err := json.Unmarshal(c.params, &p); err != nil {
		return nil, invalidParams(err)
	}
	args, err := decodeArguments(p.Arguments)
	if err != nil {
		return nil, invalidParams(fmt.Errorf("arguments %w", err))
	}
	resp, rpcErr := c.dispatch(ctx, h, protocol.Request{
		Class:     protocol.ClassPrompt,
		Operation: protocol.OpInvoke,
		Name:      p.Name,
		Arguments: args,
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: payloadText(resp.Payload)},
		}},
	}, nil
}

// promptArguments lists required arguments first in declaration order, then
// optional ones by name.
func promptArguments(s *jsonschema.Schema) []*mcp.PromptArgument {
	if s == nil {
		return nil
	}
	required := make(map[string]bool, len(s.Required))
	out := make([]*mcp.PromptArgument, 0, len(s.Properties))
	for _, name := range s.Required {
		required[name] = true
		out = append(out, &mcp.PromptArgument{Name: name, Description: propertyDescription(s, name), Required: true})
	}
	optional := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		if !required[name] {
			optional = append(optional, name)
		}
	}
	sort.Strings(optional)
	for _, name := range optional {
		out = append(out, &mcp.PromptArgument{Name: name, Description: propertyDescription(s, name)})
	}
	return out
}

func propertyDescription(s *jsonschema.Schema, name string) string {
	if p := s.Properties[name]; p != nil {
		return p.Description
	}
	return ""
}

func rpcErrorFor(class protocol.Class, f *protocol.Failure) *RPCError {
	e := &RPCError{Message: f.Message, Data: failureData{Kind: f.Kind, Param: f.Param}}
	switch f.Kind {
	case protocol.KindNotFound:
		e.Code = CodeInvalidParams
		if class == protocol.ClassResource {
			e.Code = CodeResourceNotFound
		}
	case protocol.KindInvalidArgument:
		e.Code = CodeInvalidParams
	case protocol.KindTransport:
		e.Code = CodeInvalidRequest
	default:
		e.Code = CodeInternalError
	}
	return e
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid params: " + err.Error()}
}

func displayName(d listedDescriptor) string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

func isJSONString(payload json.RawMessage) bool {
	return len(payload) > 0 && payload[0] == '"'
}

// payloadText renders a payload as content text: JSON strings unquoted,
// anything else as its JSON encoding.
func payloadText(payload json.RawMessage) string {
	if isJSONString(payload) {
		var s string
		if err := json.Unmarshal(payload, &s); err == nil {
			return s
		}
	}
	return string(payload)
}
