// Package wire encodes and decodes transport frames. Two dialects share one
// codec: native capability frames and MCP JSON-RPC 2.0 messages. A frame is
// routed to the MCP dialect when it carries a "jsonrpc" member.
package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// Handler produces exactly one Response per Request. *host.Dispatcher
// satisfies it.
type Handler interface {
	Handle(ctx context.Context, req protocol.Request) protocol.Response
}

// Dialect is the frame format a Call arrived in.
type Dialect int

const (
	DialectNative Dialect = iota
	DialectJSONRPC
)

func (d Dialect) String() string {
	if d == DialectJSONRPC {
		return "jsonrpc"
	}
	return "native"
}

// Codec decodes inbound frames into Calls.
type Codec struct {
	// ServerName and ServerVersion are reported by the MCP initialize reply.
	ServerName    string
	ServerVersion string
}

// Call is one decoded inbound frame, bound to the dialect it arrived in so
// the reply is encoded the same way.
type Call struct {
	codec   *Codec
	dialect Dialect

	// native
	rawID json.RawMessage
	req   protocol.Request

	// jsonrpc
	rpcID  any
	method string
	params json.RawMessage
	notify bool
	ignore bool
}

// Dialect reports the frame format of the call.
func (c *Call) Dialect() Dialect { return c.dialect }

// ID returns the correlation token of the call, or "" for notifications.
func (c *Call) ID() string { return c.req.ID }

// Method describes the call for logging.
func (c *Call) Method() string {
	if c.dialect == DialectJSONRPC {
		return c.method
	}
	return string(c.req.Class) + "/" + string(c.req.Operation)
}

// Notification reports whether the call expects no reply.
func (c *Call) Notification() bool { return c.notify || c.ignore }

// Serve dispatches the call through h and returns the encoded reply frame.
// It returns nil bytes for calls that take no reply.
func (c *Call) Serve(ctx context.Context, h Handler) ([]byte, error) {
	if c.dialect == DialectJSONRPC {
		return c.serveRPC(ctx, h)
	}
	return encodeNative(c.rawID, h.Handle(ctx, c.req))
}

// DecodeError reports a frame that could not be decoded. When the frame's id
// was recoverable the error is answerable: Reply holds a TransportError
// failure frame in the frame's own dialect and the channel may keep serving.
type DecodeError struct {
	Err   *protocol.TransportError
	reply []byte
}

func (e *DecodeError) Error() string { return e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// Answerable reports whether a failure frame can be sent back.
func (e *DecodeError) Answerable() bool { return e.reply != nil }

// Reply returns the failure frame, or nil when unanswerable.
func (e *DecodeError) Reply() []byte { return e.reply }

// Decode parses one frame. Errors are always *DecodeError.
func (c *Codec) Decode(data []byte) (*Call, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' && json.Valid(data) {
		return nil, rejectBatch()
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, unanswerable(err)
	}
	if probe == nil {
		return nil, unanswerable(errors.New("frame is not an object"))
	}
	if _, ok := probe["jsonrpc"]; ok {
		return c.decodeRPC(data, probe)
	}
	return c.decodeNative(probe)
}

func unanswerable(err error) *DecodeError {
	return &DecodeError{Err: &protocol.TransportError{Op: "decode", Err: err}}
}
