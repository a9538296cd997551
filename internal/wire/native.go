package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// nativeResponse is the outbound native frame.
type nativeResponse struct {
	ID      json.RawMessage   `json:"id"`
	Outcome protocol.Outcome  `json:"outcome"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	Error   *protocol.Failure `json:"error,omitempty"`
}

func (c *Codec) decodeNative(probe map[string]json.RawMessage) (*Call, error) {
	rawID := probe["id"]
	id, ok := idText(rawID)
	if !ok {
		return nil, unanswerable(fmt.Errorf("frame has no usable id"))
	}
	fail := func(format string, args ...any) (*Call, error) {
		te := &protocol.TransportError{Op: "decode", Err: fmt.Errorf(format, args...)}
		reply, err := encodeNative(rawID, protocol.Fail(id, te))
		if err != nil {
			return nil, unanswerable(err)
		}
		return nil, &DecodeError{Err: te, reply: reply}
	}

	var class, op, name string
	if err := optionalString(probe, "class", &class); err != nil {
		return fail("%v", err)
	}
	if err := optionalString(probe, "operation", &op); err != nil {
		return fail("%v", err)
	}
	if err := optionalString(probe, "name", &name); err != nil {
		return fail("%v", err)
	}
	if class == "" {
		return fail("field 'class' is required")
	}
	if op == "" {
		return fail("field 'operation' is required")
	}

	args, err := decodeArguments(probe["arguments"])
	if err != nil {
		return fail("field 'arguments': %v", err)
	}

	req := protocol.Request{
		ID:        id,
		Class:     normalizeClass(class),
		Operation: protocol.Operation(strings.ToLower(strings.TrimSpace(op))),
		Name:      name,
		Arguments: args,
	}
	return &Call{codec: c, dialect: DialectNative, rawID: rawID, req: req}, nil
}

// normalizeClass accepts plural forms; unknown classes pass through so the
// dispatcher can reject them with a named parameter.
func normalizeClass(s string) protocol.Class {
	if c, err := protocol.ParseClass(s); err == nil {
		return c
	}
	return protocol.Class(s)
}

func encodeNative(rawID json.RawMessage, resp protocol.Response) ([]byte, error) {
	out := nativeResponse{ID: rawID, Outcome: resp.Outcome, Error: resp.Error}
	if resp.OK() {
		out.Payload = resp.Payload
		if len(out.Payload) == 0 {
			out.Payload = json.RawMessage("null")
		}
	}
	return json.Marshal(out)
}

// idText returns the id as text: strings unquoted, anything else as its
// compact JSON. A missing or null id is not usable.
func idText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

func optionalString(probe map[string]json.RawMessage, field string, dst *string) error {
	raw, ok := probe[field]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field '%s' must be a string", field)
	}
	return nil
}

// decodeArguments decodes an arguments object keeping numbers as
// json.Number so integers survive without float rounding.
func decodeArguments(raw json.RawMessage) (protocol.Arguments, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("must be an object")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var args protocol.Arguments
	if err := dec.Decode(&args); err != nil {
		return nil, err
	}
	return args, nil
}
