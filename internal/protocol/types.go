// Package protocol defines the shared request/response model of the capability
// server. It has no dependencies on other internal packages.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Class identifies one of the three capability classes.
type Class string

const (
	ClassTool     Class = "tool"
	ClassResource Class = "resource"
	ClassPrompt   Class = "prompt"
)

// Classes lists every capability class in discovery order.
var Classes = []Class{ClassTool, ClassResource, ClassPrompt}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	switch c {
	case ClassTool, ClassResource, ClassPrompt:
		return true
	}
	return false
}

// ParseClass accepts the singular or plural class name in any case.
func ParseClass(s string) (Class, error) {
	c := Class(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !c.Valid() {
		return "", fmt.Errorf("unknown class '%s'", s)
	}
	return c, nil
}

// Operation is the sub-protocol verb of a request.
type Operation string

const (
	OpList   Operation = "list"
	OpInvoke Operation = "invoke"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return op == OpList || op == OpInvoke
}

// ParseOperation parses an operation name in any case.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation '%s'", s)
	}
	return op, nil
}

// Request is a decoded inbound frame. It is consumed once by the dispatcher
// and never mutated.
type Request struct {
	// ID is an opaque correlation token echoed back in the Response.
	ID        string
	Class     Class
	Operation Operation
	// Name is set only for OpInvoke.
	Name      string
	Arguments Arguments
}

// Outcome tags a Response as success or failure.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeError Outcome = "error"
)

// Failure is the error half of a Response.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`
}

// Response is created exactly once per Request.
type Response struct {
	ID      string
	Outcome Outcome
	// Payload holds the JSON encoding of the handler result.
	Payload json.RawMessage
	Error   *Failure
}

// OK reports whether the response is a success.
func (r Response) OK() bool { return r.Outcome == OutcomeOK }

// Success builds a success response.
func Success(id string, payload json.RawMessage) Response {
	return Response{ID: id, Outcome: OutcomeOK, Payload: payload}
}

// Fail builds a failure response from any error, classifying it by kind.
func Fail(id string, err error) Response {
	f := &Failure{Kind: KindOf(err), Message: err.Error()}
	if p, ok := err.(interface{ Parameter() string }); ok {
		f.Param = p.Parameter()
	}
	return Response{ID: id, Outcome: OutcomeError, Error: f}
}
