// Package prototest provides shared test utilities for the protocol package.
package prototest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// Recorder is a test double for a request handler that records every request
// it sees. Without a Respond func it echoes the request arguments back.
type Recorder struct {
	Respond func(protocol.Request) protocol.Response

	mu       sync.Mutex
	requests []protocol.Request
}

// Handle records req and returns the configured response.
func (r *Recorder) Handle(_ context.Context, req protocol.Request) protocol.Response {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	if r.Respond != nil {
		return r.Respond(req)
	}
	payload, err := json.Marshal(req.Arguments)
	if err != nil {
		return protocol.Fail(req.ID, &protocol.HandlerError{Err: err})
	}
	return protocol.Success(req.ID, payload)
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []protocol.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Request, len(r.requests))
	copy(out, r.requests)
	return out
}
