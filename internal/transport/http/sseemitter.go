// Package httpx provides the streaming HTTP transport: each client holds an
// event stream open and posts frames that are answered on that stream.
package httpx

import (
	"github.com/realestate-mcp/realestate-mcp-server/internal/server"
)

// Event names written to the stream.
const (
	EventEndpoint = "endpoint"
	EventMessage  = "message"
)

// sseEmitter adapts a server.SSEWriter to the frames this transport sends.
type sseEmitter struct {
	sse *server.SSEWriter
}

func newSSEEmitter(sse *server.SSEWriter) *sseEmitter {
	return &sseEmitter{sse: sse}
}

// SendEndpoint tells the client where to post frames for this connection.
func (e *sseEmitter) SendEndpoint(url string) error {
	return e.sse.WriteEvent(EventEndpoint, []byte(url))
}

// SendFrame writes one response frame.
func (e *sseEmitter) SendFrame(frame []byte) error {
	return e.sse.WriteEvent(EventMessage, frame)
}

// SendKeepAlive writes a comment so idle proxies keep the stream open.
func (e *sseEmitter) SendKeepAlive() error {
	return e.sse.Comment("ping")
}
