package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/realestate-mcp/realestate-mcp-server/internal/server"
)

func TestSSEEmitter_SendEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	sse := server.NewSSEWriter(rec)
	if sse == nil {
		t.Fatal("NewSSEWriter returned nil")
	}
	emit := newSSEEmitter(sse)
	if err := emit.SendEndpoint("/messages?session_id=abc"); err != nil {
		t.Fatalf("SendEndpoint: %v", err)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: endpoint") {
		t.Error("expected endpoint event")
	}
	if !strings.Contains(body, "data: /messages?session_id=abc") {
		t.Error("expected endpoint url")
	}
}

func TestSSEEmitter_SendFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	emit := newSSEEmitter(server.NewSSEWriter(rec))
	emit.SendFrame([]byte(`{"id":"1","success":true,"payload":2}`))
	body := rec.Body.String()
	if !strings.Contains(body, "event: message") {
		t.Error("expected message event")
	}
	if !strings.Contains(body, `"payload":2`) {
		t.Error("expected frame content")
	}
}

func TestSSEEmitter_SendKeepAlive(t *testing.T) {
	rec := httptest.NewRecorder()
	emit := newSSEEmitter(server.NewSSEWriter(rec))
	emit.SendKeepAlive()
	if rec.Body.String() != ": ping\n\n" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
