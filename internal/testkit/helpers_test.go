package testkit

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseSSE(t *testing.T) {
	raw := "event: endpoint\ndata: /messages?session_id=1\n\n" +
		": ping\n\n" +
		"event: message\ndata: {\"a\":1}\n\n" +
		"data: line1\ndata: line2\n\n"

	events := ParseSSE(raw)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(events), events)
	}
	if events[0].Type != "endpoint" || events[0].Data != "/messages?session_id=1" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[2].Type != "" || events[2].Data != "line1\nline2" {
		t.Errorf("event 2 = %+v", events[2])
	}
	if got := EventsOfType(events, "message"); len(got) != 1 {
		t.Errorf("EventsOfType(message) = %d, want 1", len(got))
	}
}

func TestParseSSE_UnterminatedEvent(t *testing.T) {
	events := ParseSSE("event: message\ndata: x\n")
	if len(events) != 1 || events[0].Data != "x" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestStreamAndAwait(t *testing.T) {
	pr, pw := io.Pipe()
	ch := Stream(pr)

	go io.WriteString(pw, "event: message\ndata: hi\n\n")
	ev, err := Await(ch, time.Second)
	if err != nil || ev.Data != "hi" {
		t.Fatalf("Await = %+v, %v", ev, err)
	}

	if _, err := Await(ch, 20*time.Millisecond); err == nil || err == io.EOF {
		t.Errorf("expected timeout, got %v", err)
	}

	pw.Close()
	if _, err := Await(ch, time.Second); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
}

func TestFrame(t *testing.T) {
	got := DecodeFrame(Frame("7", "tool", "invoke", "echo", map[string]any{"text": "hi"}))
	if got["id"] != "7" || got["class"] != "tool" || got["name"] != "echo" {
		t.Errorf("unexpected frame %v", got)
	}
	if !strings.Contains(Frame("8", "tool", "list", "", nil), `"operation":"list"`) {
		t.Error("missing operation")
	}
	if _, ok := DecodeFrame(Frame("8", "tool", "list", "", nil))["name"]; ok {
		t.Error("empty name should be omitted")
	}
}
