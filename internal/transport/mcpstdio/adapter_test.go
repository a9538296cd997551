package mcpstdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/realestate-mcp/realestate-mcp-server/internal/host"
	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
	"github.com/realestate-mcp/realestate-mcp-server/internal/wire"
)

func echo(_ context.Context, args protocol.Arguments) (any, error) {
	return args.String("text"), nil
}

func setupAdapter(t *testing.T, input string, opts ...Option) (*Adapter, *bytes.Buffer) {
	t.Helper()
	reg := host.NewRegistry()
	if err := reg.Register(protocol.ClassTool, "echo", protocol.Params(protocol.String("text", "", true)), echo); err != nil {
		t.Fatalf("register: %v", err)
	}
	out := &bytes.Buffer{}
	return NewAdapter(host.NewDispatcher(reg), strings.NewReader(input), out, opts...), out
}

func decodeLines(t *testing.T, out *bytes.Buffer) []map[string]any {
	t.Helper()
	var frames []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("failed to parse response %q: %v", line, err)
		}
		frames = append(frames, m)
	}
	return frames
}

func TestRun_OrderedResponses(t *testing.T) {
	adapter, out := setupAdapter(t,
		`{"id":"1","class":"tool","operation":"invoke","name":"echo","arguments":{"text":"hi"}}`+"\n"+
			`{"id":"2","class":"tool","operation":"invoke","name":"missing"}`+"\n")

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frames := decodeLines(t, out)
	if len(frames) != 2 {
		t.Fatalf("expected 2 responses, got %d: %s", len(frames), out.String())
	}
	if frames[0]["id"] != "1" || frames[0]["outcome"] != "ok" || frames[0]["payload"] != "hi" {
		t.Errorf("unexpected first response: %v", frames[0])
	}
	if frames[1]["id"] != "2" || frames[1]["outcome"] != "error" {
		t.Errorf("unexpected second response: %v", frames[1])
	}
	errObj := frames[1]["error"].(map[string]any)
	if errObj["kind"] != "NotFoundError" || errObj["message"] != "unknown tool 'missing'" {
		t.Errorf("unexpected failure: %v", errObj)
	}
	if adapter.State() != StateClosed {
		t.Errorf("expected closed state, got %s", adapter.State())
	}
}

func TestRun_BlankLinesSkipped(t *testing.T) {
	adapter, out := setupAdapter(t, "\n   \n"+`{"id":"1","class":"tool","operation":"list"}`+"\n\n")
	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := len(decodeLines(t, out)); n != 1 {
		t.Errorf("expected 1 response, got %d", n)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	adapter, out := setupAdapter(t, "")
	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestRun_UnanswerableFrameCloses(t *testing.T) {
	adapter, out := setupAdapter(t,
		`{"id":"1","class":"tool","operation":"list"}`+"\n"+
			"this is not json\n"+
			`{"id":"3","class":"tool","operation":"list"}`+"\n")

	err := adapter.Run(context.Background())
	var te *protocol.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	frames := decodeLines(t, out)
	if len(frames) != 1 || frames[0]["id"] != "1" {
		t.Errorf("expected only the first response, got %v", frames)
	}
	if adapter.State() != StateClosed {
		t.Errorf("expected closed state, got %s", adapter.State())
	}
}

func TestRun_AnswerableFrameContinues(t *testing.T) {
	adapter, out := setupAdapter(t,
		`{"id":"bad","class":"tool","operation":"invoke","arguments":"nope"}`+"\n"+
			`{"id":"good","class":"tool","operation":"invoke","name":"echo","arguments":{"text":"ok"}}`+"\n")

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frames := decodeLines(t, out)
	if len(frames) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(frames))
	}
	if kind := frames[0]["error"].(map[string]any)["kind"]; kind != "TransportError" {
		t.Errorf("expected TransportError, got %v", kind)
	}
	if frames[1]["payload"] != "ok" {
		t.Errorf("unexpected second response: %v", frames[1])
	}
}

func TestRun_UnusualIDsAnswered(t *testing.T) {
	adapter, out := setupAdapter(t,
		`{"id":{"k":1},"class":"tool","operation":"list"}`+"\n"+
			`{"id":true,"class":"tool","operation":"list"}`+"\n"+
			`{"jsonrpc":"2.0","id":null,"method":"ping"}`+"\n"+
			`[{"jsonrpc":"2.0","id":1,"method":"ping"}]`+"\n"+
			`{"id":"after","class":"tool","operation":"invoke","name":"echo","arguments":{"text":"still here"}}`+"\n")

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frames := decodeLines(t, out)
	if len(frames) != 5 {
		t.Fatalf("expected 5 responses, got %d: %v", len(frames), frames)
	}
	if id, ok := frames[0]["id"].(map[string]any); !ok || id["k"] != float64(1) || frames[0]["outcome"] != "ok" {
		t.Errorf("object id not echoed: %v", frames[0])
	}
	if frames[1]["id"] != true || frames[1]["outcome"] != "ok" {
		t.Errorf("boolean id not echoed: %v", frames[1])
	}
	for _, f := range frames[2:4] {
		id, present := f["id"]
		if !present || id != nil {
			t.Errorf("expected null id, got %v", f)
		}
		if code := f["error"].(map[string]any)["code"]; code != float64(wire.CodeInvalidRequest) {
			t.Errorf("expected invalid request, got %v", f)
		}
	}
	if frames[4]["payload"] != "still here" {
		t.Errorf("unexpected last response: %v", frames[4])
	}
}

func TestRun_FrameTooLarge(t *testing.T) {
	big := `{"id":"1","class":"tool","operation":"invoke","name":"echo","arguments":{"text":"` + strings.Repeat("x", 512) + `"}}`
	adapter, _ := setupAdapter(t, big+"\n", WithMaxFrameBytes(128))

	err := adapter.Run(context.Background())
	var te *protocol.TransportError
	if !errors.As(err, &te) || !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("expected frame-too-long TransportError, got %v", err)
	}
}

func TestRun_MCPSession(t *testing.T) {
	adapter, out := setupAdapter(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`+"\n"+
			`{"jsonrpc":"2.0","method":"notifications/initialized"}`+"\n"+
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`+"\n",
		WithCodec(&wire.Codec{ServerName: "realestate", ServerVersion: "test"}))

	if err := adapter.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frames := decodeLines(t, out)
	if len(frames) != 2 {
		t.Fatalf("expected 2 responses (notification unanswered), got %d", len(frames))
	}
	result := frames[0]["result"].(map[string]any)
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("unexpected protocol version: %v", result["protocolVersion"])
	}
	if info := result["serverInfo"].(map[string]any); info["name"] != "realestate" {
		t.Errorf("unexpected server info: %v", info)
	}
	content := frames[1]["result"].(map[string]any)["content"].([]any)
	if text := content[0].(map[string]any)["text"]; text != "hi" {
		t.Errorf("unexpected tool result: %v", text)
	}
}

// gatedHandler blocks each request until released and records the adapter
// state seen during dispatch.
type gatedHandler struct {
	adapter *Adapter
	release chan struct{}
	seen    atomic.Int32
	calls   atomic.Int32
}

func (g *gatedHandler) Handle(_ context.Context, req protocol.Request) protocol.Response {
	g.calls.Add(1)
	g.seen.Store(int32(g.adapter.State()))
	<-g.release
	return protocol.Success(req.ID, json.RawMessage(`null`))
}

func TestRun_SequentialDispatch(t *testing.T) {
	pr, pw := io.Pipe()
	out := &bytes.Buffer{}
	h := &gatedHandler{release: make(chan struct{})}
	adapter := NewAdapter(h, pr, out)
	h.adapter = adapter

	errCh := make(chan error, 1)
	go func() { errCh <- adapter.Run(context.Background()) }()

	go func() {
		io.WriteString(pw, `{"id":"1","class":"tool","operation":"invoke","name":"a"}`+"\n")
		io.WriteString(pw, `{"id":"2","class":"tool","operation":"invoke","name":"b"}`+"\n")
	}()

	waitFor(t, func() bool { return h.calls.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if n := h.calls.Load(); n != 1 {
		t.Fatalf("second frame dispatched before first completed: %d calls", n)
	}
	if State(h.seen.Load()) != StateDispatching {
		t.Errorf("expected dispatching state in handler, got %s", State(h.seen.Load()))
	}

	h.release <- struct{}{}
	waitFor(t, func() bool { return h.calls.Load() == 2 })
	h.release <- struct{}{}
	pw.Close()

	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `"id":"1"`) || !strings.Contains(out.String(), `"id":"2"`) {
		t.Errorf("missing responses: %s", out.String())
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	adapter, _ := setupAdapter(t, "")
	adapter.reader = pr

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- adapter.Run(ctx) }()

	waitFor(t, func() bool { return adapter.State() == StateReading })
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if adapter.State() != StateClosed {
		t.Errorf("expected closed state, got %s", adapter.State())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
