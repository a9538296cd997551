// Package testkit provides shared test helpers for reading Server-Sent Event
// streams and building frames.
package testkit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// SSEEvent represents a parsed Server-Sent Event.
type SSEEvent struct {
	Type string // e.g. "endpoint", "message"
	Data string // data lines joined by newlines
}

// ParseSSE parses raw SSE text into structured events. Comments are dropped.
func ParseSSE(raw string) []SSEEvent {
	r := NewSSEReader(strings.NewReader(raw))
	var events []SSEEvent
	for {
		ev, err := r.Next()
		if err != nil {
			return events
		}
		events = append(events, ev)
	}
}

// SSEReader reads events one at a time from a live stream.
type SSEReader struct {
	r *bufio.Reader
}

// NewSSEReader wraps r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{r: bufio.NewReader(r)}
}

// Next blocks until a complete event arrives. It returns io.EOF when the
// stream ends between events.
func (s *SSEReader) Next() (SSEEvent, error) {
	var ev SSEEvent
	var data []string
	seen := false
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if seen && line == "" {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
			return SSEEvent{}, err
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if seen {
				ev.Data = strings.Join(data, "\n")
				return ev, nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Type = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			seen = true
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			seen = true
		}
	}
}

// Stream reads events from r on a goroutine until the stream ends.
func Stream(r io.Reader) <-chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	go func() {
		defer close(ch)
		sr := NewSSEReader(r)
		for {
			ev, err := sr.Next()
			if err != nil {
				return
			}
			ch <- ev
		}
	}()
	return ch
}

// Await returns the next event from ch or fails after timeout.
func Await(ch <-chan SSEEvent, timeout time.Duration) (SSEEvent, error) {
	select {
	case ev, ok := <-ch:
		if !ok {
			return SSEEvent{}, io.EOF
		}
		return ev, nil
	case <-time.After(timeout):
		return SSEEvent{}, fmt.Errorf("no event within %s", timeout)
	}
}

// EventsOfType filters events to only those matching the given type.
func EventsOfType(events []SSEEvent, eventType string) []SSEEvent {
	var filtered []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Frame builds a native request frame.
func Frame(id, class, operation, name string, args map[string]any) string {
	m := map[string]any{"id": id, "class": class, "operation": operation}
	if name != "" {
		m["name"] = name
	}
	if args != nil {
		m["arguments"] = args
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic("testkit: frame is not representable: " + err.Error())
	}
	return string(b)
}

// DecodeFrame parses a response frame from event data.
func DecodeFrame(data string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		panic("testkit: invalid frame " + data + ": " + err.Error())
	}
	return m
}
