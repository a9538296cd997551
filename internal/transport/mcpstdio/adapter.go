// Package mcpstdio provides the stream transport: newline-delimited frames on
// an input channel answered one at a time on an output channel. Native
// capability frames and MCP JSON-RPC messages are both accepted.
package mcpstdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
	"github.com/realestate-mcp/realestate-mcp-server/internal/wire"
)

// DefaultMaxFrameBytes bounds a single inbound line.
const DefaultMaxFrameBytes = 1 << 20

// State is the lifecycle state of the adapter.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateDispatching
	StateWriting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateWriting:
		return "writing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Adapter serves a single client over a pair of byte streams. Frames are
// handled strictly in order: the next line is not read until the previous
// response has been flushed.
type Adapter struct {
	handler  wire.Handler
	codec    *wire.Codec
	reader   io.Reader
	out      *frameEmitter
	logger   *slog.Logger
	maxFrame int
	state    atomic.Int32
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger. Stdout carries frames, so the logger
// must write elsewhere.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMaxFrameBytes bounds the size of one inbound frame.
func WithMaxFrameBytes(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxFrame = n
		}
	}
}

// WithCodec replaces the default frame codec.
func WithCodec(c *wire.Codec) Option {
	return func(a *Adapter) { a.codec = c }
}

// NewAdapter creates a stream Adapter that answers frames from r on w.
func NewAdapter(h wire.Handler, r io.Reader, w io.Writer, opts ...Option) *Adapter {
	a := &Adapter{
		handler:  h,
		codec:    &wire.Codec{},
		reader:   r,
		out:      newFrameEmitter(w),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxFrame: DefaultMaxFrameBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State reports the current lifecycle state.
func (a *Adapter) State() State { return State(a.state.Load()) }

func (a *Adapter) setState(s State) { a.state.Store(int32(s)) }

type scanned struct {
	line []byte
	err  error
}

// Run serves frames until the input ends, an unanswerable frame arrives or
// ctx is cancelled. End of input returns nil; an unreadable or undecodable
// frame returns an error wrapping *protocol.TransportError.
func (a *Adapter) Run(ctx context.Context) error {
	a.setState(StateReading)
	defer a.setState(StateClosed)

	lines := make(chan scanned)
	next := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go a.scan(lines, next, done)

	for {
		var s scanned
		select {
		case <-ctx.Done():
			a.logger.InfoContext(ctx, "stdio transport stopping", "reason", ctx.Err())
			return ctx.Err()
		case s = <-lines:
		}

		if s.err != nil {
			if errors.Is(s.err, io.EOF) {
				a.logger.InfoContext(ctx, "stdio input closed")
				return nil
			}
			a.logger.ErrorContext(ctx, "stdio read failed", "error", s.err)
			return &protocol.TransportError{Op: "read", Err: s.err}
		}

		if len(bytes.TrimSpace(s.line)) > 0 {
			if err := a.handleFrame(ctx, s.line); err != nil {
				return err
			}
		}

		a.setState(StateReading)
		next <- struct{}{}
	}
}

// scan reads lines on its own goroutine so Run can observe cancellation
// while blocked on input. It waits on next before reading again.
func (a *Adapter) scan(lines chan<- scanned, next, done <-chan struct{}) {
	scanner := bufio.NewScanner(a.reader)
	scanner.Buffer(make([]byte, 0, min(64*1024, a.maxFrame)), a.maxFrame)
	for scanner.Scan() {
		line := bytes.Clone(scanner.Bytes())
		select {
		case lines <- scanned{line: line}:
		case <-done:
			return
		}
		select {
		case <-next:
		case <-done:
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case lines <- scanned{err: err}:
	case <-done:
	}
}

func (a *Adapter) handleFrame(ctx context.Context, line []byte) error {
	a.setState(StateDispatching)

	call, err := a.codec.Decode(line)
	if err != nil {
		var de *wire.DecodeError
		if errors.As(err, &de) && de.Answerable() {
			a.logger.WarnContext(ctx, "rejected malformed frame", "error", err)
			return a.emit(de.Reply())
		}
		a.logger.ErrorContext(ctx, "undecodable frame, closing stream", "error", err)
		return err
	}

	a.logger.DebugContext(ctx, "frame received", "id", call.ID(), "method", call.Method(), "dialect", call.Dialect())
	reply, err := call.Serve(ctx, a.handler)
	if err != nil {
		return &protocol.TransportError{Op: "encode", Err: err}
	}
	if reply == nil {
		return nil
	}
	return a.emit(reply)
}

func (a *Adapter) emit(frame []byte) error {
	a.setState(StateWriting)
	if err := a.out.Emit(frame); err != nil {
		return &protocol.TransportError{Op: "write", Err: err}
	}
	return nil
}
