package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/realestate-mcp/realestate-mcp-server/internal/protocol"
)

// Observer is notified once per handled request.
type Observer interface {
	ObserveDispatch(class protocol.Class, op protocol.Operation, outcome string, elapsed time.Duration)
}

// Dispatcher routes requests to handlers via the registry.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	observer Observer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithObserver attaches a per-request observer.
func WithObserver(o Observer) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// NewDispatcher creates a Dispatcher and seals the registry: nothing can be
// registered once a dispatcher may serve from it.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	registry.Seal()
	d := &Dispatcher{
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher serves from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Handle resolves req to its handler and produces exactly one Response.
// It never panics and never returns a handler failure as a Go error.
func (d *Dispatcher) Handle(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	start := time.Now()
	defer func() {
		outcome := string(protocol.OutcomeOK)
		if !resp.OK() {
			outcome = string(resp.Error.Kind)
			d.logger.DebugContext(ctx, "request failed",
				"id", req.ID, "class", req.Class, "operation", req.Operation,
				"name", req.Name, "kind", resp.Error.Kind, "error", resp.Error.Message)
		}
		if d.observer != nil {
			d.observer.ObserveDispatch(req.Class, req.Operation, outcome, time.Since(start))
		}
	}()

	if !req.Class.Valid() {
		return protocol.Fail(req.ID, &protocol.InvalidArgumentError{Param: "class", Reason: fmt.Sprintf("unknown class '%s'", req.Class)})
	}

	switch req.Operation {
	case protocol.OpList:
		payload, err := json.Marshal(d.registry.List(req.Class))
		if err != nil {
			return protocol.Fail(req.ID, &protocol.HandlerError{Message: "listing is not representable: " + err.Error(), Err: err})
		}
		return protocol.Success(req.ID, payload)
	case protocol.OpInvoke:
		return d.invoke(ctx, req)
	default:
		return protocol.Fail(req.ID, &protocol.InvalidArgumentError{Param: "operation", Reason: fmt.Sprintf("unknown operation '%s'", req.Operation)})
	}
}

func (d *Dispatcher) invoke(ctx context.Context, req protocol.Request) protocol.Response {
	if req.Name == "" {
		return protocol.Fail(req.ID, &protocol.InvalidArgumentError{Param: "name", Reason: "name is required to invoke a " + string(req.Class)})
	}

	args := req.Arguments
	desc, err := d.registry.Resolve(req.Class, req.Name)
	if err != nil {
		matched, vars, ok := d.matchTemplate(req)
		if !ok {
			return protocol.Fail(req.ID, err)
		}
		desc = matched
		args = args.Clone()
		for k, v := range vars {
			args[k] = v
		}
	}

	valid, err := Validate(desc.Schema, args)
	if err != nil {
		return protocol.Fail(req.ID, err)
	}

	result, err := d.call(ctx, desc, valid)
	if err != nil {
		d.logger.WarnContext(ctx, "handler failed", "class", desc.Class, "name", desc.Name, "error", err)
		return protocol.Fail(req.ID, &protocol.HandlerError{Message: err.Error(), Err: err})
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return protocol.Fail(req.ID, &protocol.HandlerError{Message: "result is not representable: " + err.Error(), Err: err})
	}
	return protocol.Success(req.ID, payload)
}

func (d *Dispatcher) matchTemplate(req protocol.Request) (protocol.Descriptor, map[string]string, bool) {
	if req.Class != protocol.ClassResource {
		return protocol.Descriptor{}, nil, false
	}
	return d.registry.MatchResource(req.Name)
}

// call runs the handler, converting a panic into an error.
func (d *Dispatcher) call(ctx context.Context, desc protocol.Descriptor, args protocol.Arguments) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.ErrorContext(ctx, "handler panicked", "class", desc.Class, "name", desc.Name, "panic", rec)
			err = fmt.Errorf("%s '%s' panicked: %v", desc.Class, desc.Name, rec)
		}
	}()
	return desc.Handler(ctx, args)
}
