package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/realestate-mcp/realestate-mcp-server/internal/server"
	"github.com/realestate-mcp/realestate-mcp-server/internal/wire"
)

// Defaults applied to zero Options fields.
const (
	DefaultQueueCapacity = 64
	DefaultKeepAlive     = 15 * time.Second
	DefaultMaxFrameBytes = 1 << 20
)

// Observer is notified of connection lifecycle and decode failures.
// *metrics.Metrics satisfies it.
type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	DecodeFailed(transport string)
}

// Options configures an Adapter.
type Options struct {
	// QueueCapacity bounds responses a connection may have outstanding.
	// Further posts block until a slot frees up.
	QueueCapacity int
	KeepAlive     time.Duration
	MaxFrameBytes int64
	Codec         *wire.Codec
	Logger        *slog.Logger
	Observer      Observer
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Adapter serves many concurrent clients. Each client opens GET /sse,
// receives an endpoint event naming its session, and posts frames to that
// endpoint. Responses are written to the client's own stream as they
// complete, so ordering across requests is not preserved.
type Adapter struct {
	handler wire.Handler
	opts    Options
	logger  *slog.Logger
	router  chi.Router

	mu       sync.RWMutex
	conns    map[string]*connection
	draining atomic.Bool
}

// NewAdapter creates an Adapter dispatching to h.
func NewAdapter(h wire.Handler, opts Options) *Adapter {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if opts.Codec == nil {
		opts.Codec = &wire.Codec{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	a := &Adapter{
		handler: h,
		opts:    opts,
		logger:  opts.Logger,
		conns:   make(map[string]*connection),
	}

	r := chi.NewRouter()
	r.Use(server.WithRequestID, server.Recover(a.logger), server.AccessLog(a.logger))
	r.Get("/sse", a.handleStream)
	r.Post("/messages", a.handleMessage)
	r.Post("/messages/", a.handleMessage)
	r.Get("/health", a.handleHealth)
	if opts.Metrics != nil {
		r.Mount("/metrics", opts.Metrics)
	}
	a.router = r
	return a
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Connections returns the number of registered connections.
func (a *Adapter) Connections() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.conns)
}

// ConnectionState reports the state of the connection with the given
// session id.
func (a *Adapter) ConnectionState(id string) (ConnState, bool) {
	c := a.lookup(id)
	if c == nil {
		return ConnClosed, false
	}
	return c.State(), true
}

// Shutdown stops accepting connections and requests, lets every open
// connection deliver its in-flight responses and waits for the streams to
// close or ctx to expire.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.draining.Store(true)

	a.mu.RLock()
	conns := make([]*connection, 0, len(a.conns))
	for _, c := range a.conns {
		conns = append(conns, c)
	}
	a.mu.RUnlock()

	a.logger.InfoContext(ctx, "draining event streams", "connections", len(conns))
	for _, c := range conns {
		c.requestStop()
	}
	for _, c := range conns {
		select {
		case <-c.closed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (a *Adapter) lookup(id string) *connection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.conns[id]
}

func (a *Adapter) register(c *connection) {
	a.mu.Lock()
	a.conns[c.id] = c
	a.mu.Unlock()
	a.opts.Observer.ConnectionOpened()
}

func (a *Adapter) unregister(c *connection) {
	a.mu.Lock()
	delete(a.conns, c.id)
	a.mu.Unlock()
	a.opts.Observer.ConnectionClosed()
}

// handleStream owns one connection's event stream for its whole life.
func (a *Adapter) handleStream(w http.ResponseWriter, r *http.Request) {
	if a.draining.Load() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	sse := server.NewSSEWriter(w)
	if sse == nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	emit := newSSEEmitter(sse)

	c := newConnection(ulid.Make().String(), a.opts.QueueCapacity)
	logger := a.logger.With("session_id", c.id)
	a.register(c)
	if a.draining.Load() {
		c.requestStop()
	}
	defer func() {
		c.setState(ConnClosed)
		a.unregister(c)
		close(c.closed)
		logger.Info("event stream closed")
	}()

	w.WriteHeader(http.StatusOK)
	if err := emit.SendEndpoint("/messages?session_id=" + c.id); err != nil {
		logger.Warn("endpoint event failed", "error", err)
		c.beginDrain()
		a.abandon(c)
		return
	}
	c.open()
	logger.Info("event stream opened", "request_id", server.RequestID(r.Context()))

	keepAlive := time.NewTicker(a.opts.KeepAlive)
	defer keepAlive.Stop()

	stop := c.stop
	var flushed chan struct{}
	for {
		select {
		case frame := <-c.out:
			err := emit.SendFrame(frame)
			c.slots.Release(1)
			if err != nil {
				logger.Warn("stream write failed", "error", err)
				c.beginDrain()
				a.abandon(c)
				return
			}

		case <-keepAlive.C:
			if err := emit.SendKeepAlive(); err != nil {
				c.beginDrain()
				a.abandon(c)
				return
			}

		case <-r.Context().Done():
			logger.Info("client disconnected")
			c.beginDrain()
			a.abandon(c)
			return

		case <-stop:
			stop = nil
			flushed = make(chan struct{})
			go func() {
				c.inflight.Wait()
				close(flushed)
			}()

		case <-flushed:
			for {
				select {
				case frame := <-c.out:
					err := emit.SendFrame(frame)
					c.slots.Release(1)
					if err != nil {
						c.dropQueued()
						return
					}
				default:
					return
				}
			}
		}
	}
}

// abandon waits for in-flight dispatches of a connection whose client is
// gone and drops their responses.
func (a *Adapter) abandon(c *connection) {
	c.discard.Store(true)
	c.inflight.Wait()
	if n := c.dropQueued(); n > 0 {
		a.logger.Debug("dropped responses for closed stream", "session_id", c.id, "count", n)
	}
}

// handleMessage accepts one frame for the connection named by session_id.
func (a *Adapter) handleMessage(w http.ResponseWriter, r *http.Request) {
	c := a.lookup(r.URL.Query().Get("session_id"))
	if c == nil {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}
	if a.draining.Load() || c.State() != ConnOpen {
		http.Error(w, "Connection is closing", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.opts.MaxFrameBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Frame too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var reply []byte
	call, err := a.opts.Codec.Decode(body)
	if err != nil {
		a.opts.Observer.DecodeFailed("sse")
		var de *wire.DecodeError
		if !errors.As(err, &de) || !de.Answerable() {
			a.logger.WarnContext(r.Context(), "undecodable frame, closing stream",
				"session_id", c.id, "error", err)
			http.Error(w, "Invalid frame", http.StatusBadRequest)
			c.requestStop()
			return
		}
		reply = de.Reply()
	}

	if err := c.slots.Acquire(r.Context(), 1); err != nil {
		// The poster went away while the connection was saturated.
		return
	}

	job := func() { c.deliver(reply) }
	if call != nil {
		job = func() { c.deliver(a.serve(c, call)) }
	}
	if !c.accept(job) {
		c.slots.Release(1)
		http.Error(w, "Connection is closing", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	io.WriteString(w, "Accepted")
}

// serve dispatches call independently of the posting request, so a poster
// disconnecting does not abandon work whose response belongs to the stream.
func (a *Adapter) serve(c *connection, call *wire.Call) []byte {
	ctx := context.Background()
	a.logger.Debug("frame received", "session_id", c.id, "id", call.ID(),
		"method", call.Method(), "dialect", call.Dialect())
	reply, err := call.Serve(ctx, a.handler)
	if err != nil {
		a.logger.Error("encode response failed", "session_id", c.id, "id", call.ID(), "error", err)
		return nil
	}
	return reply
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "healthy"
	if a.draining.Load() {
		status = "draining"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      status,
		"service":     a.opts.Codec.ServerName,
		"connections": a.Connections(),
	})
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened()   {}
func (nopObserver) ConnectionClosed()   {}
func (nopObserver) DecodeFailed(string) {}
