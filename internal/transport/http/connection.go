package httpx

import (
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/semaphore"
)

// ConnState is the lifecycle state of one event-stream connection.
type ConnState int32

const (
	ConnConnecting ConnState = iota
	ConnOpen
	ConnDraining
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnOpen:
		return "open"
	case ConnDraining:
		return "draining"
	case ConnClosed:
		return "closed"
	}
	return "unknown"
}

// connection is one client event stream. Its outbound queue and slot
// semaphore share one capacity: a slot is held from the moment a request is
// accepted until its response has been written to the stream or dropped, so
// sending on out never blocks.
type connection struct {
	id    string
	out   chan []byte
	slots *semaphore.Weighted

	mu       sync.Mutex // orders accept against the Open→Draining transition
	state    atomic.Int32
	inflight conc.WaitGroup
	discard  atomic.Bool

	stop     chan struct{}
	stopOnce sync.Once
	closed   chan struct{}
}

func newConnection(id string, capacity int) *connection {
	return &connection{
		id:     id,
		out:    make(chan []byte, capacity),
		slots:  semaphore.NewWeighted(int64(capacity)),
		stop:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (c *connection) State() ConnState { return ConnState(c.state.Load()) }

func (c *connection) setState(s ConnState) { c.state.Store(int32(s)) }

// open moves a connecting connection to open. A stop requested before the
// endpoint was sent wins.
func (c *connection) open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() == ConnConnecting {
		c.setState(ConnOpen)
	}
}

// accept runs job as an in-flight dispatch if the connection is still open.
// The caller must hold a slot; on false it still owns it.
func (c *connection) accept(job func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != ConnOpen {
		return false
	}
	c.inflight.Go(job)
	return true
}

// beginDrain stops accepting requests. It reports whether this call made the
// transition.
func (c *connection) beginDrain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.State() {
	case ConnDraining, ConnClosed:
		return false
	}
	c.setState(ConnDraining)
	return true
}

// requestStop asks the stream owner to drain, deliver in-flight responses
// and close.
func (c *connection) requestStop() {
	c.beginDrain()
	c.stopOnce.Do(func() { close(c.stop) })
}

// deliver queues a finished response, or drops it and frees its slot when
// the client is gone.
func (c *connection) deliver(frame []byte) {
	if frame == nil || c.discard.Load() {
		c.slots.Release(1)
		return
	}
	c.out <- frame
}

// dropQueued frees the slots of responses that will never be written.
func (c *connection) dropQueued() int {
	n := 0
	for {
		select {
		case <-c.out:
			c.slots.Release(1)
			n++
		default:
			return n
		}
	}
}
