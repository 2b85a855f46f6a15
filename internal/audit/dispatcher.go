package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// DropReason says why an event never reached the sink.
type DropReason string

const (
	DropBufferFull DropReason = "buffer_full"
	DropClosed     DropReason = "closed"
	DropCancelled  DropReason = "cancelled"
)

// Config controls dispatcher buffering behavior. OnDrop, when set, is called
// synchronously from Emit for every event that is not queued.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	OnDrop     func(Event, DropReason)
}

// Dispatcher moves flow outcome events off the request path. Events from one
// goroutine reach the sink in the order they were emitted.
type Dispatcher struct {
	cfg  Config
	sink Sink
	ch   chan Event

	// mu orders Emit against Close: sends hold it shared, Close holds it
	// exclusively while it marks the dispatcher closed and closes ch.
	mu     sync.RWMutex
	closed bool

	delivered sync.WaitGroup
	dropped   atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when cfg is
// disabled; every method is safe on a nil *Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Event, cfg.BufferSize),
	}
	d.delivered.Add(1)
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer d.delivered.Done()
	for ev := range d.ch {
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit queues ev for the sink. An event emitted after Close, one that finds
// the buffer full under DropIfFull, and one whose ctx ends while waiting for
// buffer space are dropped and counted.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ev, DropClosed)
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- ev:
		default:
			d.drop(ev, DropBufferFull)
		}
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.ch <- ev:
	case <-ctx.Done():
		d.drop(ev, DropCancelled)
	}
}

func (d *Dispatcher) drop(ev Event, reason DropReason) {
	d.dropped.Add(1)
	if d.cfg.OnDrop != nil {
		d.cfg.OnDrop(ev, reason)
	}
}

// Close stops accepting events and waits until every queued event has
// reached the sink. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	d.delivered.Wait()
}

// Dropped reports how many events never reached the sink.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
