package session

import (
	"context"
	"log/slog"
	"sync"
)

const queueSize = 64

// sendRequest is one outbound write waiting for its turn on the wire.
type sendRequest struct {
	data []byte
	// done is closed once the bytes have been handed to the transport
	done chan struct{}
}

// Dispatcher serializes writes to the transport. Requests are written
// strictly one at a time in the order they were queued, so multi-byte
// control sequences from different senders never interleave.
type Dispatcher struct {
	mu        sync.Mutex
	transport Transport

	queue chan *sendRequest
	// stopped is closed once Run has returned
	stopped  chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan *sendRequest, queueSize),
		stopped: make(chan struct{}),
		logger:  logger.With("component", "dispatcher"),
	}
}

// Attach directs subsequent writes to t.
func (d *Dispatcher) Attach(t Transport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transport = t
}

// Detach stops writing. Queued requests complete without being written.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transport = nil
}

func (d *Dispatcher) attached() Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transport
}

// Send queues data and waits until it has been written. Without an
// attached transport, or once Run has returned, it returns immediately.
// Write failures are logged and not returned; only cancellation of ctx is.
func (d *Dispatcher) Send(ctx context.Context, data []byte) error {
	if d.attached() == nil || d.isStopped() {
		d.logger.Debug("dropping write, not connected", "bytes", len(data))
		return nil
	}

	req := &sendRequest{
		data: data,
		done: make(chan struct{}),
	}

	select {
	case d.queue <- req:
	case <-d.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
	case <-d.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (d *Dispatcher) pending() int {
	return len(d.queue)
}

func (d *Dispatcher) isStopped() bool {
	select {
	case <-d.stopped:
		return true
	default:
		return false
	}
}

// Run services the queue until ctx is cancelled. Only one Run may be
// active, and a Dispatcher is not serviced again once Run has returned:
// requests still queued are released without being written.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-d.queue:
			d.write(req.data)
			close(req.done)
		}
	}
}

func (d *Dispatcher) stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
	for {
		select {
		case req := <-d.queue:
			close(req.done)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(data []byte) {
	t := d.attached()
	if t == nil {
		return
	}
	if err := writeFull(t, data); err != nil {
		d.logger.Error(ErrWriteFailed.Error(), "error", err, "bytes", len(data))
	}
}
