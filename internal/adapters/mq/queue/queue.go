// Package queue buffers stimuli until the next tick applies them.
//
// Producers (HTTP handlers) enqueue from any goroutine. The single consumer
// drains the whole backlog at the start of a tick so every stimulus is
// applied inside the simulation's dispatch pass.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/lapicque/internal/domain/model"
	"github.com/okian/lapicque/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Stimulus is the payload type flowing through the queue.
type Stimulus = model.Stimulus

// Queue provides non-blocking enqueue and batch drain.
type Queue interface {
	// Enqueue adds a stimulus. It fails with ErrFull or ErrClosed instead of
	// blocking.
	Enqueue(ctx context.Context, s Stimulus) error

	// Drain removes and returns every queued stimulus in FIFO order.
	Drain(ctx context.Context) []Stimulus

	// Len returns the number of queued stimuli.
	Len(ctx context.Context) int

	// Close rejects further enqueues. Already queued stimuli can still be
	// drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Stimulus
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.events = make(chan Stimulus, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a stimulus to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Stimulus) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue stimulus %s: %w", s.ID, err)
	}

	select {
	case q.events <- s:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		return ErrFull
	}
}

// Drain returns everything queued at the time of the call.
func (q *InMemoryQueue) Drain(ctx context.Context) []Stimulus {
	n := len(q.events)
	if n == 0 {
		return nil
	}
	out := make([]Stimulus, 0, n)
loop:
	for len(out) < n && ctx.Err() == nil {
		select {
		case s := <-q.events:
			out = append(out, s)
		default:
			break loop
		}
	}
	metrics.UpdateQueueSize(len(q.events))
	return out
}

// Len returns the current number of queued stimuli.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting stimuli.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
