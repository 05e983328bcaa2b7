// Package queue holds accepted captures until the single writer drains them.
//
// Producers never block: a full queue rejects the capture so the caller can
// answer with backpressure.
package queue

import (
	"context"
	"sync"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/metrics"
)

const defaultQueueCapacity = 1000

// Capture is the payload type flowing through the queue.
type Capture = model.Capture

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a capture. It returns ErrFull or ErrClosed when the
	// capture was not accepted.
	Enqueue(ctx context.Context, c Capture) error

	// Dequeue returns a channel that yields captures in arrival order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Capture

	// Len returns the current number of queued captures.
	Len(ctx context.Context) int

	// Close stops accepting captures.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	captures chan Capture
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.captures = make(chan Capture, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a capture to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Capture) error { //nolint:gocritic // hugeParam: Capture is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.captures <- c:
		metrics.UpdateQueueSize(len(q.captures))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		return ErrFull
	}
}

// Dequeue returns a channel that receives captures as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Capture {
	out := make(chan Capture)
	go func() {
		defer close(out)
		for c := range q.captures {
			select {
			case out <- c:
				metrics.UpdateQueueSize(len(q.captures))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued captures.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.captures)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting captures. Already queued captures stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.captures)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
