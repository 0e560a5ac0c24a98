package terrain

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the snapshot queue depth used when none is configured.
const DefaultCapacity = 10

// Progress is a bounded FIFO of matrix snapshots from a builder to one
// consumer. Publish blocks while the queue is full, which throttles the
// builder to the consumer's pace. No end-of-stream value is ever sent: a
// consumer is done when the producer's Handle finished and Len is zero.
type Progress struct {
	ch        chan *Matrix
	closed    chan struct{}
	closeOnce sync.Once
}

// NewProgress creates a queue holding at most capacity snapshots. Capacities
// below one fall back to DefaultCapacity.
func NewProgress(capacity int) *Progress {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Progress{
		ch:     make(chan *Matrix, capacity),
		closed: make(chan struct{}),
	}
}

// Publish enqueues m, blocking while the queue is full. Ownership of m passes
// to the consumer. It fails with ErrChannelClosed once Close was called and
// with ctx.Err() if ctx ends first.
func (p *Progress) Publish(ctx context.Context, m *Matrix) error {
	select {
	case <-p.closed:
		return ErrChannelClosed
	default:
	}
	select {
	case p.ch <- m:
		return nil
	case <-p.closed:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits up to timeout for the next snapshot. It returns
// ErrReceiveTimeout when none arrived; callers retry.
func (p *Progress) Receive(timeout time.Duration) (*Matrix, error) {
	select {
	case m := <-p.ch:
		return m, nil
	default:
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case m := <-p.ch:
		return m, nil
	case <-t.C:
		return nil, ErrReceiveTimeout
	}
}

// TryReceive returns the next snapshot without waiting.
func (p *Progress) TryReceive() (*Matrix, bool) {
	select {
	case m := <-p.ch:
		return m, true
	default:
		return nil, false
	}
}

// Len returns the number of queued snapshots.
func (p *Progress) Len() int { return len(p.ch) }

// Cap returns the queue capacity.
func (p *Progress) Cap() int { return cap(p.ch) }

// Close abandons the queue from the consumer side. Later Publish calls fail
// with ErrChannelClosed. Snapshots already queued stay receivable.
func (p *Progress) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
}
