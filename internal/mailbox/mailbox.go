// Package mailbox provides an unbounded multi-producer, single-consumer
// queue. Sends never block, so producers such as UI handlers can hand work to
// a background goroutine without waiting on it.
package mailbox

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close, and by RecvContext once the
// mailbox is closed and drained.
var ErrClosed = errors.New("mailbox: closed")

// Status is the outcome of a non-blocking receive.
type Status int

const (
	// Received means a message was returned.
	Received Status = iota
	// Empty means no message is queued right now.
	Empty
	// Closed means the mailbox is closed and fully drained.
	Closed
)

// Mailbox is an unbounded FIFO queue. Messages sent before Close are still
// delivered after it.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// New creates an open, empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{signal: make(chan struct{}, 1)}
}

// Send enqueues v. It never blocks.
func (m *Mailbox[T]) Send(v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.items = append(m.items, v)
	select {
	case m.signal <- struct{}{}:
	default:
	}
	return nil
}

// Close stops accepting messages. It is idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.signal)
}

// TryRecv returns the oldest message without blocking.
func (m *Mailbox[T]) TryRecv() (T, Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	if len(m.items) > 0 {
		v := m.items[0]
		m.items[0] = zero
		m.items = m.items[1:]
		return v, Received
	}
	if m.closed {
		return zero, Closed
	}
	return zero, Empty
}

// Recv blocks until a message is available. ok is false once the mailbox is
// closed and drained.
func (m *Mailbox[T]) Recv() (T, bool) {
	for {
		v, status := m.TryRecv()
		switch status {
		case Received:
			return v, true
		case Closed:
			return v, false
		}
		<-m.signal
	}
}

// RecvContext is like Recv but gives up when ctx is done.
func (m *Mailbox[T]) RecvContext(ctx context.Context) (T, error) {
	for {
		v, status := m.TryRecv()
		switch status {
		case Received:
			return v, nil
		case Closed:
			return v, ErrClosed
		}
		select {
		case <-m.signal:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of queued messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
