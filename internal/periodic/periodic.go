// Package periodic runs a callback on a fixed interval on its own goroutine
// until the callback asks to stop or the handle is stopped.
package periodic

import (
	"sync"
	"time"
)

// Result tells the runner whether to keep going.
type Result int

const (
	Continue Result = iota
	Stop
)

// Handle controls a running periodic callback.
type Handle struct {
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// Start calls fn every interval, first after one interval has elapsed.
func Start(fn func() Result, interval time.Duration) *Handle {
	h := &Handle{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go h.run(fn, interval)
	return h
}

func (h *Handle) run(fn func() Result, interval time.Duration) {
	defer close(h.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if fn() == Stop {
				return
			}
		}
	}
}

// Stop halts the callback and waits for an in-flight call to return. It is
// safe to call more than once and after the callback stopped itself.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.doneCh
}

// Done is closed once the runner goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.doneCh
}
