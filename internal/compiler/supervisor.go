package compiler

import (
	"context"
	"sync"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/mailbox"
	"github.com/specialistvlad/texpen/internal/metrics"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// Supervisor is the handle through which callers talk to the compiler
// worker. It is safe for concurrent use and may be shared freely.
type Supervisor struct {
	requests *mailbox.Mailbox[Request]
	done     chan struct{}
	quitOnce sync.Once
}

// Spawn starts a worker goroutine and returns its supervisor. The worker
// logs through the logger carried by ctx; cancelling ctx aborts an in-flight
// backend run but does not stop the worker.
func Spawn(ctx context.Context, sink Sink, backends *backend.Registry, m *metrics.Compiler) *Supervisor {
	s := &Supervisor{
		requests: mailbox.New[Request](),
		done:     make(chan struct{}),
	}
	w := NewWorker(s.requests, sink, backends, m)
	go func() {
		defer close(s.done)
		w.Run(ctxlog.With(ctx, "component", "compiler"))
	}()
	return s
}

// Submit hands a task to the worker without blocking. Submissions after the
// worker has gone away are dropped.
func (s *Supervisor) Submit(ctx context.Context, id objectid.ID, task equation.Task) {
	if err := s.requests.Send(Compile{ID: id, Task: task}); err != nil {
		ctxlog.FromContext(ctx).Debug("Compile request dropped.", "object_id", id, "error", err)
	}
}

// Shutdown asks the worker to finish its pending work and exit. It does not
// wait; use Done or Wait for that.
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.quitOnce.Do(func() {
		if err := s.requests.Send(Quit{}); err != nil {
			ctxlog.FromContext(ctx).Debug("Compiler already closed, shutdown request dropped.", "error", err)
		}
	})
}

// Close drops the request mailbox. The worker stops at its next receive
// without finishing pending work.
func (s *Supervisor) Close() {
	s.requests.Close()
}

// Done is closed once the worker goroutine has exited.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the worker exits or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
