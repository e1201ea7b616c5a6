package compiler

import (
	"context"
	"time"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/mailbox"
	"github.com/specialistvlad/texpen/internal/metrics"
)

// Worker owns the pending work table and runs backends for it. It is driven
// by Run on exactly one goroutine.
type Worker struct {
	requests *mailbox.Mailbox[Request]
	sink     Sink
	backends *backend.Registry
	metrics  *metrics.Compiler
	pending  *pendingTable
	quitting bool
}

// NewWorker creates a worker reading from requests and reporting to sink.
// m may be nil.
func NewWorker(requests *mailbox.Mailbox[Request], sink Sink, backends *backend.Registry, m *metrics.Compiler) *Worker {
	return &Worker{
		requests: requests,
		sink:     sink,
		backends: backends,
		metrics:  m,
		pending:  newPendingTable(),
	}
}

// Run alternates between compiling one pending task and receiving requests
// until the worker is told to quit with nothing left to do, or its mailbox
// is closed.
func (w *Worker) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compiler worker started.")

	for {
		w.performWork(ctx)
		if w.receive(ctx) {
			break
		}
	}
	logger.Debug("Compiler worker finished.", "dropped", w.pending.len())
}

// performWork compiles at most one pending task.
func (w *Worker) performWork(ctx context.Context) {
	id, task, ok := w.pending.pop()
	if !ok {
		return
	}
	w.metrics.SetPending(w.pending.len())

	cfg := task.Config()
	logger := ctxlog.FromContext(ctx).With("object_id", id, "backend", cfg.Backend)
	logger.Debug("Compiling equation.", "pending", w.pending.len())

	b, err := w.backends.Resolve(cfg.Backend)
	if err != nil {
		logger.Warn("No backend for equation.", "error", err)
		w.sink.Emit(SetError{ID: id, Err: backend.AsError(err)})
		return
	}

	start := time.Now()
	markup, err := b.Generate(ctx, task.Source(), cfg)
	elapsed := time.Since(start)

	if err != nil {
		w.metrics.ObserveCompilation(string(cfg.Backend), metrics.OutcomeFailure, elapsed)
		logger.Debug("Equation compilation failed.", "duration", elapsed, "error", err)
		w.sink.Emit(SetError{ID: id, Err: backend.AsError(err)})
		return
	}
	w.metrics.ObserveCompilation(string(cfg.Backend), metrics.OutcomeSuccess, elapsed)
	logger.Debug("Equation compiled.", "duration", elapsed, "bytes", len(markup))
	w.sink.Emit(UpdateRenderedContent{ID: id, Markup: markup})
	w.sink.Emit(ClearError{ID: id})
}

// receive takes requests from the mailbox and reports whether the worker
// should stop. With an empty table it blocks for one request first; it then
// drains everything already queued so repeated edits can coalesce.
func (w *Worker) receive(ctx context.Context) bool {
	if w.pending.len() == 0 {
		if w.quitting {
			return true
		}
		req, ok := w.requests.Recv()
		if !ok {
			ctxlog.FromContext(ctx).Debug("Request mailbox closed, compiler worker stopping.")
			return true
		}
		w.handle(ctx, req)
	}

	for {
		req, status := w.requests.TryRecv()
		switch status {
		case mailbox.Empty:
			return w.quitting && w.pending.len() == 0
		case mailbox.Closed:
			ctxlog.FromContext(ctx).Debug("Request mailbox closed, compiler worker stopping.")
			return true
		}
		w.handle(ctx, req)
	}
}

func (w *Worker) handle(ctx context.Context, req Request) {
	switch r := req.(type) {
	case Compile:
		if w.quitting {
			ctxlog.FromContext(ctx).Debug("Ignoring compile request after shutdown.", "object_id", r.ID)
			return
		}
		w.metrics.Submitted()
		if w.pending.put(r.ID, r.Task) {
			w.metrics.Coalesced()
		}
		w.metrics.SetPending(w.pending.len())
	case Quit:
		ctxlog.FromContext(ctx).Debug("Compiler worker received quit.", "pending", w.pending.len())
		w.quitting = true
	}
}
