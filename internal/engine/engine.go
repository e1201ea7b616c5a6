package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/specialistvlad/texpen/internal/backend"
	"github.com/specialistvlad/texpen/internal/compiler"
	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/mailbox"
	"github.com/specialistvlad/texpen/internal/metrics"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/pen"
	"github.com/specialistvlad/texpen/internal/penevent"
	"github.com/specialistvlad/texpen/internal/store"
	"github.com/specialistvlad/texpen/internal/units"
	"github.com/specialistvlad/texpen/internal/widgetflags"
)

// ErrClosed is returned by Do after the engine has been closed.
var ErrClosed = errors.New("engine closed")

// Options configures a new Engine.
type Options struct {
	Store    store.Store
	Config   equation.Config
	DPI      float64
	Backends *backend.Registry
	Metrics  *metrics.Compiler
	// CheckInterval is the pen's periodic compilation check interval.
	CheckInterval time.Duration
	// OnEvent, when set, is called on the engine goroutine after a compiler
	// event has been applied.
	OnEvent func(ev compiler.Event, flags widgetflags.Flags)
}

// Engine owns a document and its equation pen.
type Engine struct {
	store    store.Store
	config   equation.Config
	dpi      float64
	compiler *compiler.Supervisor
	tasks    *mailbox.Mailbox[Task]
	pen      *pen.Pen
	active   bool
	errors   map[objectid.ID]*backend.Error
	rejected map[objectid.ID]bool
	onEvent  func(compiler.Event, widgetflags.Flags)
	logger   *slog.Logger
	stopped  chan struct{}
}

// New creates an engine and spawns its compiler worker. The engine does
// nothing until Run is called.
func New(ctx context.Context, opts Options) *Engine {
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = units.DefaultDPI
	}
	e := &Engine{
		store:    st,
		config:   opts.Config,
		dpi:      dpi,
		tasks:    mailbox.New[Task](),
		pen:      pen.New(opts.CheckInterval),
		errors:   make(map[objectid.ID]*backend.Error),
		rejected: make(map[objectid.ID]bool),
		onEvent:  opts.OnEvent,
		logger:   ctxlog.FromContext(ctx),
		stopped:  make(chan struct{}),
	}
	e.compiler = compiler.Spawn(ctx, e, opts.Backends, opts.Metrics)
	return e
}

// Emit queues a compiler event for the engine loop.
func (e *Engine) Emit(ev compiler.Event) {
	if err := e.tasks.Send(CompilerEvent{Event: ev}); err != nil {
		e.logger.Debug("Compiler event dropped, engine closed.", "object_id", ev.ObjectID())
	}
}

// Run processes tasks until ctx is done or the engine is closed. It must be
// called at most once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	ctx = ctxlog.WithLogger(ctx, e.logger)
	e.logger.Debug("Engine loop started.")
	for {
		task, err := e.tasks.RecvContext(ctx)
		if errors.Is(err, mailbox.ErrClosed) {
			e.logger.Debug("Engine loop finished.")
			return nil
		}
		if err != nil {
			return err
		}
		e.HandleTask(ctx, task)
	}
}

// HandleTask applies one task. It must only be called from the engine
// goroutine.
func (e *Engine) HandleTask(ctx context.Context, task Task) widgetflags.Flags {
	switch t := task.(type) {
	case CheckCompilation:
		if e.active {
			e.pen.CheckCompilation(ctx, e.store)
		}
	case CompilerEvent:
		flags := e.apply(ctx, t.Event)
		if e.onEvent != nil {
			e.onEvent(t.Event, flags)
		}
		return flags
	case funcTask:
		t.fn(e)
		close(t.done)
	}
	return widgetflags.Flags{}
}

func (e *Engine) apply(ctx context.Context, ev compiler.Event) widgetflags.Flags {
	logger := ctxlog.FromContext(ctx).With("object_id", ev.ObjectID())
	obj, ok := e.store.Get(ev.ObjectID())
	if !ok {
		logger.Debug("Result for removed equation ignored.")
		return widgetflags.Flags{}
	}

	switch ev := ev.(type) {
	case compiler.UpdateRenderedContent:
		if err := obj.UpdateMarkup(ev.Markup); err != nil {
			logger.Warn("Rendered markup rejected.", "error", err)
			e.errors[ev.ID] = backend.NewEncodingFailure(err.Error())
			e.rejected[ev.ID] = true
			return widgetflags.Flags{UpdateEquationError: true}
		}
		logger.Info("Equation rendered.")
		return widgetflags.Flags{Redraw: true, StoreModified: true}
	case compiler.SetError:
		logger.Info("Equation compilation failed.", "kind", ev.Err.Kind, "error", ev.Err)
		e.errors[ev.ID] = ev.Err
		return widgetflags.Flags{UpdateEquationError: true}
	case compiler.ClearError:
		// The success this clears was rejected above; keep its error.
		if e.rejected[ev.ID] {
			delete(e.rejected, ev.ID)
			return widgetflags.Flags{}
		}
		delete(e.errors, ev.ID)
		return widgetflags.Flags{UpdateEquationError: true}
	}
	return widgetflags.Flags{}
}

// Do runs fn on the engine goroutine and waits for it to finish. It must
// not be called from the engine goroutine.
func (e *Engine) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	if err := e.tasks.Send(funcTask{fn: fn, done: done}); err != nil {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-e.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for engine: %w", ctx.Err())
	}
}

func (e *Engine) view() pen.View {
	return pen.View{
		Store:    e.store,
		Config:   &e.config,
		DPI:      e.dpi,
		Compiler: e.compiler,
		Tick:     func() { _ = e.tasks.Send(CheckCompilation{}) },
	}
}

// ActivatePen makes the equation pen the active tool.
func (e *Engine) ActivatePen() widgetflags.Flags {
	if e.active {
		return widgetflags.Flags{}
	}
	e.active = true
	flags := e.pen.Init(e.view())
	flags.RefreshUI = true
	return flags
}

// DeactivatePen discards the pen's state and stops its periodic check.
func (e *Engine) DeactivatePen() widgetflags.Flags {
	if !e.active {
		return widgetflags.Flags{}
	}
	e.active = false
	flags := e.pen.Deinit()
	flags.RefreshUI = true
	return flags
}

// HandlePenEvent routes a pen event to the active pen.
func (e *Engine) HandlePenEvent(ctx context.Context, ev penevent.Event) (penevent.Propagation, widgetflags.Flags) {
	if !e.active {
		return penevent.Proceed, widgetflags.Flags{}
	}
	return e.pen.HandleEvent(ctx, ev, e.view())
}

// PlaceEquation creates a new equation at pos with the given width in
// document pixels, as if the user had dragged it out with the pen. The pen
// is activated if needed and left editing the new equation. pos must not be
// covered by another equation.
func (e *Engine) PlaceEquation(ctx context.Context, pos geom.Vec2, widthPx float64) (objectid.ID, widgetflags.Flags, error) {
	if hits := e.store.HitTest(pos); len(hits) > 0 {
		return objectid.Nil, widgetflags.Flags{}, fmt.Errorf("position %g,%g is covered by equation %s", pos.X, pos.Y, hits[0])
	}
	var flags widgetflags.Flags
	flags.Merge(e.DeactivatePen())
	flags.Merge(e.ActivatePen())
	for _, ev := range []penevent.Event{
		{Kind: penevent.Down, Pos: pos},
		{Kind: penevent.Down, Pos: pos.Add(geom.V(widthPx, 0))},
		{Kind: penevent.Up, Pos: pos.Add(geom.V(widthPx, 0))},
	} {
		_, f := e.HandlePenEvent(ctx, ev)
		flags.Merge(f)
	}
	id, _ := e.pen.Editing()
	return id, flags, nil
}

// SelectEquation starts editing the equation id, switching the pen back to
// its initial state first.
func (e *Engine) SelectEquation(ctx context.Context, id objectid.ID) (widgetflags.Flags, error) {
	obj, ok := e.store.Get(id)
	if !ok {
		return widgetflags.Flags{}, fmt.Errorf("equation %s not found", id)
	}
	var flags widgetflags.Flags
	flags.Merge(e.DeactivatePen())
	flags.Merge(e.ActivatePen())

	// Press inside the equation near its upper-left corner.
	r := obj.Rectangle()
	at := r.Transform.Apply(geom.V(min(1, r.Size.X/2), min(1, r.Size.Y/2)))
	_, f := e.HandlePenEvent(ctx, penevent.Event{Kind: penevent.Down, Pos: at})
	flags.Merge(f)
	_, f = e.HandlePenEvent(ctx, penevent.Event{Kind: penevent.Up, Pos: at})
	flags.Merge(f)

	if got, ok := e.pen.Editing(); !ok || got != id {
		return flags, fmt.Errorf("equation %s is covered by another object", id)
	}
	return flags, nil
}

// SetSource replaces the edited equation's source text.
func (e *Engine) SetSource(source string) widgetflags.Flags {
	return e.pen.MarkUpdatedText(e.store, source)
}

// SetConfig replaces the shared style and pushes it into the edited
// equation.
func (e *Engine) SetConfig(cfg equation.Config) widgetflags.Flags {
	e.config = cfg
	return e.pen.MarkUpdatedConfig(e.store, cfg)
}

// EnableCompilation allows the edited equation to compile.
func (e *Engine) EnableCompilation(ctx context.Context) {
	e.pen.EnableCompilation(ctx, e.store)
}

// DisableCompilation stops periodic compilation of the edited equation.
func (e *Engine) DisableCompilation() {
	e.pen.DisableCompilation()
}

// ToggleCompilation flips the compilation policy of the edited equation.
func (e *Engine) ToggleCompilation(ctx context.Context) (pen.Policy, bool) {
	return e.pen.ToggleCompilation(ctx, e.store)
}

// Store returns the document store.
func (e *Engine) Store() store.Store { return e.store }

// Config returns the shared equation style.
func (e *Engine) Config() equation.Config { return e.config }

// Pen returns the equation pen.
func (e *Engine) Pen() *pen.Pen { return e.pen }

// Error returns the last compilation error of id.
func (e *Engine) Error(id objectid.ID) (*backend.Error, bool) {
	err, ok := e.errors[id]
	return err, ok
}

// Undo reverts the store to the previous undo boundary.
func (e *Engine) Undo() widgetflags.Flags {
	if !e.store.Undo() {
		return widgetflags.Flags{}
	}
	e.DeactivatePen()
	return widgetflags.Flags{Redraw: true, StoreModified: true, RefreshUI: true}
}

// Close stops the pen, lets the compiler finish its pending work and stops
// the engine loop. Run must be executing for results to be applied.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.Do(ctx, func(e *Engine) { e.DeactivatePen() }); err != nil {
		e.logger.Debug("Pen not deactivated on close.", "error", err)
	}
	e.compiler.Shutdown(ctx)
	err := e.compiler.Wait(ctx)
	if err == nil {
		// Let the loop apply everything the worker emitted before exiting.
		if derr := e.Do(ctx, func(*Engine) {}); derr != nil {
			e.logger.Debug("Final compiler results not applied on close.", "error", derr)
		}
	}
	e.tasks.Close()
	return err
}
