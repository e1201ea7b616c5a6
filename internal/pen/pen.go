// Package pen implements the equation tool's interaction state machine.
//
// The pen decides when a compilation request may be sent to the compiler.
// Results never flow back through the pen; the engine applies them to the
// stored object directly.
package pen

import (
	"context"
	"time"

	"github.com/specialistvlad/texpen/internal/ctxlog"
	"github.com/specialistvlad/texpen/internal/equation"
	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/objectid"
	"github.com/specialistvlad/texpen/internal/penevent"
	"github.com/specialistvlad/texpen/internal/periodic"
	"github.com/specialistvlad/texpen/internal/store"
	"github.com/specialistvlad/texpen/internal/units"
	"github.com/specialistvlad/texpen/internal/widgetflags"
	"github.com/specialistvlad/texpen/internal/widthpicker"
)

// DefaultCheckInterval is how often an active pen checks for compilation.
const DefaultCheckInterval = 1000 * time.Millisecond

// Submitter accepts compilation tasks.
type Submitter interface {
	Submit(ctx context.Context, id objectid.ID, task equation.Task)
}

// View is the part of the engine the pen works on.
type View struct {
	Store store.Store
	// Config is the engine's shared equation style.
	Config   *equation.Config
	DPI      float64
	Compiler Submitter
	// Tick is called by the periodic check while the pen is active.
	Tick func()
}

// Pen is the equation tool.
type Pen struct {
	state    State
	picker   *widthpicker.Picker
	compiler Submitter
	checker  *periodic.Handle
	interval time.Duration
}

// New creates an idle pen that checks for compilation every interval.
func New(interval time.Duration) *Pen {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Pen{state: Idle{}, interval: interval}
}

// State returns the current state.
func (p *Pen) State() State { return p.state }

// Picker returns the width picker, or nil when none is shown.
func (p *Pen) Picker() *widthpicker.Picker { return p.picker }

// Init activates the pen and starts the periodic compilation check.
func (p *Pen) Init(view View) widgetflags.Flags {
	p.compiler = view.Compiler
	if p.checker != nil {
		p.checker.Stop()
	}
	if tick := view.Tick; tick != nil {
		p.checker = periodic.Start(func() periodic.Result {
			tick()
			return periodic.Continue
		}, p.interval)
	}
	return widgetflags.Flags{}
}

// Deinit stops the periodic check and discards the pen's state.
func (p *Pen) Deinit() widgetflags.Flags {
	if p.checker != nil {
		p.checker.Stop()
		p.checker = nil
	}
	p.state = Idle{}
	p.picker = nil
	return widgetflags.Flags{Redraw: true}
}

// HandleEvent feeds a pen event through the width picker and the state
// machine.
func (p *Pen) HandleEvent(ctx context.Context, ev penevent.Event, view View) (penevent.Propagation, widgetflags.Flags) {
	var flags widgetflags.Flags
	prev := p.state

	wasDragging := p.picker != nil && p.picker.State() == widthpicker.Dragging
	prop := penevent.Proceed
	if p.picker != nil {
		prop = p.picker.Update(ev)
		flags.Redraw = true
	}
	released := wasDragging && p.picker.State() == widthpicker.Idle

	switch st := p.state.(type) {
	case Idle:
		if ev.Kind == penevent.Down && prop == penevent.Proceed {
			flags.Merge(p.begin(ev, view))
		}
	case InitialWidthPick:
		if ev.Kind == penevent.Up {
			flags.Merge(p.create(st.Anchor, view))
		}
	}

	if released {
		flags.Merge(p.applyPickedWidth(ctx, view))
	}

	if p.state != prev {
		ctxlog.FromContext(ctx).Debug("Equation pen state changed.", "from", prev, "to", p.state)
	}
	return penevent.Stop, flags
}

func (p *Pen) begin(ev penevent.Event, view View) widgetflags.Flags {
	if hits := view.Store.HitTest(ev.Pos); len(hits) > 0 {
		id := hits[0]
		if obj, ok := view.Store.Get(id); ok {
			widthPx := units.Convert(obj.Config.PageWidth, units.Mm, view.DPI, units.Px, view.DPI)
			p.picker = widthpicker.ForRectangle(obj.Rectangle(), widthPx)
			*view.Config = obj.Config
			p.state = &AwaitCompilation{ID: id, Policy: Deny}
			return widgetflags.Flags{RefreshEquationUI: true, Redraw: true}
		}
	}
	p.picker = widthpicker.StartDrag(ev.Pos)
	p.state = InitialWidthPick{Anchor: ev.Pos}
	return widgetflags.Flags{RefreshUI: true, Redraw: true}
}

func (p *Pen) create(anchor geom.Vec2, view View) widgetflags.Flags {
	view.Store.Record()
	id := view.Store.Insert(equation.NewObject("", *view.Config, anchor))
	p.state = &AwaitCompilation{ID: id, Policy: Deny}
	return widgetflags.Flags{
		Redraw:              true,
		StoreModified:       true,
		ShowEquationSidebar: true,
		RefreshEquationUI:   true,
	}
}

// applyPickedWidth turns the picker length into the page width of the shared
// style and pushes it into the edited equation. The length is divided by the
// equation's scale so the stored width does not include its transform.
func (p *Pen) applyPickedWidth(ctx context.Context, view View) widgetflags.Flags {
	length := p.picker.Length()
	if st, ok := p.state.(*AwaitCompilation); ok {
		if obj, ok := view.Store.Get(st.ID); ok {
			if s := obj.Scale(); s > 0 {
				length /= s
			}
		}
	}
	view.Config.PageWidth = units.Convert(length, units.Px, view.DPI, units.Mm, view.DPI)
	ctxlog.FromContext(ctx).Debug("Equation width picked.", "page_width_mm", view.Config.PageWidth)

	flags := p.MarkUpdatedConfig(view.Store, *view.Config)
	flags.RefreshEquationUI = true
	p.CheckCompilation(ctx, view.Store)
	return flags
}

// CheckCompilation submits the edited equation's current source and style
// when the policy allows it. It reports whether a task was submitted.
func (p *Pen) CheckCompilation(ctx context.Context, st store.Store) bool {
	info, ok := p.state.(*AwaitCompilation)
	if !ok || info.Policy != Allow || p.compiler == nil {
		return false
	}
	obj, ok := st.Get(info.ID)
	if !ok {
		return false
	}
	p.compiler.Submit(ctx, info.ID, obj.Task())
	return true
}

// MarkUpdatedText writes new source into the edited equation.
func (p *Pen) MarkUpdatedText(st store.Store, source string) widgetflags.Flags {
	info, ok := p.state.(*AwaitCompilation)
	if !ok {
		return widgetflags.Flags{}
	}
	obj, ok := st.Get(info.ID)
	if !ok {
		return widgetflags.Flags{}
	}
	obj.Source = source
	return widgetflags.Flags{StoreModified: true}
}

// MarkUpdatedConfig writes cfg into the edited equation.
func (p *Pen) MarkUpdatedConfig(st store.Store, cfg equation.Config) widgetflags.Flags {
	info, ok := p.state.(*AwaitCompilation)
	if !ok {
		return widgetflags.Flags{}
	}
	obj, ok := st.Get(info.ID)
	if !ok {
		return widgetflags.Flags{}
	}
	obj.Config = cfg
	return widgetflags.Flags{StoreModified: true}
}

// EnableCompilation allows compilation and checks immediately when it was
// denied before.
func (p *Pen) EnableCompilation(ctx context.Context, st store.Store) {
	info, ok := p.state.(*AwaitCompilation)
	if !ok || info.Policy == Allow {
		return
	}
	info.Policy = Allow
	p.CheckCompilation(ctx, st)
}

// DisableCompilation denies compilation.
func (p *Pen) DisableCompilation() {
	if info, ok := p.state.(*AwaitCompilation); ok {
		info.Policy = Deny
	}
}

// ToggleCompilation flips the policy and returns the new one. It reports
// false when no equation is being edited.
func (p *Pen) ToggleCompilation(ctx context.Context, st store.Store) (Policy, bool) {
	info, ok := p.state.(*AwaitCompilation)
	if !ok {
		return Deny, false
	}
	if info.Policy == Allow {
		p.DisableCompilation()
		return Deny, true
	}
	p.EnableCompilation(ctx, st)
	return Allow, true
}

// Editing returns the equation being edited.
func (p *Pen) Editing() (objectid.ID, bool) {
	if info, ok := p.state.(*AwaitCompilation); ok {
		return info.ID, true
	}
	return objectid.Nil, false
}
