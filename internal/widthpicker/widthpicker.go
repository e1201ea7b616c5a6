// Package widthpicker implements the drag gesture used to pick the target
// width of an equation.
//
// The picker has a fixed begin node and a movable end node. While dragging,
// the pointer is projected onto a line through the projection start along the
// projection direction, so the picked width is always measured along that
// direction and never drops below MinLength.
package widthpicker

import (
	"math"

	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/penevent"
)

const (
	// HandleRadius is the grab radius of the end node in px.
	HandleRadius = 7.0
	// MinLength is the shortest width the picker produces in px.
	MinLength = 15.0
)

// State is the gesture state of a picker.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Picker is a width picking gesture.
type Picker struct {
	Begin     geom.Vec2
	End       geom.Vec2
	Start     geom.Vec2
	Direction geom.Vec2
	state     State
}

// New creates a picker.
func New(begin, end, start, direction geom.Vec2, state State) *Picker {
	return &Picker{Begin: begin, End: end, Start: start, Direction: direction, state: state}
}

// StartDrag creates a picker that is already dragging horizontally from pos.
// The end node starts at the minimum length.
func StartDrag(pos geom.Vec2) *Picker {
	p := New(pos, pos, pos, geom.V(1, 0), Dragging)
	p.End = p.Project(pos)
	return p
}

// ForRectangle seeds a picker from a placed rectangle. The picker starts at
// the rectangle's upper-left corner and points along its transformed x axis;
// its length is widthPx scaled by the rectangle's transform.
func ForRectangle(r geom.Rectangle, widthPx float64) *Picker {
	axis := r.Transform.ApplyVector(geom.V(1, 0))
	scale := axis.Len()
	dir := axis.Normalize()
	ul := r.UpperLeft()
	return New(ul, ul.Add(dir.Scale(scale*widthPx)), ul, dir, Idle)
}

// State returns the current gesture state.
func (p *Picker) State() State { return p.state }

// Length is the distance between begin and end.
func (p *Picker) Length() float64 { return p.Begin.Distance(p.End) }

// Project maps pos onto the projection line, clamped to MinLength.
func (p *Picker) Project(pos geom.Vec2) geom.Vec2 {
	d := p.Direction.Dot(p.Direction)
	if d == 0 {
		return p.Start
	}
	lambda := math.Max(MinLength, pos.Sub(p.Start).Dot(p.Direction)/d)
	return p.Start.Add(p.Direction.Scale(lambda))
}

// Update feeds an event to the picker and reports whether it consumed it.
func (p *Picker) Update(ev penevent.Event) penevent.Propagation {
	switch p.state {
	case Idle:
		if ev.Kind == penevent.Down && ev.Pos.Distance(p.End) <= HandleRadius {
			p.state = Dragging
			return penevent.Stop
		}
	case Dragging:
		switch ev.Kind {
		case penevent.Down:
			p.End = p.Project(ev.Pos)
			return penevent.Stop
		case penevent.Up:
			p.state = Idle
			return penevent.Stop
		}
	}
	return penevent.Proceed
}

// Bounds covers both nodes including their handles.
func (p *Picker) Bounds() geom.AABB {
	return geom.BoundsOf(p.Begin, p.End).Loosened(HandleRadius)
}
