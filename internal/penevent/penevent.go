// Package penevent describes pointer input delivered to pen tools.
package penevent

import "github.com/specialistvlad/texpen/internal/geom"

// Kind is the kind of a pen event.
type Kind int

const (
	// Down is sent while the pen touches the surface, including motion.
	Down Kind = iota
	// Up is sent once when the pen is lifted.
	Up
	// Proximity is sent while the pen hovers without touching.
	Proximity
	// Cancel aborts the current gesture.
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Up:
		return "up"
	case Proximity:
		return "proximity"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is a single pen event in document coordinates.
type Event struct {
	Kind Kind
	Pos  geom.Vec2
}

// Propagation tells the caller whether an event was consumed.
type Propagation int

const (
	Proceed Propagation = iota
	Stop
)

// At builds an event of kind k at (x, y).
func At(k Kind, x, y float64) Event {
	return Event{Kind: k, Pos: geom.V(x, y)}
}
