package pen

import (
	"fmt"

	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/objectid"
)

// Policy gates whether periodic checks submit compilation tasks.
type Policy int

const (
	Deny Policy = iota
	Allow
)

func (p Policy) String() string {
	if p == Allow {
		return "allow"
	}
	return "deny"
}

// State is the authoring state of the equation pen. It is one of Idle,
// InitialWidthPick or AwaitCompilation.
type State interface {
	isState()
	String() string
}

// Idle waits for the first pointer-down.
type Idle struct{}

// InitialWidthPick is dragging out the width of a new equation anchored at
// Anchor.
type InitialWidthPick struct {
	Anchor geom.Vec2
}

// AwaitCompilation edits the equation ID. It lasts until the pen is
// deactivated.
type AwaitCompilation struct {
	ID     objectid.ID
	Policy Policy
}

func (Idle) isState()              {}
func (InitialWidthPick) isState()  {}
func (*AwaitCompilation) isState() {}

func (Idle) String() string { return "idle" }

func (s InitialWidthPick) String() string {
	return fmt.Sprintf("initial_width_pick(%g,%g)", s.Anchor.X, s.Anchor.Y)
}

func (s *AwaitCompilation) String() string {
	return fmt.Sprintf("await_compilation(%s,%s)", s.ID, s.Policy)
}
