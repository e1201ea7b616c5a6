package widthpicker

import (
	"math"
	"testing"

	"github.com/specialistvlad/texpen/internal/geom"
	"github.com/specialistvlad/texpen/internal/penevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	t.Parallel()
	p := New(geom.V(0, 0), geom.V(0, 0), geom.V(10, 10), geom.V(1, 0), Idle)

	testCases := []struct {
		name string
		pos  geom.Vec2
		want geom.Vec2
	}{
		{name: "along direction", pos: geom.V(110, 10), want: geom.V(110, 10)},
		{name: "off axis is projected", pos: geom.V(60, 300), want: geom.V(60, 10)},
		{name: "clamped to minimum", pos: geom.V(12, 10), want: geom.V(25, 10)},
		{name: "behind start is clamped", pos: geom.V(-100, 10), want: geom.V(25, 10)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDeltaSlice(t, []float64{tc.want.X, tc.want.Y}, []float64{p.Project(tc.pos).X, p.Project(tc.pos).Y}, 1e-9)
		})
	}
}

func TestUpdate_DragLifecycle(t *testing.T) {
	t.Parallel()
	// Arrange
	p := StartDrag(geom.V(0, 0))
	require.Equal(t, Dragging, p.State())

	// Act & Assert: motion moves the end node.
	assert.Equal(t, penevent.Stop, p.Update(penevent.At(penevent.Down, 100, 40)))
	assert.InDelta(t, 100.0, p.Length(), 1e-9)

	// Lifting ends the drag.
	assert.Equal(t, penevent.Stop, p.Update(penevent.At(penevent.Up, 100, 40)))
	assert.Equal(t, Idle, p.State())

	// Clicking away from the handle is not consumed.
	assert.Equal(t, penevent.Proceed, p.Update(penevent.At(penevent.Down, 50, 0)))
	assert.Equal(t, Idle, p.State())

	// Grabbing the handle starts a new drag.
	assert.Equal(t, penevent.Stop, p.Update(penevent.At(penevent.Down, 103, 2)))
	assert.Equal(t, Dragging, p.State())
}

func TestForRectangle(t *testing.T) {
	t.Parallel()
	// Arrange: a rectangle scaled by 2 and rotated by 90 degrees at (10, 20).
	tr := geom.Translation(geom.V(10, 20)).Mul(geom.Rotation(math.Pi / 2)).Mul(geom.Scaling(2, 2))
	r := geom.Rectangle{Size: geom.V(50, 10), Transform: tr}

	// Act
	p := ForRectangle(r, 30)

	// Assert
	assert.Equal(t, Idle, p.State())
	assert.InDelta(t, 10.0, p.Begin.X, 1e-9)
	assert.InDelta(t, 20.0, p.Begin.Y, 1e-9)
	assert.InDelta(t, 60.0, p.Length(), 1e-9)
	assert.InDelta(t, 0.0, p.Direction.X, 1e-9)
	assert.InDelta(t, 1.0, p.Direction.Y, 1e-9)
}

func TestBounds(t *testing.T) {
	t.Parallel()
	p := New(geom.V(0, 0), geom.V(40, 0), geom.V(0, 0), geom.V(1, 0), Idle)
	b := p.Bounds()
	assert.Equal(t, geom.V(-7, -7), b.Min)
	assert.Equal(t, geom.V(47, 7), b.Max)
}

func TestStartDrag_BeginsAtMinimumLength(t *testing.T) {
	t.Parallel()
	p := StartDrag(geom.V(5, 5))
	assert.Equal(t, geom.V(20, 5), p.End)
	assert.Equal(t, MinLength, p.Length())
}
