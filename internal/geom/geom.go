// Package geom holds the small amount of 2D affine geometry the equation
// tools need: vectors, transforms, transformed rectangles and bounding boxes.
package geom

import "math"

// Vec2 is a point or a direction in document coordinates.
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// Basic vector arithmetic.

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2    { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64      { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64            { return math.Hypot(v.X, v.Y) }
func (v Vec2) Distance(o Vec2) float64 { return v.Sub(o).Len() }

// Normalize returns the unit vector in the direction of v, or the zero vector
// when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Transform is an affine transform in SVG matrix order:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform { return Transform{A: 1, D: 1} }

// Translation returns a pure translation by v.
func Translation(v Vec2) Transform { return Transform{A: 1, D: 1, E: v.X, F: v.Y} }

// Scaling returns a pure scale about the origin.
func Scaling(sx, sy float64) Transform { return Transform{A: sx, D: sy} }

// Rotation returns a rotation about the origin by angle radians.
func Rotation(angle float64) Transform {
	s, c := math.Sincos(angle)
	return Transform{A: c, B: s, C: -s, D: c}
}

// Mul returns the composition t∘o, which applies o first and then t.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		A: t.A*o.A + t.C*o.B,
		B: t.B*o.A + t.D*o.B,
		C: t.A*o.C + t.C*o.D,
		D: t.B*o.C + t.D*o.D,
		E: t.A*o.E + t.C*o.F + t.E,
		F: t.B*o.E + t.D*o.F + t.F,
	}
}

// Apply maps a point.
func (t Transform) Apply(p Vec2) Vec2 {
	return Vec2{t.A*p.X + t.C*p.Y + t.E, t.B*p.X + t.D*p.Y + t.F}
}

// ApplyVector maps a direction, ignoring the translation part.
func (t Transform) ApplyVector(v Vec2) Vec2 {
	return Vec2{t.A*v.X + t.C*v.Y, t.B*v.X + t.D*v.Y}
}

// Translate returns t followed by a translation by v.
func (t Transform) Translate(v Vec2) Transform {
	return Translation(v).Mul(t)
}

// Inverse returns the inverse transform. ok is false for singular transforms.
func (t Transform) Inverse() (inv Transform, ok bool) {
	det := t.A*t.D - t.B*t.C
	if det == 0 || math.IsNaN(det) {
		return Transform{}, false
	}
	a, b, c, d := t.D/det, -t.B/det, -t.C/det, t.A/det
	return Transform{
		A: a, B: b, C: c, D: d,
		E: -(a*t.E + c*t.F),
		F: -(b*t.E + d*t.F),
	}, true
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec2
}

// BoundsOf returns the smallest box containing all points.
func BoundsOf(points ...Vec2) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.X = math.Min(b.Min.X, p.X)
		b.Min.Y = math.Min(b.Min.Y, p.Y)
		b.Max.X = math.Max(b.Max.X, p.X)
		b.Max.Y = math.Max(b.Max.Y, p.Y)
	}
	return b
}

// Contains reports whether p lies inside the box, edges included.
func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	return BoundsOf(b.Min, b.Max, o.Min, o.Max)
}

// Loosened grows the box by m on every side.
func (b AABB) Loosened(m float64) AABB {
	return AABB{Min: b.Min.Sub(V(m, m)), Max: b.Max.Add(V(m, m))}
}

// Width and Height of the box.
func (b AABB) Width() float64  { return b.Max.X - b.Min.X }
func (b AABB) Height() float64 { return b.Max.Y - b.Min.Y }

// Rectangle is the local box [0,Size.X]×[0,Size.Y] placed in the document by
// Transform. The local origin is the upper-left corner.
type Rectangle struct {
	Size      Vec2
	Transform Transform
}

// UpperLeft returns the document position of the local origin.
func (r Rectangle) UpperLeft() Vec2 {
	return r.Transform.Apply(Vec2{})
}

// Corners returns the four corners in document coordinates, clockwise from
// the upper-left.
func (r Rectangle) Corners() [4]Vec2 {
	return [4]Vec2{
		r.Transform.Apply(V(0, 0)),
		r.Transform.Apply(V(r.Size.X, 0)),
		r.Transform.Apply(V(r.Size.X, r.Size.Y)),
		r.Transform.Apply(V(0, r.Size.Y)),
	}
}

// Bounds returns the axis-aligned bounds of the transformed rectangle.
func (r Rectangle) Bounds() AABB {
	c := r.Corners()
	return BoundsOf(c[:]...)
}

// Contains reports whether the document point p lies within the rectangle.
func (r Rectangle) Contains(p Vec2) bool {
	inv, ok := r.Transform.Inverse()
	if !ok {
		return false
	}
	l := inv.Apply(p)
	return l.X >= 0 && l.X <= r.Size.X && l.Y >= 0 && l.Y <= r.Size.Y
}
