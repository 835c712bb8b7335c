package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box. A box with Min greater than Max on any axis is empty.
type AABB struct {
	Min r3.Vector `json:"min"`
	Max r3.Vector `json:"max"`
}

// EmptyAABB returns the box that contains nothing and is the identity for Union.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewAABBFromPoints returns the tightest box around the given points, or an empty box for none.
func NewAABBFromPoints(points ...r3.Vector) AABB {
	box := EmptyAABB()
	for _, pt := range points {
		box.Min = r3.Vector{X: math.Min(box.Min.X, pt.X), Y: math.Min(box.Min.Y, pt.Y), Z: math.Min(box.Min.Z, pt.Z)}
		box.Max = r3.Vector{X: math.Max(box.Max.X, pt.X), Y: math.Max(box.Max.Y, pt.Y), Z: math.Max(box.Max.Z, pt.Z)}
	}
	return box
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// ContainsPoint reports whether pt lies in the box. Faces are inclusive.
func (b AABB) ContainsPoint(pt r3.Vector) bool {
	return b.Min.X <= pt.X && pt.X <= b.Max.X &&
		b.Min.Y <= pt.Y && pt.Y <= b.Max.Y &&
		b.Min.Z <= pt.Z && pt.Z <= b.Max.Z
}

// CollidesWith reports whether two boxes overlap. Touching faces count as a collision, and an
// empty box collides with nothing.
func (b AABB) CollidesWith(other AABB) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.Min.X <= other.Max.X && other.Min.X <= b.Max.X &&
		b.Min.Y <= other.Max.Y && other.Min.Y <= b.Max.Y &&
		b.Min.Z <= other.Max.Z && other.Min.Z <= b.Max.Z
}

// Pad grows the box by eps on every side. An empty box stays empty.
func (b AABB) Pad(eps float64) AABB {
	if b.IsEmpty() {
		return b
	}
	delta := r3.Vector{X: eps, Y: eps, Z: eps}
	return AABB{Min: b.Min.Sub(delta), Max: b.Max.Add(delta)}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return AABB{
		Min: r3.Vector{X: math.Min(b.Min.X, other.Min.X), Y: math.Min(b.Min.Y, other.Min.Y), Z: math.Min(b.Min.Z, other.Min.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, other.Max.X), Y: math.Max(b.Max.Y, other.Max.Y), Z: math.Max(b.Max.Z, other.Max.Z)},
	}
}

// Center returns the midpoint of the box.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns Max - Min, or the zero vector for an empty box.
func (b AABB) Extent() r3.Vector {
	if b.IsEmpty() {
		return r3.Vector{}
	}
	return b.Max.Sub(b.Min)
}

// SquaredDistanceToPoint returns the squared distance from pt to the nearest point of the box:
// zero inside and +Inf for an empty box.
func (b AABB) SquaredDistanceToPoint(pt r3.Vector) float64 {
	if b.IsEmpty() {
		return math.Inf(1)
	}
	return axisGap(pt.X, b.Min.X, b.Max.X) +
		axisGap(pt.Y, b.Min.Y, b.Max.Y) +
		axisGap(pt.Z, b.Min.Z, b.Max.Z)
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return (lo - v) * (lo - v)
	case v > hi:
		return (v - hi) * (v - hi)
	default:
		return 0
	}
}

// AlmostEqual compares corners within floatEpsilon. All empty boxes are equal.
func (b AABB) AlmostEqual(other AABB) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return b.IsEmpty() == other.IsEmpty()
	}
	return R3VectorAlmostEqual(b.Min, other.Min, floatEpsilon) && R3VectorAlmostEqual(b.Max, other.Max, floatEpsilon)
}

func (b AABB) String() string {
	if b.IsEmpty() {
		return "AABB{empty}"
	}
	return fmt.Sprintf("AABB{min: (%g, %g, %g), max: (%g, %g, %g)}",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
