// Package geometry holds the axis-aligned box predicates used to reason about
// how packed items rest on one another. The Z axis is vertical.
package geometry

import "math"

const (
	// AboveEpsilon is the minimum Z offset for a box to count as above another.
	AboveEpsilon = 1e-9
	// RestingTolerance is how far a bottom face may sit from a top face and
	// still count as resting on it.
	RestingTolerance = 0.1
)

// Vec3 is a point or an extent in container space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Volume returns X*Y*Z.
func (v Vec3) Volume() float64 {
	return v.X * v.Y * v.Z
}

// Box is an axis-aligned box described by its origin corner and extent.
type Box struct {
	Origin Vec3
	Size   Vec3
}

// MinZ returns the Z coordinate of the bottom face.
func (b Box) MinZ() float64 { return b.Origin.Z }

// MaxZ returns the Z coordinate of the top face.
func (b Box) MaxZ() float64 { return b.Origin.Z + b.Size.Z }

// Max returns the corner opposite to the origin.
func (b Box) Max() Vec3 {
	return Vec3{
		X: b.Origin.X + b.Size.X,
		Y: b.Origin.Y + b.Size.Y,
		Z: b.Origin.Z + b.Size.Z,
	}
}

// OverlapsFootprint reports whether the XY projections of a and b intersect
// with non-zero area. Boxes that merely touch along an edge do not overlap.
func OverlapsFootprint(a, b Box) bool {
	am, bm := a.Max(), b.Max()
	return a.Origin.X < bm.X &&
		am.X > b.Origin.X &&
		a.Origin.Y < bm.Y &&
		am.Y > b.Origin.Y
}

// IsDirectlyAbove reports whether a sits higher than b and shares part of its
// footprint, regardless of the vertical gap between them.
func IsDirectlyAbove(a, b Box) bool {
	return a.MinZ() >= b.MinZ()+AboveEpsilon && OverlapsFootprint(a, b)
}

// RestsOn reports whether the bottom face of a lies on the top face of b.
func RestsOn(a, b Box) bool {
	return math.Abs(a.MinZ()-b.MaxZ()) <= RestingTolerance && OverlapsFootprint(a, b)
}

// Within reports whether b lies inside a container of the given extent,
// allowing tol for rounding.
func Within(b Box, container Vec3, tol float64) bool {
	m := b.Max()
	return b.Origin.X >= -tol && b.Origin.Y >= -tol && b.Origin.Z >= -tol &&
		m.X <= container.X+tol && m.Y <= container.Y+tol && m.Z <= container.Z+tol
}
