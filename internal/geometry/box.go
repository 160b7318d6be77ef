// Package geometry provides the axis-aligned box tests shared by every
// placement search. All functions are pure.
package geometry

import (
	"math"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// Box is an axis-aligned box: origin (X, Y, Z) plus extent (W, H, L).
type Box struct {
	X, Y, Z float64
	W, H, L float64
}

// NewBox builds a box from an origin and an extent.
func NewBox(x, y, z float64, d model.Dims) Box {
	return Box{X: x, Y: y, Z: z, W: d.W, H: d.H, L: d.L}
}

// PlacementBox returns the box a placement occupies given its rotated extent.
func PlacementBox(p model.Placement, d model.Dims) Box {
	return NewBox(p.X, p.Y, p.Z, d)
}

// Volume returns W*H*L.
func (b Box) Volume() float64 {
	return b.W * b.H * b.L
}

// Center returns the centroid of the box.
func (b Box) Center() (x, y, z float64) {
	return b.X + b.W/2, b.Y + b.H/2, b.Z + b.L/2
}

// Top returns the Y coordinate of the upper face.
func (b Box) Top() float64 {
	return b.Y + b.H
}

// FitsWithin reports whether the box [origin, origin+size) lies inside the
// vehicle body on all three axes.
func FitsWithin(v model.Vehicle, x, y, z float64, d model.Dims) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x+d.W <= v.Width+eps &&
		y+d.H <= v.Height+eps &&
		z+d.L <= v.Length+eps
}

// eps absorbs float noise from grid stepping.
const eps = 1e-6

// Collide reports whether two boxes overlap on all three axes. Boxes that
// only share a face do not collide.
func Collide(a, b Box) bool {
	return a.X < b.X+b.W-eps && a.X+a.W > b.X+eps &&
		a.Y < b.Y+b.H-eps && a.Y+a.H > b.Y+eps &&
		a.Z < b.Z+b.L-eps && a.Z+a.L > b.Z+eps
}

// axisGap returns the separation of two intervals, 0 if they overlap.
func axisGap(a0, a1, b0, b1 float64) float64 {
	switch {
	case b0 >= a1:
		return b0 - a1
	case a0 >= b1:
		return a0 - b1
	default:
		return 0
	}
}

// Gap returns the shortest distance between two boxes, 0 when they overlap
// or touch.
func Gap(a, b Box) float64 {
	dx := axisGap(a.X, a.X+a.W, b.X, b.X+b.W)
	dy := axisGap(a.Y, a.Y+a.H, b.Y, b.Y+b.H)
	dz := axisGap(a.Z, a.Z+a.L, b.Z, b.Z+b.L)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Adjacent reports whether two non-overlapping boxes are within tolerance
// of each other.
func Adjacent(a, b Box, tolerance float64) bool {
	if Collide(a, b) {
		return false
	}
	return Gap(a, b) <= tolerance
}

// FootprintOverlap returns the area shared by the X-Z projections of two boxes.
func FootprintOverlap(a, b Box) float64 {
	w := math.Min(a.X+a.W, b.X+b.W) - math.Max(a.X, b.X)
	l := math.Min(a.Z+a.L, b.Z+b.L) - math.Max(a.Z, b.Z)
	if w <= 0 || l <= 0 {
		return 0
	}
	return w * l
}
