package model

// Dims is an axis-aligned extent in mm: W along X, H along Y, L along Z.
type Dims struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
	L float64 `json:"l"`
}

// Volume returns W*H*L.
func (d Dims) Volume() float64 {
	return d.W * d.H * d.L
}

// Rotation is a triple of independent 90 degree turns about the X, Y and Z axes.
type Rotation struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

// ApplyRotation is the one rotation convention used everywhere dimensions
// are rotated. The turns are applied in order X, Y, Z:
//
//	X swaps height and length
//	Y swaps width and length
//	Z swaps width and height
func ApplyRotation(d Dims, r Rotation) Dims {
	if r.X {
		d.H, d.L = d.L, d.H
	}
	if r.Y {
		d.W, d.L = d.L, d.W
	}
	if r.Z {
		d.W, d.H = d.H, d.W
	}
	return d
}

// RotatedDims returns the extent of an item under the given rotation.
func RotatedDims(item CargoItem, r Rotation) Dims {
	return ApplyRotation(item.BaseDims(), r)
}

// AllRotations lists the eight combinations of axis turns in a fixed order.
var AllRotations = []Rotation{
	{},
	{Z: true},
	{X: true},
	{Y: true},
	{X: true, Y: true},
	{X: true, Z: true},
	{Y: true, Z: true},
	{X: true, Y: true, Z: true},
}
