package engine

import (
	"context"
	"sort"

	"github.com/piwi3910/DuctLoad/internal/geometry"
	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// DefaultGridStep is used when settings carry no positive grid step.
const DefaultGridStep = 100.0

const eps = 1e-6

// Orientation is one distinct way to lay an item in the vehicle.
type Orientation struct {
	Size     model.Dims
	Rotation model.Rotation
}

var roundRotations = []model.Rotation{
	{},        // lying on its side
	{X: true}, // standing on end
}

// Orientations returns the distinct rotated extents of an item: up to six
// for rectangular sections, two for round ones. Rotations that produce an
// extent already listed are skipped.
func Orientations(item model.CargoItem) []Orientation {
	rots := model.AllRotations
	if item.IsRound() {
		rots = roundRotations
	}
	out := make([]Orientation, 0, len(rots))
	seen := make(map[model.Dims]bool, len(rots))
	for _, r := range rots {
		d := model.RotatedDims(item, r)
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, Orientation{Size: d, Rotation: r})
	}
	return out
}

// Placed pairs a placement with the item it carries.
type Placed struct {
	Item      model.CargoItem
	Placement model.Placement
	Weight    float64
}

// Box returns the space the placement occupies.
func (p Placed) Box() geometry.Box {
	return geometry.PlacementBox(p.Placement, p.Placement.Size)
}

// Search holds the fit rules shared by every packing algorithm: the vehicle
// body, candidate generation and the predicates a position must pass.
type Search struct {
	Vehicle       model.Vehicle
	GridStep      float64
	EnforceFlange bool
	Candidates    model.CandidateMode
	Budget        *Budget
}

// NewSearch builds a search for one run.
func NewSearch(v model.Vehicle, settings model.PackSettings, budget *Budget) *Search {
	step := settings.GridStep
	if step <= 0 {
		step = DefaultGridStep
	}
	return &Search{
		Vehicle:       v,
		GridStep:      step,
		EnforceFlange: settings.EnforceFlange,
		Candidates:    settings.Candidates,
		Budget:        budget,
	}
}

func newPlacement(item model.CargoItem, bin int, x, y, z float64, o Orientation) model.Placement {
	p := model.NewPlacement(item.ID, bin, x, y, z, o.Rotation, o.Size)
	if len(item.NestedIDs) > 0 {
		p.NestedIDs = append([]string(nil), item.NestedIDs...)
	}
	return p
}

// FitsEmpty reports whether the item can go into an empty vehicle at all,
// by size and by payload.
func (s *Search) FitsEmpty(item model.CargoItem) bool {
	_, ok := s.FindPlacementInNewBin(item, 0)
	return ok
}

// FindPlacementInNewBin tries the origin of an empty bin in each orientation.
func (s *Search) FindPlacementInNewBin(item model.CargoItem, bin int) (model.Placement, bool) {
	if s.Vehicle.MaxPayload > 0 && registry.ItemWeight(item) > s.Vehicle.MaxPayload+eps {
		return model.Placement{}, false
	}
	for _, o := range Orientations(item) {
		if geometry.FitsWithin(s.Vehicle, 0, 0, 0, o.Size) {
			return newPlacement(item, bin, 0, 0, 0, o), true
		}
	}
	return model.Placement{}, false
}

// FindFirstFit returns the first valid position for item in bin, trying
// orientations in order. existing may hold placements from other bins;
// they are ignored.
func (s *Search) FindFirstFit(ctx context.Context, item model.CargoItem, bin int, existing []Placed) (model.Placement, bool, error) {
	inBin := placedInBin(existing, bin)
	if !s.payloadAllows(item, inBin) {
		return model.Placement{}, false, nil
	}
	for _, o := range Orientations(item) {
		p, ok, err := s.firstFit(ctx, item, o, bin, inBin)
		if err != nil || ok {
			return p, ok, err
		}
	}
	return model.Placement{}, false, nil
}

// FitsPerOrientation returns, for every orientation that has one, the first
// valid position for item in bin.
func (s *Search) FitsPerOrientation(ctx context.Context, item model.CargoItem, bin int, existing []Placed) ([]model.Placement, error) {
	inBin := placedInBin(existing, bin)
	if !s.payloadAllows(item, inBin) {
		return nil, nil
	}
	var fits []model.Placement
	for _, o := range Orientations(item) {
		p, ok, err := s.firstFit(ctx, item, o, bin, inBin)
		if err != nil {
			return nil, err
		}
		if ok {
			fits = append(fits, p)
		}
	}
	return fits, nil
}

func placedInBin(existing []Placed, bin int) []Placed {
	var out []Placed
	for _, p := range existing {
		if p.Placement.Bin == bin {
			out = append(out, p)
		}
	}
	return out
}

func (s *Search) payloadAllows(item model.CargoItem, inBin []Placed) bool {
	if s.Vehicle.MaxPayload <= 0 {
		return true
	}
	load := registry.ItemWeight(item)
	for _, p := range inBin {
		load += p.Weight
	}
	return load <= s.Vehicle.MaxPayload+eps
}

// fitContext holds what the predicates need for one item and orientation.
type fitContext struct {
	size      model.Dims
	boxes     []geometry.Box
	clearance []float64 // nil when flange rules are off
}

func (s *Search) newFitContext(item model.CargoItem, o Orientation, inBin []Placed) fitContext {
	fc := fitContext{size: o.Size, boxes: make([]geometry.Box, len(inBin))}
	for i, p := range inBin {
		fc.boxes[i] = p.Box()
	}
	if s.EnforceFlange {
		fc.clearance = make([]float64, len(inBin))
		for i, p := range inBin {
			fc.clearance[i] = rules.RequiredDistance(item, p.Item)
		}
	}
	return fc
}

// collision returns the index of the first box the candidate overlaps, or -1.
func (fc fitContext) collision(b geometry.Box) int {
	for i, other := range fc.boxes {
		if geometry.Collide(b, other) {
			return i
		}
	}
	return -1
}

// clear reports whether the candidate keeps flange clearance to every box.
func (fc fitContext) clear(b geometry.Box) bool {
	for i, c := range fc.clearance {
		if geometry.Gap(b, fc.boxes[i]) < c-eps {
			return false
		}
	}
	return true
}

func (s *Search) firstFit(ctx context.Context, item model.CargoItem, o Orientation, bin int, inBin []Placed) (model.Placement, bool, error) {
	if !geometry.FitsWithin(s.Vehicle, 0, 0, 0, o.Size) {
		return model.Placement{}, false, nil
	}
	fc := s.newFitContext(item, o, inBin)
	if s.Candidates == model.CandidatesExtremePoints {
		return s.scanExtremePoints(ctx, item, o, bin, fc)
	}
	return s.scanGrid(ctx, item, o, bin, fc)
}

// axisSteps returns 0, step, 2*step ... up to limit, plus limit itself so
// items can sit flush against the far wall.
func axisSteps(limit, step float64) []float64 {
	var out []float64
	for v := 0.0; v <= limit+eps; v += step {
		out = append(out, v)
	}
	if last := out[len(out)-1]; limit-last > eps {
		out = append(out, limit)
	}
	return out
}

// scanGrid walks candidate origins bottom-up: Y outermost, then Z, then X.
func (s *Search) scanGrid(ctx context.Context, item model.CargoItem, o Orientation, bin int, fc fitContext) (model.Placement, bool, error) {
	v := s.Vehicle
	xs := axisSteps(v.Width-o.Size.W, s.GridStep)
	ys := axisSteps(v.Height-o.Size.H, s.GridStep)
	zs := axisSteps(v.Length-o.Size.L, s.GridStep)

	for _, y := range ys {
		for _, z := range zs {
			for xi := 0; xi < len(xs); {
				if err := s.Budget.Spend(ctx); err != nil {
					return model.Placement{}, false, err
				}
				box := geometry.NewBox(xs[xi], y, z, o.Size)
				if c := fc.collision(box); c >= 0 {
					// Every origin short of the blocker's far face hits it too.
					end := fc.boxes[c].X + fc.boxes[c].W
					for xi < len(xs) && xs[xi] < end-eps {
						xi++
					}
					continue
				}
				if fc.clear(box) {
					return newPlacement(item, bin, box.X, y, z, o), true, nil
				}
				xi++
			}
		}
	}
	return model.Placement{}, false, nil
}

type point struct{ x, y, z float64 }

// extremePoints returns the origin plus the corners just past every placed
// box on each axis, with the flange gap added where the rules ask for one.
func extremePoints(fc fitContext) []point {
	pts := []point{{0, 0, 0}}
	for i, b := range fc.boxes {
		gap := 0.0
		if fc.clearance != nil {
			gap = fc.clearance[i]
		}
		pts = append(pts,
			point{b.X + b.W + gap, b.Y, b.Z},
			point{b.X, b.Y + b.H + gap, b.Z},
			point{b.X, b.Y, b.Z + b.L + gap},
			point{b.X + b.W + gap, 0, b.Z},
			point{b.X, 0, b.Z + b.L + gap},
		)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].y != pts[j].y {
			return pts[i].y < pts[j].y
		}
		if pts[i].z != pts[j].z {
			return pts[i].z < pts[j].z
		}
		return pts[i].x < pts[j].x
	})
	out := make([]point, 0, len(pts))
	for i, p := range pts {
		if i > 0 && p == pts[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Search) scanExtremePoints(ctx context.Context, item model.CargoItem, o Orientation, bin int, fc fitContext) (model.Placement, bool, error) {
	for _, pt := range extremePoints(fc) {
		if err := s.Budget.Spend(ctx); err != nil {
			return model.Placement{}, false, err
		}
		if !geometry.FitsWithin(s.Vehicle, pt.x, pt.y, pt.z, o.Size) {
			continue
		}
		box := geometry.NewBox(pt.x, pt.y, pt.z, o.Size)
		if fc.collision(box) >= 0 || !fc.clear(box) {
			continue
		}
		return newPlacement(item, bin, pt.x, pt.y, pt.z, o), true, nil
	}
	return model.Placement{}, false, nil
}
