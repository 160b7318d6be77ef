package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// DefaultBeamWidth is the number of partial states kept per step.
const DefaultBeamWidth = 5

// packingState is one partial solution. States never share their
// placement slice: extend copies it.
type packingState struct {
	placed    []Placed
	bin       int // index of the bin currently being filled
	volume    float64
	weight    float64
	moment    float64 // sum of weight x centre height
	pairs     int     // same-bin placement pairs
	compliant int     // pairs keeping flange clearance
	score     float64
}

// extend returns a child state with p appended.
func (st packingState) extend(p Placed, v model.Vehicle, remaining int) packingState {
	child := st
	child.placed = make([]Placed, len(st.placed), len(st.placed)+1)
	copy(child.placed, st.placed)

	pl := p.Placement
	for _, q := range st.placed {
		if q.Placement.Bin != pl.Bin {
			continue
		}
		child.pairs++
		if rules.CheckMinDistance(p.Item, pl, q.Item, q.Placement) {
			child.compliant++
		}
	}
	child.placed = append(child.placed, p)
	child.bin = max(st.bin, pl.Bin)
	child.volume += pl.Size.Volume()
	child.weight += p.Weight
	child.moment += p.Weight * (pl.Y + pl.Size.H/2)
	child.score = child.heuristic(v, remaining)
	return child
}

// heuristic is vu*100 + stab*50 + flange*30 - 1000*remaining, built from
// running totals so scoring a child costs nothing extra.
func (st packingState) heuristic(v model.Vehicle, remaining int) float64 {
	vu := st.volume / (float64(st.bin+1) * v.Volume())
	stab := centreHeightRatio(st.weight, st.moment, v.Height)
	flange := 1.0
	if st.pairs > 0 {
		flange = float64(st.compliant) / float64(st.pairs)
	}
	return vu*100 + stab*50 + flange*30 - 1000*float64(remaining)
}

// BeamSearch places units in the given order, keeping the width best
// partial states after each item. Every state branches once per
// orientation that fits its current bin, and once more into a fresh bin
// when it already holds something.
func BeamSearch(ctx context.Context, s *Search, units []model.CargoItem, width int) (model.PackingResult, error) {
	if width <= 0 {
		width = DefaultBeamWidth
	}
	fit, unplaced := splitPlaceable(s, units)
	if len(fit) == 0 {
		return buildResult(model.AlgorithmBeam, s.Vehicle, nil, unplaced), nil
	}

	beam := []packingState{{}}
	for idx, it := range fit {
		remaining := len(fit) - idx - 1
		weight := registry.ItemWeight(it)

		var children []packingState
		for _, st := range beam {
			fits, err := s.FitsPerOrientation(ctx, it, st.bin, st.placed)
			if err != nil {
				return model.PackingResult{}, err
			}
			for _, p := range fits {
				children = append(children, st.extend(Placed{Item: it, Placement: p, Weight: weight}, s.Vehicle, remaining))
			}
			if len(st.placed) == 0 {
				continue
			}
			if p, ok := s.FindPlacementInNewBin(it, st.bin+1); ok {
				children = append(children, st.extend(Placed{Item: it, Placement: p, Weight: weight}, s.Vehicle, remaining))
			}
		}
		if len(children) == 0 {
			return model.PackingResult{}, fmt.Errorf("%w: no state can take item %s", ErrNoValidPacking, it.ID)
		}

		sort.SliceStable(children, func(i, j int) bool {
			return children[i].score > children[j].score
		})
		if len(children) > width {
			children = children[:width]
		}
		beam = children
	}

	return buildResult(model.AlgorithmBeam, s.Vehicle, beam[0].placed, unplaced), nil
}
