package engine

import (
	"sort"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// splitPlaceable separates items that fit an empty vehicle from those that
// never can. Unplaceable composites report their nested ids too.
func splitPlaceable(s *Search, units []model.CargoItem) (fit []model.CargoItem, unplaced []string) {
	for _, it := range units {
		if s.FitsEmpty(it) {
			fit = append(fit, it)
			continue
		}
		unplaced = append(unplaced, it.ID)
		unplaced = append(unplaced, it.NestedIDs...)
	}
	return fit, unplaced
}

// centreHeightRatio is the cheap stability proxy used while searching:
// one minus the weighted centre height over the body height.
func centreHeightRatio(weight, moment, bodyHeight float64) float64 {
	if weight <= 0 || bodyHeight <= 0 {
		return 1
	}
	r := 1 - (moment/weight)/bodyHeight
	return min(max(r, 0), 1)
}

// buildResult turns a list of placements into a PackingResult. No
// placements gives zero bins, no rows and zero metrics.
func buildResult(alg model.Algorithm, v model.Vehicle, placed []Placed, unplaced []string) model.PackingResult {
	res := model.PackingResult{
		Algorithm:  alg,
		Placements: make([]model.Placement, 0, len(placed)),
		Unplaced:   unplaced,
	}
	if len(placed) == 0 {
		return res
	}

	var volume, weight, moment float64
	layers := make(map[int]float64)
	rows := make(map[int][]model.Placement)
	for _, p := range placed {
		pl := p.Placement
		res.Placements = append(res.Placements, pl)
		res.BinsUsed = max(res.BinsUsed, pl.Bin+1)
		volume += pl.Size.Volume()
		weight += p.Weight
		moment += p.Weight * (pl.Y + pl.Size.H/2)
		layers[pl.Layer] += p.Weight
		rows[pl.Row] = append(rows[pl.Row], pl)
	}

	idx := make([]int, 0, len(rows))
	for r := range rows {
		idx = append(idx, r)
	}
	sort.Ints(idx)
	for _, r := range idx {
		res.Rows = append(res.Rows, model.Row{Index: r, Placements: rows[r]})
	}

	res.Metrics = model.ResultMetrics{
		VolumeFill:     volume / (float64(res.BinsUsed) * v.Volume()),
		StabilityScore: centreHeightRatio(weight, moment, v.Height),
		TotalWeight:    weight,
		LayerWeights:   layers,
	}
	return res
}
