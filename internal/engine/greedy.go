package engine

import (
	"context"
	"sort"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// sortByVolume returns a copy of items ordered largest first.
func sortByVolume(items []model.CargoItem) []model.CargoItem {
	sorted := make([]model.CargoItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume() > sorted[j].Volume()
	})
	return sorted
}

// Greedy is first-fit decreasing: items go into the current bin at the
// first valid position, and a new bin is opened when none is left. It is
// fast and deterministic but makes no attempt at optimality.
func Greedy(ctx context.Context, s *Search, units []model.CargoItem) (model.PackingResult, error) {
	fit, unplaced := splitPlaceable(s, units)
	order := rules.SortForVentilationLayering(sortByVolume(fit))

	var placed []Placed
	bin, binUsed := 0, false
	for _, it := range order {
		p, ok, err := s.FindFirstFit(ctx, it, bin, placed)
		if err != nil {
			return model.PackingResult{}, err
		}
		if !ok {
			if binUsed {
				bin++
			}
			p, ok = s.FindPlacementInNewBin(it, bin)
			if !ok {
				unplaced = append(unplaced, it.ID)
				unplaced = append(unplaced, it.NestedIDs...)
				continue
			}
		}
		binUsed = true
		placed = append(placed, Placed{Item: it, Placement: p, Weight: registry.ItemWeight(it)})
	}
	return buildResult(model.AlgorithmGreedy, s.Vehicle, placed, unplaced), nil
}
