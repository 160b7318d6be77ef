package engine

import (
	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
)

// NestClearance is the gap in mm an inner section needs on each check.
const NestClearance = 10.0

// CanNest reports whether inner can travel inside outer.
func CanNest(outer, inner model.CargoItem) bool {
	if inner.Length > outer.Length {
		return false
	}
	switch {
	case outer.IsRound() && inner.IsRound():
		return inner.Diameter/2+NestClearance < outer.Diameter/2
	case !outer.IsRound() && !inner.IsRound():
		fits := func(w, h float64) bool {
			return w+NestClearance < outer.Width && h+NestClearance < outer.Height
		}
		return fits(inner.Width, inner.Height) || fits(inner.Height, inner.Width)
	case !outer.IsRound() && inner.IsRound():
		return inner.Diameter+NestClearance < outer.MinCross()
	default:
		return inner.MinCross()+NestClearance < outer.Diameter
	}
}

// NestItems merges unit items that fit inside larger ones. Items are taken
// largest first; each outer takes at most one inner, which may in turn take
// a smaller one. A composite keeps the outer's id and geometry, carries the
// summed weight and lists the nested ids.
//
// When fits is non-nil, items it rejects are passed through untouched and a
// nest is only formed if the composite still passes it.
func NestItems(units []model.CargoItem, fits func(model.CargoItem) bool) []model.CargoItem {
	if fits == nil {
		fits = func(model.CargoItem) bool { return true }
	}
	sorted := sortByVolume(units)
	used := make([]bool, len(sorted))
	var out []model.CargoItem

	for i, outer := range sorted {
		if used[i] {
			continue
		}
		used[i] = true
		if !fits(outer) {
			out = append(out, outer)
			continue
		}
		composite := outer
		composite.NestedIDs = nil
		weight := registry.ItemWeight(outer)

		host := outer
		for j := i + 1; j < len(sorted); j++ {
			inner := sorted[j]
			if used[j] || !CanNest(host, inner) {
				continue
			}
			trial := composite
			trial.Weight = weight + registry.ItemWeight(inner)
			if !fits(trial) {
				continue
			}
			used[j] = true
			weight = trial.Weight
			composite.Weight = weight
			composite.NestedIDs = append(composite.NestedIDs, inner.ID)
			host = inner
		}
		out = append(out, composite)
	}
	return out
}
