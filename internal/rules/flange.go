// Package rules holds the domain rules that bias and validate placements:
// flange clearance between neighbouring ducts and the layering rules that
// decide how sections stack.
package rules

import (
	"fmt"

	"github.com/piwi3910/DuctLoad/internal/geometry"
	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
)

// WarningMargin is the band above the required clearance that still gets
// reported as tight.
const WarningMargin = 1.2

type flangePair struct {
	a, b model.FlangeType
}

// pairClearance holds the special cases, keyed with both orderings.
var pairClearance = map[flangePair]float64{}

func init() {
	for _, e := range []struct {
		a, b model.FlangeType
		mm   float64
	}{
		{model.FlangeTDC, model.FlangeTDC, 50},
		{model.FlangeTDC, model.FlangeShina30, 45},
		{model.FlangeTDC, model.FlangeShina20, 40},
		{model.FlangeShina30, model.FlangeShina30, 35},
	} {
		pairClearance[flangePair{e.a, e.b}] = e.mm
		pairClearance[flangePair{e.b, e.a}] = e.mm
	}
}

var minClearance = map[model.FlangeType]float64{
	model.FlangeTDC:     43,
	model.FlangeShina20: 20,
	model.FlangeShina30: 30,
	model.FlangeReyka:   15,
	model.FlangeNone:    10,
}

// DefaultClearance applies to flange types with no table entry.
const DefaultClearance = 10.0

// MinClearance returns the individual minimum clearance of a flange type.
func MinClearance(f model.FlangeType) float64 {
	if c, ok := minClearance[f]; ok {
		return c
	}
	return DefaultClearance
}

// PairClearance returns the clearance required between two flange types.
// It is symmetric in its arguments.
func PairClearance(a, b model.FlangeType) float64 {
	if a == "" {
		a = model.FlangeNone
	}
	if b == "" {
		b = model.FlangeNone
	}
	if c, ok := pairClearance[flangePair{a, b}]; ok {
		return c
	}
	return max(MinClearance(a), MinClearance(b))
}

// RequiredDistance returns the clearance required between two items.
func RequiredDistance(a, b model.CargoItem) float64 {
	return PairClearance(a.Flange, b.Flange)
}

// ActualDistance returns the gap between the rotated boxes of two placed
// items, zero when they overlap.
func ActualDistance(a model.CargoItem, pa model.Placement, b model.CargoItem, pb model.Placement) float64 {
	boxA := geometry.PlacementBox(pa, model.RotatedDims(a, pa.Rotation))
	boxB := geometry.PlacementBox(pb, model.RotatedDims(b, pb.Rotation))
	return geometry.Gap(boxA, boxB)
}

// CheckMinDistance reports whether two placed items keep their clearance.
func CheckMinDistance(a model.CargoItem, pa model.Placement, b model.CargoItem, pb model.Placement) bool {
	return ActualDistance(a, pa, b, pb) >= RequiredDistance(a, b)
}

// CanPlaceNear reports whether a new placement keeps clearance against every
// existing one. existingItems[i] is the item carried by existingPlacements[i].
func CanPlaceNear(item model.CargoItem, p model.Placement, existingItems []model.CargoItem, existingPlacements []model.Placement) bool {
	for i, ep := range existingPlacements {
		if !CheckMinDistance(item, p, existingItems[i], ep) {
			return false
		}
	}
	return true
}

// Violation describes one pair of placements that is too close.
type Violation struct {
	ItemA     string  `json:"item_a"`
	ItemB     string  `json:"item_b"`
	Required  float64 `json:"required"`
	Actual    float64 `json:"actual"`
	Shortfall float64 `json:"shortfall"`
	Message   string  `json:"message"`
}

// ValidationResult is the outcome of a clearance audit.
type ValidationResult struct {
	Valid    bool        `json:"valid"`
	Errors   []Violation `json:"errors,omitempty"`
	Warnings []Violation `json:"warnings,omitempty"`
}

// ValidateAllPlacements checks every pair of placements sharing a bin.
// Ids missing from items resolve to registry defaults.
func ValidateAllPlacements(items []model.CargoItem, placements []model.Placement) ValidationResult {
	reg := registry.New(nil)
	reg.RegisterItems(items)
	return Validate(reg, placements)
}

// Validate checks every same-bin pair of placements, resolving items
// through reg.
func Validate(reg *registry.Registry, placements []model.Placement) ValidationResult {
	resolved := make([]model.CargoItem, len(placements))
	for i, p := range placements {
		resolved[i] = reg.Resolve(p)
	}

	res := ValidationResult{Valid: true}
	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			pa, pb := placements[i], placements[j]
			if pa.Bin != pb.Bin {
				continue
			}
			a, b := resolved[i], resolved[j]
			required := RequiredDistance(a, b)
			actual := ActualDistance(a, pa, b, pb)
			switch {
			case actual < required:
				res.Valid = false
				res.Errors = append(res.Errors, Violation{
					ItemA:     pa.ItemID,
					ItemB:     pb.ItemID,
					Required:  required,
					Actual:    actual,
					Shortfall: required - actual,
					Message: fmt.Sprintf("%s and %s: clearance %.0f mm, required %.0f mm (short by %.0f mm)",
						pa.ItemID, pb.ItemID, actual, required, required-actual),
				})
			case actual < required*WarningMargin:
				res.Warnings = append(res.Warnings, Violation{
					ItemA:    pa.ItemID,
					ItemB:    pb.ItemID,
					Required: required,
					Actual:   actual,
					Message: fmt.Sprintf("%s and %s: clearance %.0f mm is within 20%% of the required %.0f mm",
						pa.ItemID, pb.ItemID, actual, required),
				})
			}
		}
	}
	return res
}

// Compliance returns the fraction of same-bin placement pairs that keep
// their clearance. Fewer than two placements per bin count as compliant.
func Compliance(reg *registry.Registry, placements []model.Placement) float64 {
	resolved := make([]model.CargoItem, len(placements))
	for i, p := range placements {
		resolved[i] = reg.Resolve(p)
	}
	pairs, ok := 0, 0
	for i := 0; i < len(placements); i++ {
		for j := i + 1; j < len(placements); j++ {
			if placements[i].Bin != placements[j].Bin {
				continue
			}
			pairs++
			if CheckMinDistance(resolved[i], placements[i], resolved[j], placements[j]) {
				ok++
			}
		}
	}
	if pairs == 0 {
		return 1
	}
	return float64(ok) / float64(pairs)
}
