package engine

import (
	"log/slog"
	"math"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// Evaluation is the composite quality of a finished result.
type Evaluation struct {
	Efficiency       float64 `json:"efficiency"`
	VolumeFill       float64 `json:"volume_fill"`
	StabilityScore   float64 `json:"stability_score"`
	BinScore         float64 `json:"bin_score"` // 1 / bins used
	WeightBalance    float64 `json:"weight_balance"`
	FlangeCompliance float64 `json:"flange_compliance"`
}

// UnitRegistry registers items and their unit expansion so that both
// original ids and unit ids resolve.
func UnitRegistry(items []model.CargoItem, logger *slog.Logger) *registry.Registry {
	reg := registry.New(logger)
	all := model.ExpandItems(items)
	all = append(all, items...)
	reg.RegisterItems(all)
	return reg
}

// Evaluate scores a result against the items it was packed from. An empty
// result scores zero.
func Evaluate(result model.PackingResult, items []model.CargoItem) Evaluation {
	reg := UnitRegistry(items, nil)
	reg.RegisterPlacements(result.Placements)
	return EvaluateWith(reg, result)
}

// EvaluateWith scores a result using an already populated registry.
func EvaluateWith(reg *registry.Registry, result model.PackingResult) Evaluation {
	if len(result.Placements) == 0 || result.BinsUsed == 0 {
		return Evaluation{}
	}
	ev := Evaluation{
		VolumeFill:       result.Metrics.VolumeFill,
		StabilityScore:   result.Metrics.StabilityScore,
		BinScore:         1 / float64(result.BinsUsed),
		WeightBalance:    weightBalance(reg, result),
		FlangeCompliance: rules.Compliance(reg, result.Placements),
	}
	ev.Efficiency = ev.VolumeFill*0.4 +
		ev.StabilityScore*0.25 +
		ev.BinScore*0.15 +
		ev.WeightBalance*0.1 +
		ev.FlangeCompliance*0.1
	return ev
}

// weightBalance is 1 - stddev/mean over the per-bin load, floored at 0.
func weightBalance(reg *registry.Registry, result model.PackingResult) float64 {
	bins := make([]float64, result.BinsUsed)
	for _, p := range result.Placements {
		if p.Bin >= 0 && p.Bin < len(bins) {
			bins[p.Bin] += reg.LoadWeight(p)
		}
	}
	var sum float64
	for _, w := range bins {
		sum += w
	}
	mean := sum / float64(len(bins))
	if mean <= 0 {
		return 0
	}
	var sq float64
	for _, w := range bins {
		sq += (w - mean) * (w - mean)
	}
	std := math.Sqrt(sq / float64(len(bins)))
	return math.Max(0, 1-std/mean)
}

// CompareResults returns Efficiency(a) - Efficiency(b); positive means a is
// better.
func CompareResults(a, b model.PackingResult, items []model.CargoItem) float64 {
	return Evaluate(a, items).Efficiency - Evaluate(b, items).Efficiency
}
