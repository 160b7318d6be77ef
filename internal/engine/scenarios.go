package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
	"github.com/piwi3910/DuctLoad/internal/stability"
)

// Profile names a loading priority.
type Profile string

const (
	ProfileMinimizeVehicles Profile = "minimize-vehicles"
	ProfileMaximizeSafety   Profile = "maximize-safety"
	ProfileProtectFragile   Profile = "protect-fragile"
	ProfileFastUnloading    Profile = "fast-unloading"
	ProfileBalanced         Profile = "balanced"
)

// ScenarioWeights weight the five scenario criteria.
type ScenarioWeights struct {
	VehicleCount      float64 `json:"vehicle_count" yaml:"vehicle_count"`
	WeightBalance     float64 `json:"weight_balance" yaml:"weight_balance"`
	CenterOfGravity   float64 `json:"center_of_gravity" yaml:"center_of_gravity"`
	FragileProtection float64 `json:"fragile_protection" yaml:"fragile_protection"`
	UnloadingOrder    float64 `json:"unloading_order" yaml:"unloading_order"`
}

// Sum returns the total of all weights.
func (w ScenarioWeights) Sum() float64 {
	return w.VehicleCount + w.WeightBalance + w.CenterOfGravity + w.FragileProtection + w.UnloadingOrder
}

// ScenarioConfig is a named weighting profile.
type ScenarioConfig struct {
	Profile     Profile         `json:"profile" yaml:"profile"`
	Description string          `json:"description" yaml:"description"`
	Weights     ScenarioWeights `json:"weights" yaml:"weights"`
}

// DefaultScenarios returns the five built-in profiles.
func DefaultScenarios() []ScenarioConfig {
	return []ScenarioConfig{
		{
			Profile:     ProfileMinimizeVehicles,
			Description: "Fewest vehicles, largest sections first",
			Weights:     ScenarioWeights{VehicleCount: 0.5, WeightBalance: 0.15, CenterOfGravity: 0.15, FragileProtection: 0.1, UnloadingOrder: 0.1},
		},
		{
			Profile:     ProfileMaximizeSafety,
			Description: "Low centre of gravity and even weight",
			Weights:     ScenarioWeights{VehicleCount: 0.1, WeightBalance: 0.3, CenterOfGravity: 0.35, FragileProtection: 0.15, UnloadingOrder: 0.1},
		},
		{
			Profile:     ProfileProtectFragile,
			Description: "Fragile sections loaded last, on top",
			Weights:     ScenarioWeights{VehicleCount: 0.1, WeightBalance: 0.15, CenterOfGravity: 0.15, FragileProtection: 0.5, UnloadingOrder: 0.1},
		},
		{
			Profile:     ProfileFastUnloading,
			Description: "Loaded in reverse unloading order",
			Weights:     ScenarioWeights{VehicleCount: 0.1, WeightBalance: 0.1, CenterOfGravity: 0.1, FragileProtection: 0.1, UnloadingOrder: 0.6},
		},
		{
			Profile:     ProfileBalanced,
			Description: "Equal weight on every criterion",
			Weights:     ScenarioWeights{VehicleCount: 0.2, WeightBalance: 0.2, CenterOfGravity: 0.2, FragileProtection: 0.2, UnloadingOrder: 0.2},
		},
	}
}

// fragility is the item's fragility score, or 0.5 for thin sheet
// materials when no score is given.
func fragility(it model.CargoItem) float64 {
	if it.FragilityScore > 0 {
		return it.FragilityScore
	}
	if registry.IsFragileMaterial(it.Material) {
		return 0.5
	}
	return 0
}

// Order returns the loading order the profile packs items in.
func (p Profile) Order(items []model.CargoItem) []model.CargoItem {
	switch p {
	case ProfileMinimizeVehicles:
		return sortByVolume(items)
	case ProfileProtectFragile:
		sorted := rules.SortForVentilationLayering(items)
		sort.SliceStable(sorted, func(i, j int) bool {
			return fragility(sorted[i]) < fragility(sorted[j])
		})
		return sorted
	case ProfileFastUnloading:
		// Sections unloaded last go in first.
		sorted := rules.SortForVentilationLayering(items)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].UnloadPriority > sorted[j].UnloadPriority
		})
		return sorted
	default:
		return rules.SortForVentilationLayering(items)
	}
}

// Distribution is the load split in percent of total weight.
type Distribution struct {
	Front float64 `json:"front"`
	Rear  float64 `json:"rear"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// TransportSafety holds the quick pass/fail flags of a scenario.
type TransportSafety struct {
	BrakeStable        bool   `json:"brake_stable"`
	TurnStable         bool   `json:"turn_stable"`
	VibrationResistant bool   `json:"vibration_resistant"`
	TippingRisk        string `json:"tipping_risk"`
}

// ScenarioMetrics are derived from one scenario's result. Multi-vehicle
// results are measured with all bins overlaid in one body.
type ScenarioMetrics struct {
	VehiclesUsed        int             `json:"vehicles_used"`
	TotalWeight         float64         `json:"total_weight"`
	AvgUtilization      float64         `json:"avg_utilization"` // percent
	CenterOfGravity     stability.Point `json:"center_of_gravity"`
	COGHeightPct        float64         `json:"cog_height_pct"`
	Distribution        Distribution    `json:"distribution"`
	StabilityScore      float64         `json:"stability_score"`
	FragileProtection   float64         `json:"fragile_protection"`
	UnloadingEfficiency float64         `json:"unloading_efficiency"`
	Safety              TransportSafety `json:"safety"`
}

// ScenarioResult pairs a profile with its packing and score.
type ScenarioResult struct {
	Config  ScenarioConfig      `json:"config"`
	Result  model.PackingResult `json:"result"`
	Metrics ScenarioMetrics     `json:"metrics"`
	Score   float64             `json:"score"`
}

// Name returns the profile name.
func (r ScenarioResult) Name() string {
	return string(r.Config.Profile)
}

// ComputeScenarioMetrics derives the scenario metrics of a result.
func ComputeScenarioMetrics(reg *registry.Registry, v model.Vehicle, res model.PackingResult) ScenarioMetrics {
	m := ScenarioMetrics{
		VehiclesUsed:        res.BinsUsed,
		AvgUtilization:      res.Metrics.VolumeFill * 100,
		FragileProtection:   100,
		UnloadingEfficiency: 100,
	}
	if len(res.Placements) == 0 {
		m.StabilityScore = 100
		m.Safety = TransportSafety{TurnStable: true, VibrationResistant: true, TippingRisk: "low"}
		return m
	}

	cog, total := stability.CenterOfGravity(reg, res.Placements)
	m.CenterOfGravity = cog
	m.TotalWeight = total
	m.COGHeightPct = cog.Y / v.Height * 100

	var rear, left, fragileCount, fragilePoints float64
	layerCounts := make(map[int]int)
	for _, p := range res.Placements {
		w := reg.LoadWeight(p)
		d := reg.Dimensions(p)
		if p.Z+d.L/2 >= v.Length/2 {
			rear += w
		}
		if p.X+d.W/2 < v.Width/2 {
			left += w
		}
		it, _ := reg.Item(p.ItemID)
		if reg.IsFragile(p) || it.FragilityScore > 0.5 {
			fragileCount++
			if p.Y > 0 {
				fragilePoints += 0.7
			}
			if p.Y > 500 {
				fragilePoints += 0.3
			}
		}
		layerCounts[p.Layer]++
	}
	if total > 0 {
		m.Distribution = Distribution{
			Front: (total - rear) / total * 100,
			Rear:  rear / total * 100,
			Left:  left / total * 100,
			Right: (total - left) / total * 100,
		}
	}

	score := 100.0
	if m.COGHeightPct > 50 {
		score -= m.COGHeightPct - 50
	}
	if d := math.Abs(m.Distribution.Front - m.Distribution.Rear); d > 20 {
		score -= (d - 20) * 0.5
	}
	if d := math.Abs(m.Distribution.Left - m.Distribution.Right); d > 10 {
		score -= d - 10
	}
	m.StabilityScore = math.Max(0, score)

	if fragileCount > 0 {
		m.FragileProtection = fragilePoints / fragileCount * 100
	}

	unload := 100.0
	if n := len(layerCounts); n > 3 {
		unload -= 10 * float64(n-3)
	}
	for _, c := range layerCounts {
		if c > 10 {
			unload -= 2 * float64(c-10)
		}
	}
	m.UnloadingEfficiency = math.Max(0, unload)

	lr := math.Abs(m.Distribution.Left - m.Distribution.Right)
	m.Safety = TransportSafety{
		BrakeStable:        m.Distribution.Rear >= 55 && m.Distribution.Rear <= 70,
		TurnStable:         lr <= 15,
		VibrationResistant: m.COGHeightPct < 45,
		TippingRisk:        tippingBucket(m.COGHeightPct),
	}
	return m
}

func tippingBucket(cogPct float64) string {
	switch {
	case cogPct < 100.0/3:
		return "low"
	case cogPct < 200.0/3:
		return "medium"
	default:
		return "high"
	}
}

// ScenarioScore is the weighted criteria sum normalised to 0..1.
func ScenarioScore(w ScenarioWeights, m ScenarioMetrics) float64 {
	sum := w.Sum()
	if sum <= 0 {
		return 0
	}
	vehicles := 100 / float64(max(1, m.VehiclesUsed))
	total := w.VehicleCount*vehicles +
		w.WeightBalance*m.StabilityScore +
		w.CenterOfGravity*(100-m.COGHeightPct) +
		w.FragileProtection*m.FragileProtection +
		w.UnloadingOrder*m.UnloadingEfficiency
	return total / (sum * 100)
}

// RankScenarios sorts results by score, highest first, with ties broken by
// profile name.
func RankScenarios(results []ScenarioResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Name() < results[j].Name()
	})
}

// RunScenarios packs items once per profile, concurrently, and returns the
// results ranked. An empty scenarios list runs DefaultScenarios.
func RunScenarios(ctx context.Context, v model.Vehicle, items []model.CargoItem, settings model.PackSettings, scenarios []ScenarioConfig, logger *slog.Logger) ([]ScenarioResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scenarios")
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %gx%gx%g", ErrInvalidVehicle, v.Width, v.Height, v.Length)
	}
	if len(scenarios) == 0 {
		scenarios = DefaultScenarios()
	}

	units := Prepare(v, settings, items)
	reg := UnitRegistry(items, logger)
	results := make([]ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if settings.Parallelism > 0 {
		g.SetLimit(settings.Parallelism)
	}
	for i, cfg := range scenarios {
		g.Go(func() error {
			s := NewSearch(v, settings, NewBudget(settings.MaxNodes))
			res, err := BeamSearch(gctx, s, cfg.Profile.Order(units), settings.BeamWidth)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", cfg.Profile, err)
			}
			m := ComputeScenarioMetrics(reg, v, res)
			results[i] = ScenarioResult{
				Config:  cfg,
				Result:  res,
				Metrics: m,
				Score:   ScenarioScore(cfg.Weights, m),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	RankScenarios(results)
	for _, r := range results {
		logger.Debug("scenario scored", "profile", r.Config.Profile, "score", r.Score, "vehicles", r.Metrics.VehiclesUsed)
	}
	return results, nil
}

// Priority selects the metric SelectBestScenario re-sorts by.
type Priority string

const (
	PriorityNone        Priority = ""
	PriorityVehicles    Priority = "vehicles"
	PrioritySafety      Priority = "safety"
	PriorityFragile     Priority = "fragile"
	PriorityUnloading   Priority = "unloading"
	PriorityUtilization Priority = "utilization"
)

// SelectionCriteria filter and re-order ranked scenarios.
type SelectionCriteria struct {
	MaxVehicles int      // 0 = no limit
	Priority    Priority // empty keeps the score order
}

// SelectBestScenario returns the best result under criteria. When no result
// meets MaxVehicles the filter is dropped. It reports false only for an
// empty input.
func SelectBestScenario(results []ScenarioResult, criteria SelectionCriteria) (ScenarioResult, bool) {
	if len(results) == 0 {
		return ScenarioResult{}, false
	}
	candidates := make([]ScenarioResult, 0, len(results))
	for _, r := range results {
		if criteria.MaxVehicles <= 0 || r.Metrics.VehiclesUsed <= criteria.MaxVehicles {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, results...)
	}
	RankScenarios(candidates)

	var better func(a, b ScenarioResult) bool
	switch criteria.Priority {
	case PriorityVehicles:
		better = func(a, b ScenarioResult) bool { return a.Metrics.VehiclesUsed < b.Metrics.VehiclesUsed }
	case PrioritySafety:
		better = func(a, b ScenarioResult) bool { return a.Metrics.StabilityScore > b.Metrics.StabilityScore }
	case PriorityFragile:
		better = func(a, b ScenarioResult) bool { return a.Metrics.FragileProtection > b.Metrics.FragileProtection }
	case PriorityUnloading:
		better = func(a, b ScenarioResult) bool { return a.Metrics.UnloadingEfficiency > b.Metrics.UnloadingEfficiency }
	case PriorityUtilization:
		better = func(a, b ScenarioResult) bool { return a.Metrics.AvgUtilization > b.Metrics.AvgUtilization }
	}
	if better != nil {
		sort.SliceStable(candidates, func(i, j int) bool {
			return better(candidates[i], candidates[j])
		})
	}
	return candidates[0], true
}
