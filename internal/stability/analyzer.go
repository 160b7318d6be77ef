// Package stability audits a finished load plan for transport safety. It
// uses static approximations only: tipping, vibration, braking and
// cornering are scored from the centre of gravity and the placement list.
package stability

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// DefaultAdjacencyTolerance is how close a neighbour must be, in mm, for a
// raised round duct to count as held.
const DefaultAdjacencyTolerance = 50.0

// Point is a position in vehicle coordinates, mm.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Level buckets a risk or resistance score.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Rating is the overall verdict.
type Rating string

const (
	RatingExcellent  Rating = "excellent"
	RatingGood       Rating = "good"
	RatingAcceptable Rating = "acceptable"
	RatingPoor       Rating = "poor"
	RatingDangerous  Rating = "dangerous"
)

type TippingRisk struct {
	Level   Level    `json:"level"`
	Score   float64  `json:"score"` // 0..100, higher is worse
	Factors []string `json:"factors,omitempty"`
}

type VibrationResistance struct {
	Level           Level    `json:"level"`
	Score           float64  `json:"score"` // 0..100, higher is better
	VulnerableItems []string `json:"vulnerable_items,omitempty"`
}

type BrakeStability struct {
	IsStable        bool     `json:"is_stable"`
	Score           float64  `json:"score"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type TurnStability struct {
	MaxSafeSpeed           float64  `json:"max_safe_speed"`           // km/h
	LateralForceResistance float64  `json:"lateral_force_resistance"` // g before tipping
	CriticalTipAngle       float64  `json:"critical_tip_angle"`       // degrees
	Warnings               []string `json:"warnings,omitempty"`
}

// Report is the full transport-safety audit of one result.
type Report struct {
	CenterOfGravity Point               `json:"center_of_gravity"`
	COGOffset       Point               `json:"cog_offset"` // from the floor centre of the body
	TotalWeight     float64             `json:"total_weight"`
	Tipping         TippingRisk         `json:"tipping"`
	Vibration       VibrationResistance `json:"vibration"`
	Brake           BrakeStability      `json:"brake"`
	Turn            TurnStability       `json:"turn"`
	Overall         Rating              `json:"overall"`
	SafetyScore     float64             `json:"safety_score"`
	Recommendations []string            `json:"recommendations,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// CenterOfGravity returns the load-weighted centre of the placements and
// their total weight. Bins are overlaid in one body.
func CenterOfGravity(reg *registry.Registry, placements []model.Placement) (Point, float64) {
	var c Point
	var total float64
	for _, p := range placements {
		w := reg.LoadWeight(p)
		d := reg.Dimensions(p)
		c.X += w * (p.X + d.W/2)
		c.Y += w * (p.Y + d.H/2)
		c.Z += w * (p.Z + d.L/2)
		total += w
	}
	if total <= 0 {
		return Point{}, 0
	}
	return Point{X: c.X / total, Y: c.Y / total, Z: c.Z / total}, total
}

var vehiclePenalty = map[model.VehicleType]float64{
	model.VehicleVan:     10,
	model.VehicleTruck:   5,
	model.VehicleTrailer: 8,
}

// Analyzer audits results. The zero value is not usable; call NewAnalyzer.
type Analyzer struct {
	AdjacencyTolerance float64
	logger             *slog.Logger
}

func NewAnalyzer(tolerance float64, logger *slog.Logger) *Analyzer {
	if tolerance <= 0 {
		tolerance = DefaultAdjacencyTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{AdjacencyTolerance: tolerance, logger: logger.With("component", "stability")}
}

// Analyze audits result with default settings.
func Analyze(v model.Vehicle, result model.PackingResult, reg *registry.Registry) Report {
	return NewAnalyzer(DefaultAdjacencyTolerance, nil).Analyze(v, result, reg)
}

// loadFacts are the per-result figures every check draws on.
type loadFacts struct {
	cog          Point
	total        float64
	cogRatio     float64 // centre height over body height
	lateralRatio float64 // sideways offset over half width
	longRatio    float64 // lengthwise offset over half length
	topHeavy     float64 // share of weight above mid-height
	unfixed      []model.Placement
	lyingRounds  int
}

func (a *Analyzer) facts(v model.Vehicle, res model.PackingResult, reg *registry.Registry) loadFacts {
	var f loadFacts
	f.cog, f.total = CenterOfGravity(reg, res.Placements)
	f.cogRatio = f.cog.Y / v.Height
	f.lateralRatio = math.Abs(f.cog.X-v.Width/2) / (v.Width / 2)
	f.longRatio = math.Abs(f.cog.Z-v.Length/2) / (v.Length / 2)

	var upper float64
	for _, p := range res.Placements {
		d := reg.Dimensions(p)
		if p.Y+d.H/2 > v.Height/2 {
			upper += reg.LoadWeight(p)
		}
		if it, ok := reg.Item(p.ItemID); ok && it.IsRound() && !p.Rotation.X {
			f.lyingRounds++
		}
	}
	f.unfixed = rules.UnsupportedRounds(reg, res.Placements, a.AdjacencyTolerance)
	if f.total > 0 {
		f.topHeavy = upper / f.total
	}
	return f
}

// Analyze audits one result.
func (a *Analyzer) Analyze(v model.Vehicle, res model.PackingResult, reg *registry.Registry) Report {
	if len(res.Placements) == 0 || !v.Valid() {
		return Report{
			Tipping:     TippingRisk{Level: LevelLow},
			Vibration:   VibrationResistance{Level: LevelHigh, Score: 100},
			Brake:       BrakeStability{IsStable: true, Score: 100},
			Turn:        TurnStability{MaxSafeSpeed: 80},
			Overall:     RatingExcellent,
			SafetyScore: 100,
		}
	}

	f := a.facts(v, res, reg)
	r := Report{
		CenterOfGravity: f.cog,
		COGOffset:       Point{X: f.cog.X - v.Width/2, Y: f.cog.Y, Z: f.cog.Z - v.Length/2},
		TotalWeight:     f.total,
	}
	r.Tipping = tipping(v, f)
	r.Vibration = vibration(res, reg, f)
	r.Brake = brake(res, f)
	r.Turn = turn(v, f)

	turnScore := (r.Turn.MaxSafeSpeed - 20) / 60 * 100
	r.SafetyScore = (100-r.Tipping.Score)*0.4 + r.Brake.Score*0.3 + turnScore*0.2 + r.Vibration.Score*0.1

	switch {
	case r.Tipping.Score >= 80 || r.Brake.Score < 50:
		r.Overall = RatingDangerous
	case r.SafetyScore >= 85:
		r.Overall = RatingExcellent
	case r.SafetyScore >= 70:
		r.Overall = RatingGood
	case r.SafetyScore >= 55:
		r.Overall = RatingAcceptable
	default:
		r.Overall = RatingPoor
	}

	r.Warnings = append(r.Warnings, r.Tipping.Factors...)
	r.Warnings = append(r.Warnings, r.Brake.RiskFactors...)
	r.Warnings = append(r.Warnings, r.Turn.Warnings...)
	r.Recommendations = append(r.Recommendations, r.Brake.Recommendations...)
	if f.cogRatio > 0.5 {
		r.Recommendations = append(r.Recommendations, "Move heavy sections to the bottom layer")
	}
	if f.lateralRatio > 0.15 {
		r.Recommendations = append(r.Recommendations, "Shift load towards the vehicle centreline")
	}
	if len(f.unfixed) > 0 {
		r.Recommendations = append(r.Recommendations, fmt.Sprintf("Chock or strap %d raised round ducts", len(f.unfixed)))
	}
	if len(r.Vibration.VulnerableItems) > 0 {
		r.Recommendations = append(r.Recommendations, "Pad fragile sections against vibration")
	}
	if r.Overall == RatingDangerous {
		r.Warnings = append(r.Warnings, "Load plan is dangerous to transport as is")
	}

	a.logger.Debug("stability analysed",
		"rating", r.Overall,
		"safety_score", r.SafetyScore,
		"tipping", r.Tipping.Score,
		"brake", r.Brake.Score,
	)
	return r
}

func tipping(v model.Vehicle, f loadFacts) TippingRisk {
	var t TippingRisk
	switch {
	case f.cogRatio > 0.7:
		t.Score += 35
		t.Factors = append(t.Factors, fmt.Sprintf("Centre of gravity at %.0f%% of body height", f.cogRatio*100))
	case f.cogRatio > 0.5:
		t.Score += 25
		t.Factors = append(t.Factors, fmt.Sprintf("Centre of gravity at %.0f%% of body height", f.cogRatio*100))
	case f.cogRatio > 0.3:
		t.Score += 10
	}

	switch {
	case f.lateralRatio > 0.3:
		t.Score += 25
		t.Factors = append(t.Factors, fmt.Sprintf("Load %.0f%% off the centreline", f.lateralRatio*100))
	case f.lateralRatio > 0.15:
		t.Score += 12
		t.Factors = append(t.Factors, fmt.Sprintf("Load %.0f%% off the centreline", f.lateralRatio*100))
	}

	if p, ok := vehiclePenalty[v.Type]; ok {
		t.Score += p
	} else {
		t.Score += vehiclePenalty[model.VehicleTruck]
	}

	switch {
	case f.topHeavy > 0.5:
		t.Score += 15
		t.Factors = append(t.Factors, fmt.Sprintf("%.0f%% of the weight sits in the upper half", f.topHeavy*100))
	case f.topHeavy > 0.3:
		t.Score += 8
	}

	if n := len(f.unfixed); n > 0 {
		t.Score += math.Min(15, 3*float64(n))
		t.Factors = append(t.Factors, fmt.Sprintf("%d round ducts without lateral support", n))
	}

	t.Score = math.Min(100, t.Score)
	switch {
	case t.Score < 25:
		t.Level = LevelLow
	case t.Score < 50:
		t.Level = LevelMedium
	case t.Score < 75:
		t.Level = LevelHigh
	default:
		t.Level = LevelCritical
	}
	return t
}

func vibration(res model.PackingResult, reg *registry.Registry, f loadFacts) VibrationResistance {
	unfixed := make(map[string]bool, len(f.unfixed))
	for _, p := range f.unfixed {
		unfixed[p.ItemID] = true
	}

	vr := VibrationResistance{Score: 100}
	for _, p := range res.Placements {
		penalty := 0.0
		if reg.IsFragile(p) {
			penalty += 2
		}
		d := reg.Dimensions(p)
		if math.Max(d.W, math.Max(d.H, d.L)) > 600 {
			penalty++
		}
		if p.Y > 1000 {
			penalty += 1.5
		}
		if unfixed[p.ItemID] {
			penalty += 2
		}
		vr.Score -= penalty
		if penalty >= 3 {
			vr.VulnerableItems = append(vr.VulnerableItems, p.ItemID)
		}
	}
	vr.Score = math.Max(0, vr.Score)
	switch {
	case vr.Score >= 80:
		vr.Level = LevelHigh
	case vr.Score >= 60:
		vr.Level = LevelMedium
	default:
		vr.Level = LevelLow
	}
	return vr
}

// unfixedShare is the fraction of sections assumed loose under braking.
const unfixedShare = 0.2

func brake(res model.PackingResult, f loadFacts) BrakeStability {
	b := BrakeStability{Score: 100}
	switch {
	case f.longRatio > 0.3:
		b.Score -= 15
		b.RiskFactors = append(b.RiskFactors, "Load centre far from mid-length")
		b.Recommendations = append(b.Recommendations, "Spread the load evenly along the body")
	case f.longRatio > 0.15:
		b.Score -= 8
	}

	switch {
	case f.cogRatio > 0.5:
		b.Score -= 15
		b.RiskFactors = append(b.RiskFactors, "High centre of gravity under braking")
	case f.cogRatio > 0.35:
		b.Score -= 8
	}

	loose := int(math.Round(unfixedShare * float64(len(res.Placements))))
	b.Score -= math.Min(15, 2*float64(loose))
	if loose > 0 {
		b.Recommendations = append(b.Recommendations, fmt.Sprintf("Strap at least %d sections to the front wall", loose))
	}

	if f.lyingRounds > 0 {
		b.Score -= math.Min(15, 2*float64(f.lyingRounds))
		b.RiskFactors = append(b.RiskFactors, fmt.Sprintf("%d round ducts can roll or slide", f.lyingRounds))
		b.Recommendations = append(b.Recommendations, "Block round ducts with wedges")
	}

	if f.topHeavy > 0.3 {
		b.Score -= 10
		b.RiskFactors = append(b.RiskFactors, "Top-heavy load")
	}

	b.Score = math.Max(0, b.Score)
	b.IsStable = b.Score >= 70
	return b
}

func turn(v model.Vehicle, f loadFacts) TurnStability {
	speed := 60 * (1.2 - f.cogRatio) * (1 - f.lateralRatio)
	speed = math.Min(80, math.Max(20, speed))

	halfTrack := v.Track() / 2
	height := v.Deck() + f.cog.Y
	t := TurnStability{
		MaxSafeSpeed:           speed,
		LateralForceResistance: halfTrack / height,
		CriticalTipAngle:       math.Atan(halfTrack/height) * 180 / math.Pi,
	}
	if speed < 40 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("Keep cornering speed below %.0f km/h", speed))
	}
	if t.CriticalTipAngle < 35 {
		t.Warnings = append(t.Warnings, fmt.Sprintf("Critical tip angle only %.1f degrees", t.CriticalTipAngle))
	}
	return t
}
