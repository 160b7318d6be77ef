package stability

import (
	"math"
	"strings"
	"testing"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regWith(items ...model.CargoItem) *registry.Registry {
	r := registry.New(nil)
	r.RegisterItems(items)
	return r
}

func box(id string, w, h, l, kg float64) model.CargoItem {
	return model.CargoItem{ID: id, Shape: model.ShapeRectangular, Width: w, Height: h, Length: l, Quantity: 1, Weight: kg, Material: model.MaterialGalvanized}
}

func pipe(id string, d, l, kg float64) model.CargoItem {
	return model.CargoItem{ID: id, Shape: model.ShapeRound, Diameter: d, Length: l, Quantity: 1, Weight: kg, Material: model.MaterialGalvanized}
}

func place(it model.CargoItem, x, y, z float64) model.Placement {
	return model.NewPlacement(it.ID, 0, x, y, z, model.Rotation{}, it.BaseDims())
}

func TestCenterOfGravity(t *testing.T) {
	a := box("a", 100, 100, 100, 10)
	b := box("b", 100, 100, 100, 30)
	inner := pipe("inner", 50, 100, 20)

	pb := place(b, 400, 0, 0)
	pb.NestedIDs = []string{"inner"}
	cog, total := CenterOfGravity(regWith(a, b, inner), []model.Placement{place(a, 0, 0, 0), pb})

	assert.InDelta(t, 60.0, total, 1e-9)
	assert.InDelta(t, (10*50+50*450)/60.0, cog.X, 1e-9)
	assert.InDelta(t, 50.0, cog.Y, 1e-9)
	assert.InDelta(t, 50.0, cog.Z, 1e-9)
}

func TestAnalyze_LowCentredLoad(t *testing.T) {
	v := model.Vehicle{Type: model.VehicleTruck, Width: 2400, Height: 2500, Length: 12000}
	it := box("slab", 1000, 500, 2000, 400)
	res := model.PackingResult{Placements: []model.Placement{place(it, 700, 0, 5000)}, BinsUsed: 1}

	r := Analyze(v, res, regWith(it))

	assert.InDelta(t, 1200.0, r.CenterOfGravity.X, 1e-9)
	assert.InDelta(t, 250.0, r.CenterOfGravity.Y, 1e-9)
	assert.InDelta(t, 0.0, r.COGOffset.X, 1e-9)
	assert.InDelta(t, 0.0, r.COGOffset.Z, 1e-9)

	assert.Equal(t, LevelLow, r.Tipping.Level)
	assert.InDelta(t, 5.0, r.Tipping.Score, 1e-9, "truck penalty only")
	assert.InDelta(t, 97.0, r.Vibration.Score, 1e-9)
	assert.Equal(t, LevelHigh, r.Vibration.Level)
	assert.True(t, r.Brake.IsStable)
	assert.InDelta(t, 100.0, r.Brake.Score, 1e-9)

	assert.InDelta(t, 66.0, r.Turn.MaxSafeSpeed, 1e-9)
	assert.InDelta(t, 1200.0/1250.0, r.Turn.LateralForceResistance, 1e-9)
	assert.InDelta(t, math.Atan(1200.0/1250.0)*180/math.Pi, r.Turn.CriticalTipAngle, 1e-9)

	want := 95*0.4 + 100*0.3 + (46.0/60*100)*0.2 + 97*0.1
	assert.InDelta(t, want, r.SafetyScore, 1e-9)
	assert.Equal(t, RatingExcellent, r.Overall)
}

func TestAnalyze_DangerousLoad(t *testing.T) {
	v := model.Vehicle{Type: model.VehicleVan, Width: 2400, Height: 2500, Length: 3000}
	tower := box("tower", 400, 2000, 1000, 500)
	p1, p2, p3 := pipe("p1", 300, 1000, 1), pipe("p2", 300, 1000, 1), pipe("p3", 300, 1000, 1)
	res := model.PackingResult{
		Placements: []model.Placement{
			place(tower, 0, 400, 0),
			place(p1, 2000, 600, 2000),
			place(p2, 2000, 1200, 2000),
			place(p3, 2000, 1700, 2000),
		},
		BinsUsed: 1,
	}

	r := NewAnalyzer(50, nil).Analyze(v, res, regWith(tower, p1, p2, p3))

	assert.GreaterOrEqual(t, r.Tipping.Score, 80.0)
	assert.Equal(t, LevelCritical, r.Tipping.Level)
	assert.Equal(t, RatingDangerous, r.Overall)
	assert.Contains(t, r.Recommendations, "Chock or strap 3 raised round ducts")
	assert.Contains(t, r.Brake.RiskFactors, "3 round ducts can roll or slide")

	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "dangerous") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_SupportedRoundsAreFixed(t *testing.T) {
	v := model.Vehicle{Type: model.VehicleTruck, Width: 2400, Height: 2500, Length: 6000}
	a, b := pipe("a", 300, 1000, 5), pipe("b", 300, 1000, 5)
	res := model.PackingResult{
		Placements: []model.Placement{place(a, 0, 600, 0), place(b, 320, 600, 0)},
		BinsUsed:   1,
	}

	r := Analyze(v, res, regWith(a, b))
	for _, f := range r.Tipping.Factors {
		assert.NotContains(t, f, "without lateral support")
	}
}

func TestAnalyze_Empty(t *testing.T) {
	r := Analyze(model.Vehicle{Width: 1, Height: 1, Length: 1}, model.PackingResult{}, regWith())
	assert.Equal(t, RatingExcellent, r.Overall)
	assert.Equal(t, 100.0, r.SafetyScore)
	require.True(t, r.Brake.IsStable)
}
