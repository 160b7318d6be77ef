package registry

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestEstimateWeight_GalvanizedRect(t *testing.T) {
	it := model.CargoItem{ID: "d1", Shape: model.ShapeRectangular, Width: 300, Height: 300, Length: 1000, Material: model.MaterialGalvanized}
	r := New(nil)
	r.RegisterItems([]model.CargoItem{it})

	w := r.Weight(model.Placement{ItemID: "d1"})

	// 2*(0.3+0.3)*1.0 m² * 0.0007 m * 7850 kg/m³
	assert.InDelta(t, 6.594, w, 1e-9)
	assert.NotEqual(t, DefaultWeight, w)
}

func TestEstimateWeight_Round(t *testing.T) {
	it := model.CargoItem{Shape: model.ShapeRound, Diameter: 400, Length: 2000, Material: model.MaterialAluminum}
	want := math.Pi * 0.4 * 2.0 * 0.0006 * 2700
	assert.InDelta(t, want, EstimateWeight(it), 1e-9)
}

func TestWallThicknessTiers(t *testing.T) {
	tests := []struct {
		name string
		item model.CargoItem
		want float64
	}{
		{"rect small", model.CargoItem{Shape: model.ShapeRectangular, Width: 250, Height: 100}, 0.5},
		{"rect 500", model.CargoItem{Shape: model.ShapeRectangular, Width: 400, Height: 500}, 0.7},
		{"rect 1000", model.CargoItem{Shape: model.ShapeRectangular, Width: 1000, Height: 600}, 0.9},
		{"rect large", model.CargoItem{Shape: model.ShapeRectangular, Width: 1200, Height: 600}, 1.2},
		{"round 200", model.CargoItem{Shape: model.ShapeRound, Diameter: 200}, 0.5},
		{"round 450", model.CargoItem{Shape: model.ShapeRound, Diameter: 315}, 0.6},
		{"round 800", model.CargoItem{Shape: model.ShapeRound, Diameter: 630}, 0.7},
		{"round 1250", model.CargoItem{Shape: model.ShapeRound, Diameter: 1000}, 1.0},
		{"round large", model.CargoItem{Shape: model.ShapeRound, Diameter: 1600}, 1.4},
		{"explicit", model.CargoItem{Shape: model.ShapeRectangular, Width: 100, Height: 100, WallThickness: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WallThickness(tt.item))
		})
	}
}

func TestExplicitWeightWins(t *testing.T) {
	r := New(nil)
	r.RegisterItems([]model.CargoItem{{ID: "a", Shape: model.ShapeRectangular, Width: 300, Height: 300, Length: 1000, Weight: 42}})
	assert.Equal(t, 42.0, r.Weight(model.Placement{ItemID: "a"}))
}

func TestUnresolvedIDFallsBack(t *testing.T) {
	var buf bytes.Buffer
	r := New(bufferLogger(&buf))
	p := model.Placement{ItemID: "ghost"}

	assert.Equal(t, model.Dims{W: 100, H: 100, L: 1000}, r.Dimensions(p))
	assert.Equal(t, DefaultWeight, r.Weight(p))
	assert.Equal(t, model.MaterialGalvanized, r.Material(p))
	assert.Equal(t, model.FlangeNone, r.FlangeType(p))
	assert.True(t, r.IsFragile(p))
	assert.Contains(t, buf.String(), "unresolved item id")
	assert.Contains(t, buf.String(), "item_id=ghost")
}

func TestRegisterReplaces(t *testing.T) {
	r := New(nil)
	r.RegisterItems([]model.CargoItem{{ID: "a"}, {ID: "b"}})
	r.RegisterItems([]model.CargoItem{{ID: "c"}})

	_, ok := r.Item("a")
	assert.False(t, ok)
	_, ok = r.Item("c")
	assert.True(t, ok)
	assert.Equal(t, 1, r.Len())

	r.RegisterPlacements([]model.Placement{{ItemID: "a"}})
	r.RegisterPlacements([]model.Placement{{ItemID: "c"}})
	_, ok = r.Placement("a")
	assert.False(t, ok)
	_, ok = r.Placement("c")
	assert.True(t, ok)
}

func TestDimensionsMatchesCanonicalRotation(t *testing.T) {
	it := model.NewRectItem("duct", 500, 300, 1000, 1)
	r := New(nil)
	r.RegisterItems([]model.CargoItem{it})

	for _, rot := range model.AllRotations {
		p := model.Placement{ItemID: it.ID, Rotation: rot}
		require.Equal(t, model.ApplyRotation(it.BaseDims(), rot), r.Dimensions(p))
	}
}

func TestMaterialAndFragility(t *testing.T) {
	r := New(nil)
	r.RegisterItems([]model.CargoItem{
		{ID: "s", Material: model.MaterialStainless, Flange: model.FlangeTDC},
		{ID: "a", Material: model.MaterialAluminum},
		{ID: "n"},
	})

	assert.False(t, r.IsFragile(model.Placement{ItemID: "s"}))
	assert.True(t, r.IsFragile(model.Placement{ItemID: "a"}))
	assert.Equal(t, model.FlangeTDC, r.FlangeType(model.Placement{ItemID: "s"}))
	assert.Equal(t, model.FlangeNone, r.FlangeType(model.Placement{ItemID: "n"}))
	assert.Equal(t, model.MaterialGalvanized, r.Material(model.Placement{ItemID: "n"}))
	assert.Equal(t, 7850.0, Density("copper"))
}
