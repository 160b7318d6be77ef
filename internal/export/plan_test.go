package export

import (
	"errors"
	"math"
	"testing"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
	"github.com/piwi3910/DuctLoad/internal/stability"
)

// buildTestPlan creates a two-vehicle plan with a nested round duct and a
// round section standing on end.
func buildTestPlan() Plan {
	v := model.Vehicle{Name: "Truck 5t", Type: model.VehicleTruck, Width: 2400, Height: 2300, Length: 6000, MaxPayload: 5000}
	units := []model.CargoItem{
		{ID: "trunk_1", Name: "Trunk", Shape: model.ShapeRectangular, Width: 600, Height: 400, Length: 1000, Quantity: 1, Weight: 20, Flange: model.FlangeTDC},
		{ID: "trunk_2", Name: "Trunk", Shape: model.ShapeRectangular, Width: 600, Height: 400, Length: 1000, Quantity: 1, Weight: 20, Flange: model.FlangeTDC},
		{ID: "riser_1", Name: "Riser", Shape: model.ShapeRound, Diameter: 315, Length: 1250, Quantity: 1, Weight: 8},
		{ID: "spiral_1", Name: "", Shape: model.ShapeRound, Diameter: 200, Length: 900, Quantity: 1, Weight: 4},
		{ID: "box_1", Name: "Plenum", Shape: model.ShapeRectangular, Width: 1000, Height: 800, Length: 1200, Quantity: 1, Weight: 35},
	}
	reg := registry.New(nil)
	reg.RegisterItems(units)

	byID := make(map[string]model.CargoItem)
	for _, u := range units {
		byID[u.ID] = u
	}
	place := func(id string, bin int, x, y, z float64, rot model.Rotation) model.Placement {
		return model.NewPlacement(id, bin, x, y, z, rot, model.RotatedDims(byID[id], rot))
	}

	trunk1 := place("trunk_1", 0, 0, 0, 0, model.Rotation{})
	trunk1.NestedIDs = []string{"spiral_1"}
	placements := []model.Placement{
		trunk1,
		place("trunk_2", 0, 0, 400, 0, model.Rotation{}),
		place("riser_1", 0, 700, 0, 0, model.Rotation{X: true}),
		place("box_1", 1, 0, 0, 0, model.Rotation{}),
	}
	res := model.PackingResult{
		Algorithm:  model.AlgorithmBeam,
		Placements: placements,
		BinsUsed:   2,
		Unplaced:   []string{"huge_1"},
		Metrics:    model.ResultMetrics{VolumeFill: 0.1, StabilityScore: 0.8, TotalWeight: 87},
	}
	return Plan{Title: "Site 12", Vehicle: v, Result: res, Registry: reg}
}

func withFindings(plan Plan) Plan {
	report := stability.Analyze(plan.Vehicle, plan.Result, plan.Registry)
	clearance := rules.Validate(plan.Registry, plan.Result.Placements)
	plan.Stability = &report
	plan.Clearance = &clearance
	return plan
}

func TestPlanBins(t *testing.T) {
	plan := buildTestPlan()
	bins := plan.Bins()

	if len(bins) != 2 {
		t.Fatalf("expected 2 bins, got %d", len(bins))
	}
	if bins[0].Items != 4 {
		t.Errorf("expected 4 sections in vehicle 1 (nested counted), got %d", bins[0].Items)
	}
	if math.Abs(bins[0].Weight-52) > 1e-9 {
		t.Errorf("expected 52 kg in vehicle 1, got %f", bins[0].Weight)
	}
	wantFill := (1000*400*600 + 1000*400*600 + 315*315*1250) / plan.Vehicle.Volume()
	if math.Abs(bins[0].VolumeFill-wantFill) > 1e-9 {
		t.Errorf("expected fill %f, got %f", wantFill, bins[0].VolumeFill)
	}
	if bins[1].Items != 1 || bins[1].Bin != 1 {
		t.Errorf("unexpected vehicle 2 stats %+v", bins[1])
	}
}

func TestPlanCheck(t *testing.T) {
	plan := buildTestPlan()
	plan.Result.Placements = nil
	if err := plan.check(); !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("expected ErrEmptyPlan, got %v", err)
	}

	plan = buildTestPlan()
	plan.Vehicle.Length = 0
	if err := plan.check(); err == nil {
		t.Error("expected error for invalid vehicle")
	}
}

func TestDescribeAndRotationCode(t *testing.T) {
	if got := describe(model.CargoItem{Shape: model.ShapeRound, Diameter: 315, Length: 1250}); got != "D315 L1250" {
		t.Errorf("unexpected round description %q", got)
	}
	if got := describe(model.CargoItem{Shape: model.ShapeRectangular, Width: 600, Height: 300, Length: 1000}); got != "600x300 L1000" {
		t.Errorf("unexpected rect description %q", got)
	}
	if got := rotationCode(model.Rotation{}); got != "-" {
		t.Errorf("expected '-', got %q", got)
	}
	if got := rotationCode(model.Rotation{X: true, Z: true}); got != "XZ" {
		t.Errorf("expected 'XZ', got %q", got)
	}
}
