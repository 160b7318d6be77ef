package rules

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/DuctLoad/internal/geometry"
	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
)

// Comparator thresholds.
const (
	weightTieKg   = 5.0
	areaTieMM2    = 10000.0 // 100 cm²
	defaultHeight = 1500.0
	defaultLoad   = 500.0
)

var maxStackHeight = map[model.Material]float64{
	model.MaterialGalvanized: 2000,
	model.MaterialStainless:  2500,
	model.MaterialAluminum:   1800,
}

var maxStackLoad = map[model.Material]float64{
	model.MaterialGalvanized: 500,
	model.MaterialStainless:  700,
	model.MaterialAluminum:   400,
}

// MaxStackHeight returns the tallest stack in mm a bottom item of the
// given material may carry.
func MaxStackHeight(m model.Material) float64 {
	if h, ok := maxStackHeight[m]; ok {
		return h
	}
	return defaultHeight
}

// MaxStackWeight returns the pressure allowance in kg per m² of base area
// for a bottom item of the given material.
func MaxStackWeight(m model.Material) float64 {
	if w, ok := maxStackLoad[m]; ok {
		return w
	}
	return defaultLoad
}

// LayerLess is the ventilation layering order: heavier first when the
// weights differ by more than 5 kg, then rectangular before round, then
// larger base area when the areas differ by more than 100 cm², then longer.
func LayerLess(a, b model.CargoItem) bool {
	wa, wb := registry.ItemWeight(a), registry.ItemWeight(b)
	if math.Abs(wa-wb) > weightTieKg {
		return wa > wb
	}
	if a.IsRound() != b.IsRound() {
		return !a.IsRound()
	}
	aa, ab := a.BaseArea(), b.BaseArea()
	if math.Abs(aa-ab) > areaTieMM2 {
		return aa > ab
	}
	return a.Length > b.Length
}

// SortForVentilationLayering returns a sorted copy of items. Equal items
// keep their input order.
func SortForVentilationLayering(items []model.CargoItem) []model.CargoItem {
	sorted := make([]model.CargoItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return LayerLess(sorted[i], sorted[j])
	})
	return sorted
}

// Layer is a vertical stack of items resting on its first item.
type Layer struct {
	Items  []model.CargoItem `json:"items"`
	Height float64           `json:"height"` // mm
	Weight float64           `json:"weight"` // kg
}

// Bottom returns the item the layer rests on.
func (l Layer) Bottom() model.CargoItem {
	return l.Items[0]
}

// Add appends an item and updates the running totals.
func (l *Layer) Add(it model.CargoItem) {
	l.Items = append(l.Items, it)
	l.Height += it.BaseDims().H
	l.Weight += registry.ItemWeight(it)
}

// loadLimit returns the weight in kg the bottom item may carry.
func (l Layer) loadLimit() float64 {
	b := l.Bottom()
	return MaxStackWeight(b.Material) * b.BaseArea() / 1e6
}

// CanPlaceInLayer reports whether item may go on top of layer.
func CanPlaceInLayer(item model.CargoItem, layer Layer) bool {
	if len(layer.Items) == 0 {
		return true
	}
	bottom := layer.Bottom()
	if item.BaseArea() > bottom.BaseArea() {
		return false
	}
	if layer.Height+item.BaseDims().H > MaxStackHeight(bottom.Material) {
		return false
	}
	if layer.Weight+registry.ItemWeight(item) > layer.loadLimit() {
		return false
	}
	if item.IsRound() && !roundStable(item, layer) {
		return false
	}
	return true
}

// roundStable always passes: layers carry no positions yet, so adjacency
// is checked after placement by RoundSupported.
func roundStable(model.CargoItem, Layer) bool {
	return true // always-passes
}

// GroupIntoVentilationLayers sorts items and assigns each to the first
// layer that accepts it, opening a new layer otherwise.
func GroupIntoVentilationLayers(items []model.CargoItem) []Layer {
	var layers []Layer
	for _, it := range SortForVentilationLayering(items) {
		placed := false
		for i := range layers {
			if CanPlaceInLayer(it, layers[i]) {
				layers[i].Add(it)
				placed = true
				break
			}
		}
		if !placed {
			var l Layer
			l.Add(it)
			layers = append(layers, l)
		}
	}
	return layers
}

// LayerValidation is a diagnostic audit of a layer grouping.
type LayerValidation struct {
	IsValid  bool     `json:"is_valid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// ValidatePackingConfiguration audits layers against the stacking caps and
// the vehicle body. It reports; it does not enforce.
func ValidatePackingConfiguration(layers []Layer, v model.Vehicle) LayerValidation {
	res := LayerValidation{IsValid: true}
	fail := func(format string, args ...any) {
		res.IsValid = false
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	total := 0.0
	for i, l := range layers {
		if len(l.Items) == 0 {
			warn("layer %d is empty", i+1)
			continue
		}
		total += l.Weight
		bottom := l.Bottom()
		hCap := MaxStackHeight(bottom.Material)
		wCap := l.loadLimit()

		switch {
		case l.Height > hCap:
			fail("layer %d: height %.0f mm exceeds %.0f mm allowed on %s", i+1, l.Height, hCap, bottom.Material)
		case l.Height > hCap*0.9:
			warn("layer %d: height %.0f mm is close to the %.0f mm limit", i+1, l.Height, hCap)
		}
		if l.Height > v.Height {
			fail("layer %d: height %.0f mm exceeds vehicle height %.0f mm", i+1, l.Height, v.Height)
		}

		load := l.Weight
		switch {
		case load > wCap:
			fail("layer %d: %.1f kg on %s exceeds the %.1f kg allowance", i+1, load, bottom.ID, wCap)
		case load > wCap*0.9:
			warn("layer %d: %.1f kg on %s is close to the %.1f kg allowance", i+1, load, bottom.ID, wCap)
		}

		for _, it := range l.Items[1:] {
			if it.BaseArea() > bottom.BaseArea() {
				fail("layer %d: %s overhangs its base %s", i+1, it.ID, bottom.ID)
			}
		}
	}
	if v.MaxPayload > 0 && total > v.MaxPayload {
		fail("total weight %.1f kg exceeds payload %.1f kg", total, v.MaxPayload)
	}
	return res
}

// RoundSupported reports whether a placed round duct is held in place: it
// rests on the floor, or a neighbour in the same layer band lies within
// tolerance mm of it.
func RoundSupported(p model.Placement, others []model.Placement, tolerance float64) bool {
	if p.Y <= 0 {
		return true
	}
	box := geometry.PlacementBox(p, p.Size)
	for _, o := range others {
		if o.ItemID == p.ItemID || o.Bin != p.Bin || o.Layer != p.Layer {
			continue
		}
		if geometry.Adjacent(box, geometry.PlacementBox(o, o.Size), tolerance) {
			return true
		}
	}
	return false
}

// UnsupportedRounds returns the placed round ducts that fail RoundSupported.
// Placements without a recorded size are measured through reg.
func UnsupportedRounds(reg *registry.Registry, placements []model.Placement, tolerance float64) []model.Placement {
	var out []model.Placement
	for _, p := range placements {
		it, ok := reg.Item(p.ItemID)
		if !ok || !it.IsRound() {
			continue
		}
		if p.Size == (model.Dims{}) {
			p.Size = reg.Dimensions(p)
		}
		if !RoundSupported(p, placements, tolerance) {
			out = append(out, p)
		}
	}
	return out
}
