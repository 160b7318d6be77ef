package registry

import (
	"math"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// Densities in kg/m³.
var densities = map[model.Material]float64{
	model.MaterialGalvanized: 7850,
	model.MaterialStainless:  8000,
	model.MaterialAluminum:   2700,
	model.MaterialBlackSteel: 7850,
}

// Density returns the sheet density of a material, galvanized steel when unknown.
func Density(m model.Material) float64 {
	if d, ok := densities[m]; ok {
		return d
	}
	return densities[model.MaterialGalvanized]
}

type thicknessTier struct {
	upTo      float64 // largest cross dimension, mm
	thickness float64 // mm
}

// Sheet gauges by duct size, GOST 24751 style.
var (
	rectTiers = []thicknessTier{
		{250, 0.5},
		{500, 0.7},
		{1000, 0.9},
		{math.Inf(1), 1.2},
	}
	roundTiers = []thicknessTier{
		{200, 0.5},
		{450, 0.6},
		{800, 0.7},
		{1250, 1.0},
		{math.Inf(1), 1.4},
	}
)

// WallThickness returns the explicit wall thickness of an item or the
// gauge for its size tier, in mm.
func WallThickness(it model.CargoItem) float64 {
	if it.WallThickness > 0 {
		return it.WallThickness
	}
	tiers := rectTiers
	if it.IsRound() {
		tiers = roundTiers
	}
	size := it.MaxCross()
	for _, t := range tiers {
		if size <= t.upTo {
			return t.thickness
		}
	}
	return tiers[len(tiers)-1].thickness
}

// SurfaceArea returns the sheet area of the duct walls in m².
func SurfaceArea(it model.CargoItem) float64 {
	l := it.Length / 1000
	if it.IsRound() {
		return math.Pi * (it.Diameter / 1000) * l
	}
	return 2 * (it.Width/1000 + it.Height/1000) * l
}

// ItemWeight returns the explicit weight of an item or its estimate.
func ItemWeight(it model.CargoItem) float64 {
	if it.Weight > 0 {
		return it.Weight
	}
	return EstimateWeight(it)
}

// EstimateWeight returns surface area x wall thickness x density in kg.
func EstimateWeight(it model.CargoItem) float64 {
	return SurfaceArea(it) * (WallThickness(it) / 1000) * Density(it.Material)
}
