package model

import "math"

// VehicleEstimate is a lower bound on the vehicles a cargo list needs,
// computed before any packing is attempted.
type VehicleEstimate struct {
	TotalVolume       float64 `json:"total_volume"`        // mm³ of all unit bounding boxes
	TotalWeight       float64 `json:"total_weight"`        // kg
	VehicleVolume     float64 `json:"vehicle_volume"`      // mm³ of one body
	ByVolumeExact     float64 `json:"by_volume_exact"`     // fractional vehicles by volume
	ByVolume          int     `json:"by_volume"`           // ceiling of ByVolumeExact after fill factor
	ByWeight          int     `json:"by_weight"`           // vehicles needed by payload, 0 if unlimited
	VehiclesNeededMin int     `json:"vehicles_needed_min"` // max(ByVolume, ByWeight)
	FillFactor        float64 `json:"fill_factor"`         // achievable fraction of body volume
	LargestItemFits   bool    `json:"largest_item_fits"`   // largest item fits an empty body in some orientation
	UnitCount         int     `json:"unit_count"`
}

// CalculateVehicleEstimate computes how many vehicles a cargo list needs at
// minimum. fillFactor is the fraction of the body volume that packing can
// realistically use (0 or less means 1.0). weightOf supplies the per-unit
// weight, so callers can plug in an estimator for items without one.
func CalculateVehicleEstimate(items []CargoItem, v Vehicle, fillFactor float64, weightOf func(CargoItem) float64) VehicleEstimate {
	if fillFactor <= 0 || fillFactor > 1 {
		fillFactor = 1
	}
	est := VehicleEstimate{
		VehicleVolume:   v.Volume(),
		FillFactor:      fillFactor,
		LargestItemFits: true,
	}

	var largest CargoItem
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		q := float64(it.Quantity)
		est.UnitCount += it.Quantity
		est.TotalVolume += it.Volume() * q
		if weightOf != nil {
			est.TotalWeight += weightOf(it) * q
		} else {
			est.TotalWeight += it.Weight * q
		}
		if it.Volume() > largest.Volume() {
			largest = it
		}
	}

	if est.UnitCount > 0 {
		est.LargestItemFits = FitsEmptyVehicle(largest, v)
	}

	if est.VehicleVolume <= 0 {
		return est
	}

	est.ByVolumeExact = est.TotalVolume / est.VehicleVolume
	est.ByVolume = int(math.Ceil(est.ByVolumeExact / fillFactor))
	if v.MaxPayload > 0 {
		est.ByWeight = int(math.Ceil(est.TotalWeight / v.MaxPayload))
	}
	est.VehiclesNeededMin = est.ByVolume
	if est.ByWeight > est.VehiclesNeededMin {
		est.VehiclesNeededMin = est.ByWeight
	}
	return est
}

// FitsEmptyVehicle reports whether the item fits an empty body in at least
// one rotation.
func FitsEmptyVehicle(item CargoItem, v Vehicle) bool {
	for _, r := range AllRotations {
		d := RotatedDims(item, r)
		if d.W <= v.Width && d.H <= v.Height && d.L <= v.Length {
			return true
		}
	}
	return false
}
