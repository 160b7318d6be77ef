package model

import "github.com/google/uuid"

// VehiclePreset is a reusable vehicle body definition.
type VehiclePreset struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Type       VehicleType `json:"type" yaml:"type"`
	Width      float64     `json:"width" yaml:"width"`
	Height     float64     `json:"height" yaml:"height"`
	Length     float64     `json:"length" yaml:"length"`
	MaxPayload float64     `json:"max_payload" yaml:"max_payload"`
}

// NewVehiclePreset creates a new VehiclePreset with a generated ID.
func NewVehiclePreset(name string, vt VehicleType, w, h, l, maxPayload float64) VehiclePreset {
	return VehiclePreset{
		ID:         uuid.New().String()[:8],
		Name:       name,
		Type:       vt,
		Width:      w,
		Height:     h,
		Length:     l,
		MaxPayload: maxPayload,
	}
}

// ToVehicle converts a preset into a Vehicle.
func (vp VehiclePreset) ToVehicle() Vehicle {
	return Vehicle{
		ID:         vp.ID,
		Name:       vp.Name,
		Type:       vp.Type,
		Width:      vp.Width,
		Height:     vp.Height,
		Length:     vp.Length,
		MaxPayload: vp.MaxPayload,
	}
}

// Fleet holds the vehicle presets available for loading.
type Fleet struct {
	Vehicles []VehiclePreset `json:"vehicles" yaml:"vehicles"`
}

// DefaultFleet returns a fleet populated with common body sizes.
func DefaultFleet() Fleet {
	return Fleet{
		Vehicles: []VehiclePreset{
			NewVehiclePreset("Gazelle 3m", VehicleVan, 1950, 1800, 3000, 1500),
			NewVehiclePreset("Gazelle Next 4.2m", VehicleVan, 2000, 2000, 4200, 1500),
			NewVehiclePreset("Truck 5t 6m", VehicleTruck, 2400, 2300, 6200, 5000),
			NewVehiclePreset("Truck 10t 8m", VehicleTruck, 2450, 2500, 8000, 10000),
			NewVehiclePreset("Eurotrailer 13.6m", VehicleTrailer, 2450, 2700, 13600, 20000),
		},
	}
}

// FindByID returns a pointer to the preset with the given ID, or nil.
func (f *Fleet) FindByID(id string) *VehiclePreset {
	for i := range f.Vehicles {
		if f.Vehicles[i].ID == id {
			return &f.Vehicles[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first preset with the given name, or nil.
func (f *Fleet) FindByName(name string) *VehiclePreset {
	for i := range f.Vehicles {
		if f.Vehicles[i].Name == name {
			return &f.Vehicles[i]
		}
	}
	return nil
}

// Names returns the preset names in fleet order.
func (f *Fleet) Names() []string {
	names := make([]string, len(f.Vehicles))
	for i, v := range f.Vehicles {
		names[i] = v.Name
	}
	return names
}
