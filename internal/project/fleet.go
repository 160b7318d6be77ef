package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// SaveFleet writes the fleet catalog as YAML.
func SaveFleet(path string, fleet model.Fleet) error {
	data, err := yaml.Marshal(fleet)
	if err != nil {
		return fmt.Errorf("failed to marshal fleet: %w", err)
	}
	return writeFile(path, data)
}

// LoadFleet reads a YAML fleet catalog. If the file does not exist, it
// returns the default fleet and saves it.
func LoadFleet(path string) (model.Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fleet := model.DefaultFleet()
			if saveErr := SaveFleet(path, fleet); saveErr != nil {
				return fleet, saveErr
			}
			return fleet, nil
		}
		return model.Fleet{}, err
	}
	var fleet model.Fleet
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return model.Fleet{}, fmt.Errorf("failed to parse fleet %s: %w", path, err)
	}
	for i, v := range fleet.Vehicles {
		if !v.ToVehicle().Valid() {
			return model.Fleet{}, fmt.Errorf("fleet %s: vehicle %q has non-positive dimensions", path, v.Name)
		}
		if v.ID == "" {
			fleet.Vehicles[i].ID = v.Name
		}
	}
	return fleet, nil
}

// ImportFleet merges the presets in path into existing. Duplicate IDs are
// skipped.
func ImportFleet(path string, existing model.Fleet) (model.Fleet, error) {
	imported, err := LoadFleet(path)
	if err != nil {
		return existing, err
	}

	ids := make(map[string]bool, len(existing.Vehicles))
	for _, v := range existing.Vehicles {
		ids[v.ID] = true
	}
	for _, v := range imported.Vehicles {
		if !ids[v.ID] {
			existing.Vehicles = append(existing.Vehicles, v)
			ids[v.ID] = true
		}
	}
	return existing, nil
}

// ResolveVehicle finds a preset by ID first, then by name.
func ResolveVehicle(fleet model.Fleet, ref string) (model.Vehicle, error) {
	if vp := fleet.FindByID(ref); vp != nil {
		return vp.ToVehicle(), nil
	}
	if vp := fleet.FindByName(ref); vp != nil {
		return vp.ToVehicle(), nil
	}
	return model.Vehicle{}, fmt.Errorf("vehicle %q not in fleet (have: %v)", ref, fleet.Names())
}
