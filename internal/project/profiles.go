package project

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/DuctLoad/internal/engine"
)

// SaveScenarios writes custom scenario profiles as YAML.
func SaveScenarios(path string, scenarios []engine.ScenarioConfig) error {
	data, err := yaml.Marshal(scenarios)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// LoadScenarios reads custom scenario profiles. Returns the built-in
// profiles if the file does not exist.
func LoadScenarios(path string) ([]engine.ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return engine.DefaultScenarios(), nil
		}
		return nil, err
	}

	var scenarios []engine.ScenarioConfig
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse scenarios %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("scenario file defines no profiles")
	}
	for _, s := range scenarios {
		if s.Profile == "" {
			return nil, errors.New("scenario profile has no name")
		}
		if s.Weights.Sum() <= 0 {
			return nil, fmt.Errorf("scenario %q has no positive weights", s.Profile)
		}
	}
	return scenarios, nil
}
