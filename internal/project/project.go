package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// FormatVersion is written into every project file.
const FormatVersion = "1.0.0"

// File is the on-disk envelope of a project.
type File struct {
	Version string        `json:"version"`
	SavedAt string        `json:"saved_at"`
	Project model.Project `json:"project"`
}

// SaveProject writes the project, including its last result, as JSON.
func SaveProject(path string, p model.Project) error {
	file := File{
		Version: FormatVersion,
		SavedAt: time.Now().UTC().Format(time.RFC3339),
		Project: p,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// LoadProject reads a project written by SaveProject. Settings missing from
// the file keep their defaults.
func LoadProject(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project file: %w", err)
	}
	file := File{Project: model.NewProject()}
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project file: %w", err)
	}
	if file.Version == "" {
		return model.Project{}, fmt.Errorf("invalid project file: missing version field")
	}
	if file.Project.Items == nil {
		file.Project.Items = []model.CargoItem{}
	}
	return file.Project, nil
}
