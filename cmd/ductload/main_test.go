package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/project"
)

const testCargo = `Name,Width,Height,Length,Quantity,Weight
Trunk,500,300,1000,2,10
Branch,300,400,800,3,4
`

func writeCargo(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cargo.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCargo), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "usage: ductload")

	code, _, stderr = runCLI(t, "explode")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `unknown command "explode"`)
}

func TestPack_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cargo := writeCargo(t, dir)
	pdfPath := filepath.Join(dir, "plan.pdf")
	labelsPath := filepath.Join(dir, "labels.pdf")
	dxfPath := filepath.Join(dir, "plan.dxf")
	outPath := filepath.Join(dir, "site.json")

	code, stdout, stderr := runCLI(t, "pack",
		"--items", cargo,
		"--vehicle", "2400x2500x6000@3000",
		"--algorithm", "greedy",
		"--pdf", pdfPath,
		"--labels", labelsPath,
		"--dxf", dxfPath,
		"--out", outPath,
	)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Cargo: 5 sections")
	assert.Contains(t, stdout, "Result (greedy): 1 vehicles, 5 placements")
	assert.Contains(t, stdout, "Flange clearance: 0 errors")
	assert.Contains(t, stdout, "Efficiency: ")

	for _, p := range []string{pdfPath, labelsPath, dxfPath, outPath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}

	p, err := project.LoadProject(outPath)
	require.NoError(t, err)
	require.NotNil(t, p.Result)
	assert.Len(t, p.Items, 2)
	assert.Len(t, p.Result.Placements, 5)
	assert.Equal(t, 3000.0, p.Vehicle.MaxPayload)

	code, stdout, stderr = runCLI(t, "validate", "--project", outPath)
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "OK")
}

func TestPack_FleetVehicle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cargo := writeCargo(t, dir)

	code, stdout, stderr := runCLI(t, "pack", "--items", cargo, "--vehicle", "Truck 5t 6m")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Vehicle: Truck 5t 6m 2400x2300x6200 mm")
}

func TestPack_InputErrors(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cargo := writeCargo(t, dir)

	code, _, _ := runCLI(t, "pack", "--items", cargo)
	assert.Equal(t, ExitUsage, code)

	code, _, stderr := runCLI(t, "pack", "--items", cargo, "--vehicle", "0x2500x6000")
	assert.Equal(t, ExitInputError, code)
	assert.Contains(t, stderr, "invalid vehicle dimensions")

	code, _, stderr = runCLI(t, "pack", "--items", cargo, "--vehicle", "Spaceship")
	assert.Equal(t, ExitInputError, code)
	assert.Contains(t, stderr, "Spaceship")

	code, _, _ = runCLI(t, "pack", "--items", filepath.Join(dir, "missing.csv"), "--vehicle", "2400x2500x6000")
	assert.Equal(t, ExitInputError, code)

	code, _, stderr = runCLI(t, "pack", "--items", cargo, "--vehicle", "2400x2500x6000", "--algorithm", "genetic")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "unknown algorithm")
}

func TestPack_UnplacedFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "long.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Width,Height,Length,Quantity\nMast,200,200,9000,1\n"), 0o644))

	code, stdout, _ := runCLI(t, "pack", "--items", path, "--vehicle", "2400x2500x6000", "--algorithm", "greedy")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "Unplaced:")
	assert.Contains(t, stdout, "largest section does not fit")
}

func TestScenarios_RanksProfiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cargo := writeCargo(t, dir)
	outPath := filepath.Join(dir, "best.json")

	code, stdout, stderr := runCLI(t, "scenarios",
		"--items", cargo,
		"--vehicle", "2400x2500x6000",
		"--algorithm", "greedy",
		"--out", outPath,
	)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "RANK")
	assert.Contains(t, stdout, "Selected: ")
	assert.Contains(t, stdout, "Efficiency vs ")

	_, err := os.Stat(outPath)
	assert.NoError(t, err)
}

func TestValidate_ReportsRaisedRoundWithoutSupport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "raised.json")

	p := model.NewProject()
	p.Vehicle = model.NewVehicle("Truck", 2400, 2500, 6000, 0)
	p.Items = []model.CargoItem{model.NewRoundItem("Spiral", 300, 1000, 1)}
	p.Items[0].ID = "pipe"
	res := model.PackingResult{
		Algorithm:  model.AlgorithmGreedy,
		BinsUsed:   1,
		Placements: []model.Placement{model.NewPlacement("pipe_1", 0, 0, 600, 0, model.Rotation{}, model.Dims{W: 300, H: 300, L: 1000})},
	}
	p.Result = &res
	require.NoError(t, project.SaveProject(path, p))

	_, stdout, _ := runCLI(t, "validate", "--project", path)
	assert.Contains(t, stdout, "support warning: round duct pipe_1 in vehicle 1 at 600 mm has no lateral support")
}

func TestParseVehicle(t *testing.T) {
	v, ok, err := parseVehicle("2400x2500x12000@20000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2400.0, v.Width)
	assert.Equal(t, 2500.0, v.Height)
	assert.Equal(t, 12000.0, v.Length)
	assert.Equal(t, 20000.0, v.MaxPayload)

	_, ok, err = parseVehicle("Truck 10t 8m")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = parseVehicle("2400x2500x6000@lots")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestFleet_ListsPresets(t *testing.T) {
	dir := t.TempDir()
	code, stdout, _ := runCLI(t, "fleet", "--fleet", filepath.Join(dir, "fleet.yaml"))
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Eurotrailer 13.6m")
}
