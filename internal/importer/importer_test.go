package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Name,Width,Height,Length,Qty\nTrunk,600,300,1000,2\n", ','},
		{"semicolon", "Name;Width;Height;Length;Qty\nTrunk;600;300;1000;2\n", ';'},
		{"tab", "Name\tWidth\tHeight\tLength\tQty\nTrunk\t600\t300\t1000\t2\n", '\t'},
		{"pipe", "Name|Width|Height|Length|Qty\nTrunk|600|300|1000|2\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_StandardHeaders(t *testing.T) {
	row := []string{"ID", "Name", "Shape", "Width", "Height", "Diameter", "Length", "Quantity", "Weight", "Material", "Flange", "Priority"}
	m, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	checks := map[string][2]int{
		"ID":             {m.ID, 0},
		"Name":           {m.Name, 1},
		"Shape":          {m.Shape, 2},
		"Width":          {m.Width, 3},
		"Height":         {m.Height, 4},
		"Diameter":       {m.Diameter, 5},
		"Length":         {m.Length, 6},
		"Quantity":       {m.Quantity, 7},
		"Weight":         {m.Weight, 8},
		"Material":       {m.Material, 9},
		"Flange":         {m.Flange, 10},
		"UnloadPriority": {m.UnloadPriority, 11},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("expected %s at %d, got %d", field, c[1], c[0])
		}
	}
	if m.Fragility != -1 || m.WallThickness != -1 {
		t.Errorf("expected absent columns to be -1, got %+v", m)
	}
}

func TestDetectColumns_UnitsAndCase(t *testing.T) {
	row := []string{"DESCRIPTION", "Ø (mm)", "Length, mm", "PCS", "Weight (kg)"}
	m, isHeader := DetectColumns(row)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if m.Name != 0 || m.Diameter != 1 || m.Length != 2 || m.Quantity != 3 || m.Weight != 4 {
		t.Errorf("unexpected mapping %+v", m)
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	m, isHeader := DetectColumns([]string{"Trunk", "600", "300", "1000", "2"})

	if isHeader {
		t.Error("expected no header detection for numeric data")
	}
	if m.Name != 0 || m.Width != 1 || m.Height != 2 || m.Length != 3 || m.Quantity != 4 {
		t.Errorf("expected positional mapping, got %+v", m)
	}
	if m.Diameter != -1 {
		t.Errorf("expected no diameter column, got %d", m.Diameter)
	}
}

// ─── CSV Import Tests ──────────────────────────────────────

func TestImportCSVFromReader_MixedShapes(t *testing.T) {
	data := "ID,Name,Shape,Width,Height,Diameter,Length,Qty,Material,Flange\n" +
		"R1,Trunk,rect,600,300,,1000,2,galvanized,TDC\n" +
		"C1,Riser,round,,,315,1250,3,stainless,shina 30\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}

	r := result.Items[0]
	if r.ID != "R1" || r.Shape != model.ShapeRectangular || r.Width != 600 || r.Height != 300 || r.Length != 1000 || r.Quantity != 2 {
		t.Errorf("unexpected rectangular item %+v", r)
	}
	if r.Flange != model.FlangeTDC {
		t.Errorf("expected TDC, got %s", r.Flange)
	}

	c := result.Items[1]
	if c.ID != "C1" || !c.IsRound() || c.Diameter != 315 || c.Length != 1250 || c.Quantity != 3 {
		t.Errorf("unexpected round item %+v", c)
	}
	if c.Material != model.MaterialStainless {
		t.Errorf("expected stainless, got %s", c.Material)
	}
	if c.Flange != model.FlangeShina30 {
		t.Errorf("expected SHINA_30, got %s", c.Flange)
	}
}

func TestImportCSVFromReader_RoundInferredFromDiameter(t *testing.T) {
	data := "Name,Diameter,Length,Qty\nSpiral,200,3000,4\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d (errors: %v)", len(result.Items), result.Errors)
	}
	if !result.Items[0].IsRound() {
		t.Errorf("expected round shape, got %s", result.Items[0].Shape)
	}
}

func TestImportCSVFromReader_WithoutHeaders(t *testing.T) {
	data := "Trunk,600,300,1000,2\nBranch,400,200,800,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}
	if result.Items[0].Name != "Trunk" || result.Items[0].Length != 1000 {
		t.Errorf("unexpected item %+v", result.Items[0])
	}
	if result.Items[0].ID == result.Items[1].ID {
		t.Error("expected generated ids to differ")
	}
}

func TestImportCSVFromReader_OptionalColumns(t *testing.T) {
	data := "Name;Width;Height;Length;Qty;Weight;Wall;Priority;Fragility\n" +
		"Trunk;600;300;1000;1;12,5;0.9;2;0.4\n" +
		"Branch;400;200;800;1;heavy;;;3\n"
	result := ImportCSVFromReader(strings.NewReader(data), ';')

	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d (errors: %v)", len(result.Items), result.Errors)
	}
	a := result.Items[0]
	if a.Weight != 12.5 || a.WallThickness != 0.9 || a.UnloadPriority != 2 || a.FragilityScore != 0.4 {
		t.Errorf("unexpected optional values %+v", a)
	}
	b := result.Items[1]
	if b.Weight != 0 {
		t.Errorf("expected invalid weight to fall back to estimate, got %f", b.Weight)
	}
	if b.FragilityScore != 1 {
		t.Errorf("expected fragility clamped to 1, got %f", b.FragilityScore)
	}

	var sawWeight, sawClamp bool
	for _, w := range result.Warnings {
		sawWeight = sawWeight || strings.Contains(w, "invalid weight")
		sawClamp = sawClamp || strings.Contains(w, "clamped")
	}
	if !sawWeight || !sawClamp {
		t.Errorf("expected weight and clamp warnings, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_RowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"missing length", "Trunk,600,300,,2", "Missing length"},
		{"bad width", "Trunk,abc,300,1000,2", "Invalid width"},
		{"negative height", "Trunk,600,-300,1000,2", "height must be positive"},
		{"zero quantity", "Trunk,600,300,1000,0", "quantity must be positive"},
		{"fractional quantity", "Trunk,600,300,1000,1.5", "Invalid quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "Name,Width,Height,Length,Qty\n" + tt.row + "\n"
			result := ImportCSVFromReader(strings.NewReader(data), ',')
			if len(result.Items) != 0 {
				t.Fatalf("expected no items, got %d", len(result.Items))
			}
			if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestImportCSVFromReader_UnknownValuesWarn(t *testing.T) {
	data := "Name,Width,Height,Length,Qty,Material,Flange\nTrunk,600,300,1000,1,copper,bayonet\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	it := result.Items[0]
	if it.Material != model.MaterialGalvanized || it.Flange != model.FlangeNone {
		t.Errorf("expected defaults, got %s/%s", it.Material, it.Flange)
	}
	if len(result.Warnings) != 3 {
		t.Errorf("expected header, material and flange warnings, got %v", result.Warnings)
	}
}

func TestImportCSVFromReader_DuplicateID(t *testing.T) {
	data := "ID,Width,Height,Length,Qty\nA,100,100,500,1\nA,200,200,500,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Duplicate id") {
		t.Errorf("expected duplicate id error, got %v", result.Errors)
	}
}

func TestImportCSVFromReader_MissingRequiredColumns(t *testing.T) {
	data := "Name,Width,Qty\nTrunk,600,2\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Width/Height or Diameter") || !strings.Contains(result.Errors[0], "Length") {
		t.Errorf("unexpected error %q", result.Errors[0])
	}
}

func TestImportCSVFromReader_EmptyRowsSkipped(t *testing.T) {
	data := "Name,Width,Height,Length,Qty\n\n,,,,\nTrunk,600,300,1000,1\n"
	result := ImportCSVFromReader(strings.NewReader(data), ',')

	if len(result.Items) != 1 || len(result.Errors) != 0 {
		t.Errorf("expected 1 item and no errors, got %d / %v", len(result.Items), result.Errors)
	}
}

func TestImportCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargo.csv")
	if err := os.WriteFile(path, []byte("Name;Width;Height;Length;Qty\nTrunk;600;300;1000;2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result := ImportFile(path)

	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d (errors: %v)", len(result.Items), result.Errors)
	}
	if len(result.Warnings) == 0 || result.Warnings[0] != "Detected semicolon delimiter" {
		t.Errorf("expected delimiter warning first, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	result := ImportCSV("/nonexistent/cargo.csv")
	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := ImportCSV(path); len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

// ─── Excel Import Tests ────────────────────────────────────

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cargo.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_WithHeaders(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Shape", "Width", "Height", "Diameter", "Length", "Quantity", "Flange"},
		{"Trunk", "rectangular", 600, 300, "", 1000, 2, "TDC"},
		{"Riser", "round", "", "", 250, 1250, 1, "NONE"},
	})

	result := ImportFile(path)

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[0].Width != 600 || result.Items[0].Flange != model.FlangeTDC {
		t.Errorf("unexpected first item %+v", result.Items[0])
	}
	if !result.Items[1].IsRound() || result.Items[1].Diameter != 250 {
		t.Errorf("unexpected second item %+v", result.Items[1])
	}
}

func TestImportExcel_InvalidData(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Name", "Width", "Height", "Length", "Quantity"},
		{"Trunk", "abc", 300, 1000, 2},
	})

	result := ImportExcel(path)

	if len(result.Errors) == 0 {
		t.Error("expected error for invalid width")
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if result := ImportExcel("/nonexistent/file.xlsx"); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

// ─── Value Parser Tests ────────────────────────────────────

func TestParseFlange(t *testing.T) {
	tests := []struct {
		in   string
		want model.FlangeType
		ok   bool
	}{
		{"tdc", model.FlangeTDC, true},
		{"Shina-20", model.FlangeShina20, true},
		{"S30", model.FlangeShina30, true},
		{"reyka", model.FlangeReyka, true},
		{"", model.FlangeNone, true},
		{"weld", model.FlangeNone, false},
	}
	for _, tt := range tests {
		got, ok := parseFlange(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseFlange(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseMaterial(t *testing.T) {
	tests := []struct {
		in   string
		want model.Material
		ok   bool
	}{
		{"Aluminium", model.MaterialAluminum, true},
		{"inox", model.MaterialStainless, true},
		{"black steel", model.MaterialBlackSteel, true},
		{"galv", model.MaterialGalvanized, true},
		{"copper", model.MaterialGalvanized, false},
	}
	for _, tt := range tests {
		got, ok := parseMaterial(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseMaterial(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
