// Package importer reads duct cargo lists from CSV and Excel files.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Items    []model.CargoItem
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// -1 means the column is absent.
type ColumnMapping struct {
	ID             int
	Name           int
	Shape          int
	Width          int
	Height         int
	Diameter       int
	Length         int
	Quantity       int
	Weight         int
	Material       int
	Flange         int
	WallThickness  int
	UnloadPriority int
	Fragility      int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":        {"id", "code", "article", "sku", "mark"},
	"name":      {"name", "label", "description", "desc", "item", "section"},
	"shape":     {"shape", "type", "profile", "section type"},
	"width":     {"width", "w", "a"},
	"height":    {"height", "h", "b"},
	"diameter":  {"diameter", "dia", "d", "ø"},
	"length":    {"length", "len", "l"},
	"quantity":  {"quantity", "qty", "count", "pcs", "pieces", "amount"},
	"weight":    {"weight", "kg", "weight kg", "mass"},
	"material":  {"material", "mat", "steel"},
	"flange":    {"flange", "flange type", "connection", "joint"},
	"thickness": {"thickness", "wall", "wall thickness", "gauge", "t"},
	"priority":  {"unload priority", "priority", "unload", "drop", "stop"},
	"fragility": {"fragility", "fragile", "fragility score"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{
		ID: -1, Name: -1, Shape: -1, Width: -1, Height: -1, Diameter: -1, Length: -1,
		Quantity: -1, Weight: -1, Material: -1, Flange: -1, WallThickness: -1,
		UnloadPriority: -1, Fragility: -1,
	}
}

// slot returns the mapping field for a canonical role.
func (m *ColumnMapping) slot(role string) *int {
	switch role {
	case "id":
		return &m.ID
	case "name":
		return &m.Name
	case "shape":
		return &m.Shape
	case "width":
		return &m.Width
	case "height":
		return &m.Height
	case "diameter":
		return &m.Diameter
	case "length":
		return &m.Length
	case "quantity":
		return &m.Quantity
	case "weight":
		return &m.Weight
	case "material":
		return &m.Material
	case "flange":
		return &m.Flange
	case "thickness":
		return &m.WallThickness
	case "priority":
		return &m.UnloadPriority
	case "fragility":
		return &m.Fragility
	}
	return nil
}

// normalizeHeader lowercases a header cell and drops a trailing unit such
// as "(mm)" or ", kg".
func normalizeHeader(cell string) string {
	s := strings.ToLower(strings.TrimSpace(cell))
	if i := strings.IndexAny(s, "(["); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	if i := strings.LastIndex(s, ","); i > 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping Name, Width, Height, Length, Quantity and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()

	isHeader := false
	for i, cell := range row {
		normalized := normalizeHeader(cell)
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if p := mapping.slot(role); *p == -1 {
					*p = i
				}
			}
		}
	}

	if !isHeader {
		m := emptyMapping()
		m.Name, m.Width, m.Height, m.Length, m.Quantity = 0, 1, 2, 3, 4
		return m, false
	}
	return mapping, true
}

func parseShape(s string) (model.Shape, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangular", "rect", "r", "square", "box":
		return model.ShapeRectangular, true
	case "round", "circular", "circle", "c", "o", "spiral":
		return model.ShapeRound, true
	}
	return "", false
}

func parseMaterial(s string) (model.Material, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "galvanized", "galv", "zinc", "gi":
		return model.MaterialGalvanized, true
	case "stainless", "ss", "inox", "stainless steel":
		return model.MaterialStainless, true
	case "aluminum", "aluminium", "al", "alu":
		return model.MaterialAluminum, true
	case "black_steel", "black steel", "black", "carbon":
		return model.MaterialBlackSteel, true
	}
	return model.MaterialGalvanized, false
}

func parseFlange(s string) (model.FlangeType, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "", "NONE", "NO", "_":
		return model.FlangeNone, true
	case "TDC", "TDF":
		return model.FlangeTDC, true
	case "SHINA_20", "SHINA20", "S20":
		return model.FlangeShina20, true
	case "SHINA_30", "SHINA30", "S30":
		return model.FlangeShina30, true
	case "REYKA", "RAIL":
		return model.FlangeReyka, true
	}
	return model.FlangeNone, false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts a decimal comma as written by European spreadsheets.
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// rowParser collects the messages for one row.
type rowParser struct {
	row      []string
	label    string
	err      string
	warnings []string
}

// required parses a mandatory positive number.
func (p *rowParser) required(idx int, field string) float64 {
	if p.err != "" {
		return 0
	}
	s := getCell(p.row, idx)
	if s == "" {
		p.err = fmt.Sprintf("%s: Missing %s value", p.label, field)
		return 0
	}
	v, err := parseNumber(s)
	if err != nil {
		p.err = fmt.Sprintf("%s: Invalid %s '%s'", p.label, field, s)
		return 0
	}
	if v <= 0 {
		p.err = fmt.Sprintf("%s: %s must be positive", p.label, field)
		return 0
	}
	return v
}

// optional parses a non-negative number, warning and returning 0 when bad.
func (p *rowParser) optional(idx int, field string) float64 {
	s := getCell(p.row, idx)
	if s == "" {
		return 0
	}
	v, err := parseNumber(s)
	if err != nil || v < 0 {
		p.warnings = append(p.warnings, fmt.Sprintf("%s: Ignoring invalid %s '%s'", p.label, field, s))
		return 0
	}
	return v
}

// parseRow extracts a CargoItem from a row using the given column mapping.
// Returns the item, any error message, and any warning messages.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, itemCount int) (model.CargoItem, string, []string) {
	p := &rowParser{row: row, label: rowLabel}

	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Section %d", itemCount+1)
	}

	shape := model.ShapeRectangular
	if s := getCell(row, mapping.Shape); s != "" {
		if sh, ok := parseShape(s); ok {
			shape = sh
		} else {
			p.warnings = append(p.warnings, fmt.Sprintf("%s: Unknown shape '%s', guessing from dimensions", rowLabel, s))
			if getCell(row, mapping.Diameter) != "" && getCell(row, mapping.Width) == "" {
				shape = model.ShapeRound
			}
		}
	} else if getCell(row, mapping.Diameter) != "" && getCell(row, mapping.Width) == "" {
		shape = model.ShapeRound
	}

	var item model.CargoItem
	length := 0.0
	if shape == model.ShapeRound {
		d := p.required(mapping.Diameter, "diameter")
		length = p.required(mapping.Length, "length")
		item = model.NewRoundItem(name, d, length, 0)
	} else {
		w := p.required(mapping.Width, "width")
		h := p.required(mapping.Height, "height")
		length = p.required(mapping.Length, "length")
		item = model.NewRectItem(name, w, h, length, 0)
	}
	qty := p.required(mapping.Quantity, "quantity")
	if p.err != "" {
		return model.CargoItem{}, p.err, nil
	}
	if qty != float64(int(qty)) {
		return model.CargoItem{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, getCell(row, mapping.Quantity)), nil
	}
	item.Quantity = int(qty)

	if id := getCell(row, mapping.ID); id != "" {
		item.ID = id
	}
	item.Weight = p.optional(mapping.Weight, "weight")
	item.WallThickness = p.optional(mapping.WallThickness, "wall thickness")
	item.UnloadPriority = int(p.optional(mapping.UnloadPriority, "unload priority"))
	if f := p.optional(mapping.Fragility, "fragility"); f > 1 {
		p.warnings = append(p.warnings, fmt.Sprintf("%s: Fragility %.2f clamped to 1", rowLabel, f))
		item.FragilityScore = 1
	} else {
		item.FragilityScore = f
	}

	if s := getCell(row, mapping.Material); s != "" {
		m, ok := parseMaterial(s)
		if !ok {
			p.warnings = append(p.warnings, fmt.Sprintf("%s: Unknown material '%s', defaulting to galvanized", rowLabel, s))
		}
		item.Material = m
	}
	if s := getCell(row, mapping.Flange); s != "" {
		fl, ok := parseFlange(s)
		if !ok {
			p.warnings = append(p.warnings, fmt.Sprintf("%s: Unknown flange '%s', defaulting to NONE", rowLabel, s))
		}
		item.Flange = fl
	}

	return item, "", p.warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports cargo items from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	res := ImportCSVFromReader(bytes.NewReader(data), delimiter)
	res.Warnings = append(warnings, res.Warnings...)
	return res
}

// ImportCSVFromReader imports cargo items from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line")
}

// ImportExcel imports cargo items from the first sheet of an .xlsx file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row")
}

// ImportFile dispatches on the file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string) ImportResult {
	result := ImportResult{}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		hasRect := mapping.Width != -1 && mapping.Height != -1
		if !hasRect && mapping.Diameter == -1 {
			missing = append(missing, "Width/Height or Diameter")
		}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		if _, err := parseNumber(strings.TrimSpace(rows[0][1])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		item, errMsg, warnings := parseRow(row, mapping, rowLabel, len(result.Items))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		if seen[item.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate id '%s'", rowLabel, item.ID))
			continue
		}
		seen[item.ID] = true
		result.Items = append(result.Items, item)
	}

	return result
}
