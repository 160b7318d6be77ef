package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// LabelInfo holds the data encoded into each section label's QR code.
type LabelInfo struct {
	ItemID         string   `json:"id"`
	Name           string   `json:"name"`
	Size           string   `json:"size"`
	Flange         string   `json:"flange"`
	Weight         float64  `json:"weight_kg"`
	Vehicle        int      `json:"vehicle"`
	Layer          int      `json:"layer"`
	Row            int      `json:"row"`
	X              float64  `json:"x_mm"`
	Y              float64  `json:"y_mm"`
	Z              float64  `json:"z_mm"`
	Rotation       string   `json:"rotation"`
	UnloadPriority int      `json:"unload_priority,omitempty"`
	Nested         []string `json:"nested,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// CollectLabelInfos returns one label per placement in placement order.
func CollectLabelInfos(plan Plan) []LabelInfo {
	labels := make([]LabelInfo, 0, len(plan.Result.Placements))
	for _, p := range plan.Result.Placements {
		it := plan.Registry.Resolve(p)
		labels = append(labels, LabelInfo{
			ItemID:         p.ItemID,
			Name:           itemName(it),
			Size:           describe(it),
			Flange:         string(plan.Registry.FlangeType(p)),
			Weight:         plan.Registry.LoadWeight(p),
			Vehicle:        p.Bin + 1,
			Layer:          p.Layer,
			Row:            p.Row,
			X:              p.X,
			Y:              p.Y,
			Z:              p.Z,
			Rotation:       rotationCode(p.Rotation),
			UnloadPriority: it.UnloadPriority,
			Nested:         p.NestedIDs,
		})
	}
	return labels
}

// ExportLabels generates a PDF of QR-coded labels, one per placed section.
// Labels are laid out on a standard label sheet (Avery 5160, 3 x 10 on US
// Letter). The QR code carries the label data as JSON for the loading crew.
func ExportLabels(path string, plan Plan) error {
	if err := plan.check(); err != nil {
		return err
	}
	labels := CollectLabelInfos(plan)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, i, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ItemID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, idx int, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d", idx)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, info.Name, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s  %.1f kg", info.Size, info.Weight), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Vehicle %d  layer %d  row %d", info.Vehicle, info.Layer, info.Row), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12)
	pdf.CellFormat(textW, 3, truncate(pdf, fmt.Sprintf("%s  flange %s", info.ItemID, info.Flange), textW), "", 1, "L", false, 0, "")

	if len(info.Nested) > 0 {
		pdf.SetXY(textX, y+labelPadding+15.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Carries %d nested", len(info.Nested)), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits w at the current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
