package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// itemColor represents an RGB fill for a placed section.
type itemColor struct {
	R, G, B int
}

// layerColors cycles by placement layer so stacked sections read apart.
var layerColors = []itemColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

func colorFor(layer int) itemColor {
	if layer < 0 {
		layer = -layer
	}
	return layerColors[layer%len(layerColors)]
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	viewGap      = 10.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	tableRowH    = 5.0
)

// ExportPDF writes the load plan: one page per vehicle with a top and a side
// view, then a summary page with totals, clearance and stability findings.
func ExportPDF(path string, plan Plan) error {
	if err := plan.check(); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, bin := range plan.Bins() {
		pdf.AddPage()
		renderBinPage(pdf, plan, bin)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, plan)

	return pdf.OutputFileAndClose(path)
}

// viewScale fits the body length and the larger of width and height into
// one view slot so both views share a scale.
func viewScale(v model.Vehicle) (scale, viewH float64) {
	drawWidth := pageWidth - marginLeft - marginRight
	viewH = (pageHeight - drawAreaTop - marginBottom - viewGap - 30) / 2
	scale = math.Min(drawWidth/v.Length, viewH/math.Max(v.Width, v.Height))
	return scale, viewH
}

// renderBinPage draws one vehicle of the plan on the current page.
func renderBinPage(pdf *fpdf.Fpdf, plan Plan, bin BinStats) {
	v := plan.Vehicle

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Vehicle %d: %s (%.0f x %.0f x %.0f mm)", bin.Bin+1, v.Name, v.Width, v.Height, v.Length)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Sections: %d | Weight: %.1f kg | Volume fill: %.1f%%", bin.Items, bin.Weight, bin.VolumeFill*100)
	if v.MaxPayload > 0 {
		stats += fmt.Sprintf(" | Payload used: %.1f%%", bin.Weight/v.MaxPayload*100)
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	scale, viewH := viewScale(v)
	offsetX := marginLeft + 8
	topY := drawAreaTop + 4
	sideY := topY + viewH + viewGap

	placements := plan.Result.PlacementsInBin(bin.Bin)

	// Top view: length runs left to right, width top to bottom.
	drawBody(pdf, offsetX, topY, v.Length*scale, v.Width*scale, "TOP")
	for i, p := range placements {
		d := plan.Registry.Dimensions(p)
		drawSection(pdf, offsetX+p.Z*scale, topY+p.X*scale, d.L*scale, d.W*scale, colorFor(p.Layer), fmt.Sprintf("%d", i+1))
	}
	drawDimensionAnnotations(pdf, v.Length, v.Width, offsetX, topY, v.Length*scale, v.Width*scale)

	// Side view: floor at the bottom.
	bodyH := v.Height * scale
	drawBody(pdf, offsetX, sideY, v.Length*scale, bodyH, "SIDE")
	for i, p := range placements {
		d := plan.Registry.Dimensions(p)
		y := sideY + bodyH - (p.Y+d.H)*scale
		drawSection(pdf, offsetX+p.Z*scale, y, d.L*scale, d.H*scale, colorFor(p.Layer), fmt.Sprintf("%d", i+1))
	}
	drawDimensionAnnotations(pdf, v.Length, v.Height, offsetX, sideY, v.Length*scale, bodyH)

	drawItemsLegend(pdf, plan, placements, sideY+bodyH+6)
}

func drawBody(pdf *fpdf.Fpdf, x, y, w, h float64, caption string) {
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(x, y, w, h, "FD")

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(x-8, y)
	pdf.CellFormat(7, 4, caption, "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func drawSection(pdf *fpdf.Fpdf, x, y, w, h float64, col itemColor, label string) {
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.2)
	pdf.Rect(x, y, w, h, "FD")

	if w > 4 && h > 3 {
		pdf.SetFont("Helvetica", "", labelFontSize(w, h))
		lw := pdf.GetStringWidth(label)
		if lw < w-1 {
			pdf.SetXY(x+(w-lw)/2, y+h/2-1.5)
			pdf.CellFormat(lw, 3, label, "", 0, "C", false, 0, "")
		}
	}
}

// drawDimensionAnnotations labels the horizontal extent below a view and the
// vertical extent to its left.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, horiz, vert, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(80, 80, 80)

	hLabel := fmt.Sprintf("%.0f mm", horiz)
	hw := pdf.GetStringWidth(hLabel)
	pdf.SetXY(offsetX+(canvasW-hw)/2, offsetY+canvasH+0.5)
	pdf.CellFormat(hw, 3, hLabel, "", 0, "C", false, 0, "")

	vLabel := fmt.Sprintf("%.0f mm", vert)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-2, offsetY+canvasH/2)
	vw := pdf.GetStringWidth(vLabel)
	pdf.SetXY(offsetX-2-vw/2, offsetY+canvasH/2-1.5)
	pdf.CellFormat(vw, 3, vLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawItemsLegend renders a compact numbered list of the sections on the page.
func drawItemsLegend(pdf *fpdf.Fpdf, plan Plan, placements []model.Placement, startY float64) {
	if len(placements) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "", 6)
	xPos := marginLeft
	maxX := pageWidth - marginRight

	for i, p := range placements {
		it := plan.Registry.Resolve(p)
		label := fmt.Sprintf("%d %s %s L%d", i+1, itemName(it), describe(it), p.Layer)
		if len(p.NestedIDs) > 0 {
			label += fmt.Sprintf(" +%d nested", len(p.NestedIDs))
		}
		labelW := pdf.GetStringWidth(label) + 5

		if xPos+labelW > maxX {
			startY += 3.5
			xPos = marginLeft
		}
		if startY > pageHeight-marginBottom+8 {
			pdf.SetXY(xPos, startY)
			pdf.CellFormat(20, 3, "...", "", 0, "L", false, 0, "")
			return
		}

		col := colorFor(p.Layer)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 2.5, 2.5, "F")

		pdf.SetXY(xPos+3, startY)
		pdf.CellFormat(labelW-3, 3.5, label, "", 0, "L", false, 0, "")
		xPos += labelW + 1
	}
}

// renderSummaryPage draws the totals, per-vehicle table and findings.
func renderSummaryPage(pdf *fpdf.Fpdf, plan Plan) {
	res := plan.Result

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, plan.title()+" Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	y = heading(pdf, y, "Overall Statistics")

	summaryItems := [][2]string{
		{"Algorithm", string(res.Algorithm)},
		{"Vehicles Used", fmt.Sprintf("%d", res.BinsUsed)},
		{"Volume Fill", fmt.Sprintf("%.1f%%", res.Metrics.VolumeFill*100)},
		{"Total Weight", fmt.Sprintf("%.1f kg", res.Metrics.TotalWeight)},
		{"Stability Score", fmt.Sprintf("%.2f", res.Metrics.StabilityScore)},
		{"Unplaced Sections", fmt.Sprintf("%d", len(res.Unplaced))},
	}
	y = keyValues(pdf, y, summaryItems)

	y += 4
	y = heading(pdf, y, "Vehicle Breakdown")
	colWidths := []float64{25, 35, 40, 40}
	headers := []string{"Vehicle", "Sections", "Weight", "Volume Fill"}
	var rows [][]string
	for _, b := range plan.Bins() {
		rows = append(rows, []string{
			fmt.Sprintf("%d", b.Bin+1),
			fmt.Sprintf("%d", b.Items),
			fmt.Sprintf("%.1f kg", b.Weight),
			fmt.Sprintf("%.1f%%", b.VolumeFill*100),
		})
	}
	y = table(pdf, y, colWidths, headers, rows)

	if len(res.Unplaced) > 0 {
		y += 4
		y = warningLines(pdf, y, "WARNING: Unplaced Sections", res.Unplaced)
	}

	if c := plan.Clearance; c != nil && (len(c.Errors) > 0 || len(c.Warnings) > 0) {
		var lines []string
		for _, v := range c.Errors {
			lines = append(lines, "ERROR "+v.Message)
		}
		for _, v := range c.Warnings {
			lines = append(lines, "close "+v.Message)
		}
		y += 4
		y = warningLines(pdf, y, "Flange Clearance", lines)
	}

	if r := plan.Stability; r != nil {
		y += 4
		y = heading(pdf, y, "Transport Safety")
		y = keyValues(pdf, y, [][2]string{
			{"Overall Rating", string(r.Overall)},
			{"Safety Score", fmt.Sprintf("%.0f / 100", r.SafetyScore)},
			{"Centre of Gravity", fmt.Sprintf("x %.0f, y %.0f, z %.0f mm", r.CenterOfGravity.X, r.CenterOfGravity.Y, r.CenterOfGravity.Z)},
			{"Tipping Risk", fmt.Sprintf("%s (%.0f)", r.Tipping.Level, r.Tipping.Score)},
			{"Max Cornering Speed", fmt.Sprintf("%.0f km/h", r.Turn.MaxSafeSpeed)},
		})
		for _, rec := range r.Recommendations {
			if y > pageHeight-marginBottom-6 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(250, 4.5, "- "+rec, "", 0, "L", false, 0, "")
			y += 4.5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by DuctLoad - Duct Section Load Planner", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func heading(pdf *fpdf.Fpdf, y float64, text string) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, text, "", 0, "L", false, 0, "")
	return y + 8
}

func keyValues(pdf *fpdf.Fpdf, y float64, items [][2]string) float64 {
	for _, item := range items {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(100, 5, item[1], "", 0, "L", false, 0, "")
		y += 5
	}
	return y
}

func table(pdf *fpdf.Fpdf, y float64, widths []float64, headers []string, rows [][]string) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(widths[i], tableRowH, h, "1", 0, "C", true, 0, "")
		xPos += widths[i]
	}
	y += tableRowH

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(widths[j], tableRowH, cell, "1", 0, "C", true, 0, "")
			xPos += widths[j]
		}
		y += tableRowH
	}
	return y
}

// warningLines prints a red heading and up to a page worth of lines.
func warningLines(pdf *fpdf.Fpdf, y float64, title string, lines []string) float64 {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(200, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(200, 6, title, "", 0, "L", false, 0, "")
	y += 7

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for i, line := range lines {
		if y > pageHeight-marginBottom-10 {
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 4, fmt.Sprintf("... and %d more", len(lines)-i), "", 0, "L", false, 0, "")
			return y + 4
		}
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(250, 4, "- "+line, "", 0, "L", false, 0, "")
		y += 4
	}
	return y
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 20:
		return 7
	case minDim > 8:
		return 6
	default:
		return 4
	}
}
