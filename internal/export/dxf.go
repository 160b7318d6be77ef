package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
)

// binSpacing separates vehicles drawn side by side, in mm.
const binSpacing = 1000.0

var dxfLayerColors = []color.ColorNumber{color.Green, color.Blue, color.Yellow, color.Magenta, color.Cyan, color.Red}

// ExportDXF writes a plan drawing in model units (mm). Each vehicle is drawn
// in top view: drawing X runs along the body length, drawing Y across its
// width, vehicles stacked along Y. The body outline goes on layer BODY and
// each load layer on LOAD_<n>, so CAD users can toggle stacked sections.
// Round sections standing on end are drawn as circles.
func ExportDXF(path string, plan Plan) error {
	if err := plan.check(); err != nil {
		return err
	}
	v := plan.Vehicle

	d := dxf.NewDrawing()
	if _, err := d.AddLayer("BODY", color.White, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add body layer: %w", err)
	}

	for bin := 0; bin < plan.Result.BinsUsed; bin++ {
		oy := float64(bin) * (v.Width + binSpacing)
		if err := d.ChangeLayer("BODY"); err != nil {
			return err
		}
		if err := rect(d, 0, oy, v.Length, v.Width); err != nil {
			return err
		}
		if _, err := d.Text(fmt.Sprintf("VEHICLE %d %s", bin+1, v.Name), 0, oy+v.Width+100, 0, 150); err != nil {
			return fmt.Errorf("draw vehicle caption: %w", err)
		}
	}

	layers := make(map[int]bool)
	for _, p := range plan.Result.Placements {
		name := fmt.Sprintf("LOAD_%d", p.Layer)
		if !layers[p.Layer] {
			layers[p.Layer] = true
			col := dxfLayerColors[abs(p.Layer)%len(dxfLayerColors)]
			if _, err := d.AddLayer(name, col, dxf.DefaultLineType, false); err != nil {
				return fmt.Errorf("add layer %s: %w", name, err)
			}
		}
		if err := d.ChangeLayer(name); err != nil {
			return err
		}

		it := plan.Registry.Resolve(p)
		size := plan.Registry.Dimensions(p)
		oy := float64(p.Bin)*(v.Width+binSpacing) + p.X
		ox := p.Z

		if it.IsRound() && p.Rotation.X {
			r := it.Diameter / 2
			if _, err := d.Circle(ox+size.L/2, oy+size.W/2, 0, r); err != nil {
				return fmt.Errorf("draw %s: %w", p.ItemID, err)
			}
		} else if err := rect(d, ox, oy, size.L, size.W); err != nil {
			return fmt.Errorf("draw %s: %w", p.ItemID, err)
		}

		h := min(60, size.W/3)
		if _, err := d.Text(p.ItemID, ox+20, oy+size.W/2-h/2, 0, h); err != nil {
			return fmt.Errorf("label %s: %w", p.ItemID, err)
		}
	}

	return d.SaveAs(path)
}

// rect draws an axis-aligned rectangle as four lines.
func rect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
