// Package export renders load plans to PDF documents, QR label sheets and
// DXF drawings.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/registry"
	"github.com/piwi3910/DuctLoad/internal/rules"
	"github.com/piwi3910/DuctLoad/internal/stability"
)

// ErrEmptyPlan is returned when a plan has nothing placed to export.
var ErrEmptyPlan = errors.New("no placements to export")

// Plan is everything an exported document shows. Stability and Clearance
// are optional.
type Plan struct {
	Title     string
	Vehicle   model.Vehicle
	Result    model.PackingResult
	Registry  *registry.Registry
	Stability *stability.Report
	Clearance *rules.ValidationResult
}

func (p Plan) check() error {
	if len(p.Result.Placements) == 0 {
		return ErrEmptyPlan
	}
	if !p.Vehicle.Valid() {
		return fmt.Errorf("vehicle %q has no usable body", p.Vehicle.Name)
	}
	return nil
}

func (p Plan) title() string {
	if p.Title != "" {
		return p.Title
	}
	return "Load Plan"
}

// BinStats summarises one vehicle of a plan.
type BinStats struct {
	Bin        int
	Items      int
	Weight     float64 // kg, nested items included
	VolumeFill float64 // 0..1
}

// Bins returns per-bin statistics in bin order.
func (p Plan) Bins() []BinStats {
	stats := make([]BinStats, p.Result.BinsUsed)
	for i := range stats {
		stats[i].Bin = i
	}
	vol := p.Vehicle.Volume()
	for _, pl := range p.Result.Placements {
		if pl.Bin < 0 || pl.Bin >= len(stats) {
			continue
		}
		s := &stats[pl.Bin]
		s.Items += 1 + len(pl.NestedIDs)
		s.Weight += p.Registry.LoadWeight(pl)
		if vol > 0 {
			s.VolumeFill += p.Registry.Dimensions(pl).Volume() / vol
		}
	}
	return stats
}

// describe returns a short human size string such as "600x300 L1000" or
// "D315 L1250".
func describe(it model.CargoItem) string {
	if it.IsRound() {
		return fmt.Sprintf("D%.0f L%.0f", it.Diameter, it.Length)
	}
	return fmt.Sprintf("%.0fx%.0f L%.0f", it.Width, it.Height, it.Length)
}

// itemName falls back to the base id when an item has no name.
func itemName(it model.CargoItem) string {
	if it.Name != "" {
		return it.Name
	}
	return model.BaseID(it.ID)
}

// rotationCode renders a rotation as e.g. "XZ", or "-" for none.
func rotationCode(r model.Rotation) string {
	var b strings.Builder
	if r.X {
		b.WriteByte('X')
	}
	if r.Y {
		b.WriteByte('Y')
	}
	if r.Z {
		b.WriteByte('Z')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
