// Package registry maps placement records back to the cargo items they
// carry. A Registry is owned by the caller for the duration of one packing
// or evaluation call and passed explicitly to every component that needs
// true dimensions or weights.
package registry

import (
	"log/slog"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// Defaults returned for ids the registry cannot resolve.
const (
	DefaultWidth  = 100.0
	DefaultHeight = 100.0
	DefaultLength = 1000.0
	DefaultWeight = 10.0
)

// Registry is an id -> item and id -> placement lookup. It is not safe for
// concurrent mutation; concurrent readers are fine once registration is done.
type Registry struct {
	items      map[string]model.CargoItem
	placements map[string]model.Placement
	logger     *slog.Logger
}

// New returns an empty registry. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		items:      make(map[string]model.CargoItem),
		placements: make(map[string]model.Placement),
		logger:     logger.With("component", "registry"),
	}
}

// FromResult builds a registry holding the unit items and the placements of
// a finished result.
func FromResult(logger *slog.Logger, units []model.CargoItem, result model.PackingResult) *Registry {
	r := New(logger)
	r.RegisterItems(units)
	r.RegisterPlacements(result.Placements)
	return r
}

// RegisterItems replaces the item table.
func (r *Registry) RegisterItems(items []model.CargoItem) {
	r.items = make(map[string]model.CargoItem, len(items))
	for _, it := range items {
		r.items[it.ID] = it
	}
}

// RegisterPlacements replaces the placement table.
func (r *Registry) RegisterPlacements(placements []model.Placement) {
	r.placements = make(map[string]model.Placement, len(placements))
	for _, p := range placements {
		r.placements[p.ItemID] = p
	}
}

// Item returns the registered item for an id.
func (r *Registry) Item(id string) (model.CargoItem, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Placement returns the registered placement for an item id.
func (r *Registry) Placement(id string) (model.Placement, bool) {
	p, ok := r.placements[id]
	return p, ok
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	return len(r.items)
}

func (r *Registry) lookup(id, query string) (model.CargoItem, bool) {
	it, ok := r.items[id]
	if !ok {
		r.logger.Warn("unresolved item id, using defaults", "item_id", id, "query", query)
	}
	return it, ok
}

// Resolve returns the item a placement carries, or a default galvanized
// section with no flange when the id is unknown.
func (r *Registry) Resolve(p model.Placement) model.CargoItem {
	if it, ok := r.lookup(p.ItemID, "item"); ok {
		return it
	}
	return model.CargoItem{
		ID:       p.ItemID,
		Shape:    model.ShapeRectangular,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Length:   DefaultLength,
		Quantity: 1,
		Weight:   DefaultWeight,
		Material: model.MaterialGalvanized,
		Flange:   model.FlangeNone,
	}
}

// Dimensions returns the rotated extent of the item a placement carries.
func (r *Registry) Dimensions(p model.Placement) model.Dims {
	it, ok := r.lookup(p.ItemID, "dimensions")
	if !ok {
		return model.ApplyRotation(model.Dims{W: DefaultWidth, H: DefaultHeight, L: DefaultLength}, p.Rotation)
	}
	return model.RotatedDims(it, p.Rotation)
}

// Weight returns the explicit weight of the placed item, or its estimate.
// Nested items travel with the placement and are included.
func (r *Registry) Weight(p model.Placement) float64 {
	it, ok := r.lookup(p.ItemID, "weight")
	if !ok {
		return DefaultWeight
	}
	return ItemWeight(it)
}

// LoadWeight returns the weight a placement puts on the vehicle: the
// carried item plus everything nested inside it.
func (r *Registry) LoadWeight(p model.Placement) float64 {
	w := r.Weight(p)
	for _, id := range p.NestedIDs {
		if it, ok := r.lookup(id, "nested weight"); ok {
			w += ItemWeight(it)
		} else {
			w += DefaultWeight
		}
	}
	return w
}

// Material returns the placed item's material, galvanized when unknown.
func (r *Registry) Material(p model.Placement) model.Material {
	it, ok := r.lookup(p.ItemID, "material")
	if !ok || it.Material == "" {
		return model.MaterialGalvanized
	}
	return it.Material
}

// FlangeType returns the placed item's flange, NONE when unknown.
func (r *Registry) FlangeType(p model.Placement) model.FlangeType {
	it, ok := r.lookup(p.ItemID, "flange")
	if !ok || it.Flange == "" {
		return model.FlangeNone
	}
	return it.Flange
}

// IsFragile reports whether the placed item's material dents easily.
func (r *Registry) IsFragile(p model.Placement) bool {
	return IsFragileMaterial(r.Material(p))
}

// IsFragileMaterial reports whether thin sheets of the material dent under load.
func IsFragileMaterial(m model.Material) bool {
	return m == model.MaterialGalvanized || m == model.MaterialAluminum
}
