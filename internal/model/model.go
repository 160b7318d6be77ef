package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Shape is the cross-section of a duct section.
type Shape string

const (
	ShapeRectangular Shape = "rectangular"
	ShapeRound       Shape = "round"
)

// Material is the sheet metal a duct is made of.
type Material string

const (
	MaterialGalvanized Material = "galvanized"
	MaterialStainless  Material = "stainless"
	MaterialAluminum   Material = "aluminum"
	MaterialBlackSteel Material = "black_steel"
)

// FlangeType is the connecting collar on a duct section.
type FlangeType string

const (
	FlangeTDC     FlangeType = "TDC"
	FlangeShina20 FlangeType = "SHINA_20"
	FlangeShina30 FlangeType = "SHINA_30"
	FlangeReyka   FlangeType = "REYKA"
	FlangeNone    FlangeType = "NONE"
)

// VehicleType feeds the per-vehicle stability penalty.
type VehicleType string

const (
	VehicleVan     VehicleType = "van"
	VehicleTruck   VehicleType = "truck"
	VehicleTrailer VehicleType = "trailer"
)

// DefaultDeckHeight is the assumed cargo floor height above the road in mm.
const DefaultDeckHeight = 1000.0

// Vehicle is the cargo body being filled. Dimensions in mm, payload in kg.
// Axes: X runs across the width, Y is vertical, Z runs along the length.
type Vehicle struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Type       VehicleType `json:"type" yaml:"type"`
	Width      float64     `json:"width" yaml:"width"`
	Height     float64     `json:"height" yaml:"height"`
	Length     float64     `json:"length" yaml:"length"`
	MaxPayload float64     `json:"max_payload,omitempty" yaml:"max_payload"` // 0 = unlimited
	TrackWidth float64     `json:"track_width,omitempty" yaml:"track_width"` // 0 = use Width
	DeckHeight float64     `json:"deck_height,omitempty" yaml:"deck_height"` // 0 = DefaultDeckHeight
}

func NewVehicle(name string, w, h, l, maxPayload float64) Vehicle {
	return Vehicle{
		ID:         uuid.New().String()[:8],
		Name:       name,
		Type:       VehicleTruck,
		Width:      w,
		Height:     h,
		Length:     l,
		MaxPayload: maxPayload,
	}
}

// Volume returns the cargo body volume in mm³.
func (v Vehicle) Volume() float64 {
	return v.Width * v.Height * v.Length
}

// Valid reports whether all three body dimensions are positive.
func (v Vehicle) Valid() bool {
	return v.Width > 0 && v.Height > 0 && v.Length > 0
}

// Track returns the wheel track width used for tipping estimates.
func (v Vehicle) Track() float64 {
	if v.TrackWidth > 0 {
		return v.TrackWidth
	}
	return v.Width
}

// Deck returns the cargo floor height above the road.
func (v Vehicle) Deck() float64 {
	if v.DeckHeight > 0 {
		return v.DeckHeight
	}
	return DefaultDeckHeight
}

// CargoItem is one line of a cargo list. Quantity > 1 is expanded into unit
// items before packing; see ExpandItems.
type CargoItem struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Shape          Shape      `json:"shape"`
	Width          float64    `json:"width,omitempty"`    // mm, rectangular only
	Height         float64    `json:"height,omitempty"`   // mm, rectangular only
	Diameter       float64    `json:"diameter,omitempty"` // mm, round only
	Length         float64    `json:"length"`             // mm
	Quantity       int        `json:"quantity"`
	Weight         float64    `json:"weight,omitempty"` // kg per unit, 0 = estimate
	Material       Material   `json:"material,omitempty"`
	Flange         FlangeType `json:"flange,omitempty"`
	WallThickness  float64    `json:"wall_thickness,omitempty"`  // mm, 0 = size tier
	UnloadPriority int        `json:"unload_priority,omitempty"` // lower unloads first
	FragilityScore float64    `json:"fragility_score,omitempty"` // 0..1
	NestedIDs      []string   `json:"nested_ids,omitempty"`      // unit ids carried inside
}

func NewRectItem(name string, w, h, l float64, qty int) CargoItem {
	return CargoItem{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Shape:    ShapeRectangular,
		Width:    w,
		Height:   h,
		Length:   l,
		Quantity: qty,
		Material: MaterialGalvanized,
		Flange:   FlangeNone,
	}
}

func NewRoundItem(name string, d, l float64, qty int) CargoItem {
	return CargoItem{
		ID:       uuid.New().String()[:8],
		Name:     name,
		Shape:    ShapeRound,
		Diameter: d,
		Length:   l,
		Quantity: qty,
		Material: MaterialGalvanized,
		Flange:   FlangeNone,
	}
}

// IsRound reports whether the item has a circular cross-section.
func (c CargoItem) IsRound() bool {
	return c.Shape == ShapeRound
}

// BaseDims returns the unrotated extent: width (X), height (Y), length (Z).
func (c CargoItem) BaseDims() Dims {
	if c.IsRound() {
		return Dims{W: c.Diameter, H: c.Diameter, L: c.Length}
	}
	return Dims{W: c.Width, H: c.Height, L: c.Length}
}

// Volume returns the bounding-box volume in mm³.
func (c CargoItem) Volume() float64 {
	return c.BaseDims().Volume()
}

// BaseArea returns the footprint of the item lying on its length, in mm².
func (c CargoItem) BaseArea() float64 {
	d := c.BaseDims()
	return d.W * d.L
}

// MaxCross returns the largest cross-section dimension.
func (c CargoItem) MaxCross() float64 {
	if c.IsRound() {
		return c.Diameter
	}
	return math.Max(c.Width, c.Height)
}

// MinCross returns the smallest cross-section dimension.
func (c CargoItem) MinCross() float64 {
	if c.IsRound() {
		return c.Diameter
	}
	return math.Min(c.Width, c.Height)
}

// ExpandItems turns every quantity-q item into q unit items with ids
// "baseID_1" .. "baseID_q". Items with a non-positive quantity are dropped.
func ExpandItems(items []CargoItem) []CargoItem {
	var expanded []CargoItem
	for _, it := range items {
		for i := 0; i < it.Quantity; i++ {
			cp := it
			cp.Quantity = 1
			cp.ID = fmt.Sprintf("%s_%d", it.ID, i+1)
			cp.NestedIDs = nil
			expanded = append(expanded, cp)
		}
	}
	return expanded
}

// BaseID strips the unit suffix added by ExpandItems.
func BaseID(unitID string) string {
	if i := strings.LastIndex(unitID, "_"); i > 0 {
		return unitID[:i]
	}
	return unitID
}

// Algorithm selects the packing strategy.
type Algorithm string

const (
	AlgorithmGreedy     Algorithm = "greedy"     // First-fit decreasing (fast baseline)
	AlgorithmBeam       Algorithm = "beam"       // Beam search (primary)
	AlgorithmMultiStart Algorithm = "multistart" // Seeded restarts of beam search
)

// CandidateMode selects how candidate origins are generated.
type CandidateMode string

const (
	CandidatesGrid          CandidateMode = "grid"
	CandidatesExtremePoints CandidateMode = "extreme"
)

// PackSettings holds optimizer configuration.
type PackSettings struct {
	Algorithm     Algorithm     `json:"algorithm"`
	BeamWidth     int           `json:"beam_width"`
	GridStep      float64       `json:"grid_step"` // mm
	Restarts      int           `json:"restarts"`
	Seed          int64         `json:"seed"`
	MaxNodes      int64         `json:"max_nodes"` // candidate evaluations per run, 0 = unlimited
	Nesting       bool          `json:"nesting"`
	EnforceFlange bool          `json:"enforce_flange"`
	Candidates    CandidateMode `json:"candidates"`
	Parallelism   int           `json:"parallelism"` // 0 = one worker per run
}

func DefaultSettings() PackSettings {
	return PackSettings{
		Algorithm:     AlgorithmBeam,
		BeamWidth:     5,
		GridStep:      100,
		Restarts:      10,
		Seed:          42,
		MaxNodes:      0,
		Nesting:       true,
		EnforceFlange: true,
		Candidates:    CandidatesGrid,
		Parallelism:   0,
	}
}

// Band sizes used to derive layer and row indices.
const (
	LayerBand = 500.0  // mm of Y per layer
	RowBand   = 1000.0 // mm of Z per row
)

// Placement is one unit item assigned a position and rotation in a bin.
type Placement struct {
	ItemID    string   `json:"item_id"`
	Bin       int      `json:"bin"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Rotation  Rotation `json:"rotation"`
	Size      Dims     `json:"size"` // rotated extent used by the packer
	Layer     int      `json:"layer"`
	Row       int      `json:"row"`
	NestedIDs []string `json:"nested_ids,omitempty"`
}

func NewPlacement(itemID string, bin int, x, y, z float64, rot Rotation, size Dims) Placement {
	return Placement{
		ItemID:   itemID,
		Bin:      bin,
		X:        x,
		Y:        y,
		Z:        z,
		Rotation: rot,
		Size:     size,
		Layer:    int(math.Floor(y / LayerBand)),
		Row:      int(math.Floor(z / RowBand)),
	}
}

// Row groups placements whose origin falls in the same Z band.
type Row struct {
	Index      int         `json:"index"`
	Placements []Placement `json:"placements"`
}

// ResultMetrics aggregates a finished packing.
type ResultMetrics struct {
	VolumeFill     float64         `json:"volume_fill"`     // 0..1
	StabilityScore float64         `json:"stability_score"` // 0..1
	TotalWeight    float64         `json:"total_weight"`    // kg
	LayerWeights   map[int]float64 `json:"layer_weights,omitempty"`
}

// PackingResult holds the full solution. Unplaced lists unit item ids that
// no algorithm step could host.
type PackingResult struct {
	Algorithm  Algorithm     `json:"algorithm"`
	Placements []Placement   `json:"placements"`
	BinsUsed   int           `json:"bins_used"`
	Rows       []Row         `json:"rows"`
	Unplaced   []string      `json:"unplaced,omitempty"`
	Metrics    ResultMetrics `json:"metrics"`
}

// PlacementsInBin returns the placements assigned to one bin.
func (r PackingResult) PlacementsInBin(bin int) []Placement {
	var out []Placement
	for _, p := range r.Placements {
		if p.Bin == bin {
			out = append(out, p)
		}
	}
	return out
}

// CoveredIDs returns every unit id carried by the result, nested ones included.
func (r PackingResult) CoveredIDs() []string {
	var ids []string
	for _, p := range r.Placements {
		ids = append(ids, p.ItemID)
		ids = append(ids, p.NestedIDs...)
	}
	return ids
}

// Project ties everything together for save/load.
type Project struct {
	Name     string         `json:"name"`
	Vehicle  Vehicle        `json:"vehicle"`
	Items    []CargoItem    `json:"items"`
	Settings PackSettings   `json:"settings"`
	Result   *PackingResult `json:"result,omitempty"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Items:    []CargoItem{},
		Settings: DefaultSettings(),
	}
}
