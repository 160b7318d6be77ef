package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// Observer is told about every finished Pack call.
type Observer interface {
	ObservePack(alg model.Algorithm, elapsed time.Duration, result model.PackingResult, err error)
}

// Optimizer runs the 3D loading algorithms.
type Optimizer struct {
	Settings model.PackSettings
	Logger   *slog.Logger
	Observer Observer
}

func New(settings model.PackSettings, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{
		Settings: settings,
		Logger:   logger.With("component", "optimizer"),
	}
}

// Prepare expands items by quantity and, when nesting is on, merges the
// sections that fit inside others. Only sections that fit an empty vehicle
// take part in nesting.
func Prepare(v model.Vehicle, settings model.PackSettings, items []model.CargoItem) []model.CargoItem {
	units := model.ExpandItems(items)
	if settings.Nesting {
		s := NewSearch(v, settings, nil)
		units = NestItems(units, s.FitsEmpty)
	}
	return units
}

// Pack loads items into as many copies of vehicle as needed. Items that can
// never fit are listed in the result's Unplaced field rather than failing
// the call.
func (o *Optimizer) Pack(ctx context.Context, vehicle model.Vehicle, items []model.CargoItem) (model.PackingResult, error) {
	start := time.Now()
	res, err := o.pack(ctx, vehicle, items)
	if o.Observer != nil {
		o.Observer.ObservePack(o.algorithm(), time.Since(start), res, err)
	}
	return res, err
}

func (o *Optimizer) algorithm() model.Algorithm {
	switch o.Settings.Algorithm {
	case model.AlgorithmGreedy, model.AlgorithmMultiStart:
		return o.Settings.Algorithm
	default:
		return model.AlgorithmBeam
	}
}

func (o *Optimizer) pack(ctx context.Context, v model.Vehicle, items []model.CargoItem) (model.PackingResult, error) {
	if !v.Valid() {
		return model.PackingResult{}, fmt.Errorf("%w: %gx%gx%g", ErrInvalidVehicle, v.Width, v.Height, v.Length)
	}

	units := Prepare(v, o.Settings, items)
	alg := o.algorithm()
	o.Logger.Debug("packing", "algorithm", alg, "items", len(items), "units", len(units), "vehicle", v.Name)

	var (
		res model.PackingResult
		err error
	)
	switch alg {
	case model.AlgorithmGreedy:
		s := NewSearch(v, o.Settings, NewBudget(o.Settings.MaxNodes))
		res, err = Greedy(ctx, s, units)
	case model.AlgorithmMultiStart:
		res, err = MultiStart(ctx, v, o.Settings, units, o.Logger)
	default:
		s := NewSearch(v, o.Settings, NewBudget(o.Settings.MaxNodes))
		res, err = BeamSearch(ctx, s, rules.SortForVentilationLayering(units), o.Settings.BeamWidth)
	}
	if err != nil {
		o.Logger.Error("packing failed", "algorithm", alg, "error", err)
		return model.PackingResult{}, fmt.Errorf("%s packing: %w", alg, err)
	}

	if len(res.Unplaced) > 0 {
		o.Logger.Warn("items do not fit the vehicle", "count", len(res.Unplaced), "ids", res.Unplaced)
	}
	o.Logger.Info("packing finished",
		"algorithm", alg,
		"placements", len(res.Placements),
		"bins", res.BinsUsed,
		"fill", res.Metrics.VolumeFill,
	)
	return res, nil
}
