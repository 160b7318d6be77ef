package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/piwi3910/DuctLoad/internal/rules"
)

// DefaultRestarts is the number of beam searches Multi-Start runs.
const DefaultRestarts = 10

// SeededShuffle returns a reordered copy of items. For i from the last
// index down to 1 it swaps i with (seed+i) mod (i+1), so the same seed
// always yields the same order.
func SeededShuffle(items []model.CargoItem, seed int64) []model.CargoItem {
	out := make([]model.CargoItem, len(items))
	copy(out, items)
	for i := len(out) - 1; i >= 1; i-- {
		m := int64(i + 1)
		j := ((seed+int64(i))%m + m) % m
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// restartScore ranks Multi-Start candidates.
func restartScore(r model.PackingResult) float64 {
	return r.Metrics.VolumeFill*100 + r.Metrics.StabilityScore*50 - float64(r.BinsUsed)*10
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// MultiStart runs beam search once per restart on a seeded reorder of
// units, restart i using seed settings.Seed+i. Restarts run concurrently;
// the winner is picked by restart index order so the outcome does not
// depend on scheduling.
func MultiStart(ctx context.Context, v model.Vehicle, settings model.PackSettings, units []model.CargoItem, logger *slog.Logger) (model.PackingResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := settings.Restarts
	if n <= 0 {
		n = DefaultRestarts
	}

	results := make([]*model.PackingResult, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	if settings.Parallelism > 0 {
		g.SetLimit(settings.Parallelism)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			order := rules.SortForVentilationLayering(SeededShuffle(units, settings.Seed+int64(i)))
			s := NewSearch(v, settings, NewBudget(settings.MaxNodes))
			res, err := BeamSearch(gctx, s, order, settings.BeamWidth)
			if err != nil {
				if isContextErr(err) {
					return err
				}
				errs[i] = err
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.PackingResult{}, err
	}

	best := -1
	bestScore := 0.0
	for i, r := range results {
		if r == nil {
			logger.Debug("restart failed", "restart", i, "seed", settings.Seed+int64(i), "error", errs[i])
			continue
		}
		if sc := restartScore(*r); best < 0 || sc > bestScore {
			best, bestScore = i, sc
		}
	}
	if best < 0 {
		return model.PackingResult{}, fmt.Errorf("all %d restarts failed: %w", n, errors.Join(errs...))
	}

	logger.Debug("multi-start winner",
		"restart", best,
		"seed", settings.Seed+int64(best),
		"score", bestScore,
		"bins", results[best].BinsUsed,
	)
	res := *results[best]
	res.Algorithm = model.AlgorithmMultiStart
	return res, nil
}
