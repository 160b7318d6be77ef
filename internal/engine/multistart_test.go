package engine

import (
	"context"
	"testing"

	"github.com/piwi3910/DuctLoad/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededShuffle(t *testing.T) {
	items := []model.CargoItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	idsOf := func(items []model.CargoItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(SeededShuffle(items, 0)))
	assert.Equal(t, []string{"b", "c", "a"}, idsOf(SeededShuffle(items, 1)))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, idsOf(SeededShuffle(items, -5)))
	assert.Equal(t, SeededShuffle(items, 7), SeededShuffle(items, 7))
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(items), "input is not mutated")
}

func TestRestartScore(t *testing.T) {
	r := model.PackingResult{BinsUsed: 2, Metrics: model.ResultMetrics{VolumeFill: 0.5, StabilityScore: 0.8}}
	assert.InDelta(t, 50+40-20, restartScore(r), 1e-9)
}

func TestMultiStart_Deterministic(t *testing.T) {
	v := model.Vehicle{Width: 1800, Height: 1800, Length: 3000}
	items := []model.CargoItem{
		rectItem("a", 600, 400, 1500, 3),
		rectItem("b", 300, 300, 1000, 3),
		roundItem("c", 400, 1200, 2),
	}
	settings := defaultTestSettings()
	settings.Restarts = 4
	settings.Nesting = false
	units := model.ExpandItems(items)

	first, err := MultiStart(context.Background(), v, settings, units, nil)
	require.NoError(t, err)
	second, err := MultiStart(context.Background(), v, settings, units, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, model.AlgorithmMultiStart, first.Algorithm)
	assert.Len(t, first.Placements, 8)

	settings.Parallelism = 1
	serial, err := MultiStart(context.Background(), v, settings, units, nil)
	require.NoError(t, err)
	assert.Equal(t, first, serial, "worker count does not change the winner")
}

func TestMultiStart_AllRestartsFail(t *testing.T) {
	settings := defaultTestSettings()
	settings.MaxNodes = 1
	units := model.ExpandItems([]model.CargoItem{rectItem("a", 500, 300, 1000, 2)})

	_, err := MultiStart(context.Background(), testVehicle(), settings, units, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
}

func TestMultiStart_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The small box only fits above the block, so the scan runs long
	// enough to reach a context check.
	v := model.Vehicle{Width: 2400, Height: 2500, Length: 12000}
	settings := defaultTestSettings()
	settings.GridStep = 10
	settings.Restarts = 2
	block := rectItem("block", 2400, 2400, 12000, 1)
	block.Weight = 500
	units := model.ExpandItems([]model.CargoItem{block, rectItem("box", 100, 100, 100, 1)})

	_, err := MultiStart(ctx, v, settings, units, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
