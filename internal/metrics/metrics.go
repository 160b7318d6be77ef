// Package metrics records packing runs as Prometheus series. The CLI dumps
// them in text exposition format for the node_exporter textfile collector.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/DuctLoad/internal/engine"
	"github.com/piwi3910/DuctLoad/internal/model"
)

// Recorder owns a dedicated registry and the packing collectors.
type Recorder struct {
	Registry *prometheus.Registry

	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	placements  prometheus.Gauge
	unplaced    prometheus.Gauge
	bins        prometheus.Gauge
	volumeFill  prometheus.Gauge
	totalWeight prometheus.Gauge
}

var _ engine.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "ductload_pack_runs_total", Help: "Packing runs by algorithm and outcome."},
			[]string{"algorithm", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "ductload_pack_duration_seconds", Help: "Packing run duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60}},
			[]string{"algorithm"},
		),
		placements:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "ductload_last_placements", Help: "Placements in the last result."}),
		unplaced:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "ductload_last_unplaced", Help: "Unplaced unit items in the last result."}),
		bins:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "ductload_last_bins_used", Help: "Vehicles used by the last result."}),
		volumeFill:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "ductload_last_volume_fill_ratio", Help: "Volume fill of the last result, 0..1."}),
		totalWeight: prometheus.NewGauge(prometheus.GaugeOpts{Name: "ductload_last_total_weight_kg", Help: "Placed weight of the last result in kg."}),
	}
	r.Registry.MustRegister(r.runs, r.duration, r.placements, r.unplaced, r.bins, r.volumeFill, r.totalWeight)
	return r
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, engine.ErrBudgetExhausted):
		return "budget_exhausted"
	case errors.Is(err, engine.ErrNoValidPacking):
		return "no_valid_packing"
	case errors.Is(err, engine.ErrInvalidVehicle):
		return "invalid_vehicle"
	default:
		return "error"
	}
}

// ObservePack implements engine.Observer. Gauges only move on success.
func (r *Recorder) ObservePack(alg model.Algorithm, elapsed time.Duration, res model.PackingResult, err error) {
	r.runs.WithLabelValues(string(alg), status(err)).Inc()
	r.duration.WithLabelValues(string(alg)).Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	r.placements.Set(float64(len(res.Placements)))
	r.unplaced.Set(float64(len(res.Unplaced)))
	r.bins.Set(float64(res.BinsUsed))
	r.volumeFill.Set(res.Metrics.VolumeFill)
	r.totalWeight.Set(res.Metrics.TotalWeight)
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
