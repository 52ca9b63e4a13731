// Package telemetry aggregates simulation statistics over tick windows and
// writes them to CSV and slog.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one tick window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Population int `csv:"population"`
	Panicking  int `csv:"panicking"`

	// Events during window
	AgentsAdded   int `csv:"agents_added"`
	AgentsRemoved int `csv:"agents_removed"`
	PanicTriggers int `csv:"panic_triggers"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
}

// ComputeSpeedStats calculates mean, stddev, and percentiles from speed
// samples. Returns zeros for an empty slice.
func ComputeSpeedStats(speeds []float64) (mean, std, p10, p50, p90 float64) {
	if len(speeds) == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, len(speeds))
	copy(sorted, speeds)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		std = stat.StdDev(sorted, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogStats writes the window to slog.
func (s WindowStats) LogStats() {
	slog.Info("window stats",
		"tick", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"population", s.Population,
		"panicking", s.Panicking,
		"added", s.AgentsAdded,
		"removed", s.AgentsRemoved,
		"panic_triggers", s.PanicTriggers,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
	)
}
