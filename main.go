package main

import (
	"flag"
	"log/slog"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/shoal"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
	"github.com/pthm-cable/shoal/terrain"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	agents := flag.Int("agents", 0, "Initial population (0 = use config)")
	maxTicks := flag.Int("max-ticks", 36000, "Stop after N ticks")
	dt := flag.Float64("dt", 1.0/60.0, "Fixed step size in seconds")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *agents > 0 {
		cfg.Population.Initial = *agents
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindowTicks = *statsWindow
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to init output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	half := cfg.World.HalfExtent
	obstacle := systems.BoxObstacle{
		Bounds: systems.AABB{
			Min: r3.Vec{X: -half * 0.08, Y: -half, Z: -half * 0.08},
			Max: r3.Vec{X: half * 0.08, Y: half * 0.2, Z: half * 0.08},
		},
	}

	onStats := func(stats telemetry.WindowStats, perf telemetry.PerfStats) {
		if *logStats {
			stats.LogStats()
			perf.LogStats()
		}
		if err := output.WriteTelemetry(stats); err != nil {
			slog.Error("telemetry write failed", "error", err)
		}
		if err := output.WritePerf(perf.Row(stats.WindowEndTick)); err != nil {
			slog.Error("perf write failed", "error", err)
		}
	}

	s, err := shoal.New(cfg, shoal.Options{
		Seed:     rngSeed,
		Terrain:  terrain.NewSimplex(rngSeed, terrain.DefaultParams()),
		Obstacle: obstacle,
		OnStats:  onStats,
	})
	if err != nil {
		slog.Error("failed to build shoal", "error", err)
		os.Exit(1)
	}

	// One roaming predator keeps the evasion and panic paths busy.
	predator := &patrolThreat{
		radius: half * 0.6,
		period: 45.0,
		depth:  -half * 0.3,
	}
	s.AddThreat(predator)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"agents", s.Len(),
		"max_ticks", *maxTicks,
		"dt", *dt,
	)

	for tick := 0; tick < *maxTicks; tick++ {
		predator.Advance(*dt)
		s.Update(*dt)
	}

	slog.Info("simulation complete", "tick", s.Tick(), "agents", s.Len())
}

// patrolThreat circles the world at a fixed depth and dives out of sight for
// part of every lap, exercising runtime visibility changes.
type patrolThreat struct {
	radius float64
	period float64
	depth  float64
	t      float64
}

// Advance moves the patrol clock forward.
func (p *patrolThreat) Advance(dt float64) {
	p.t += dt
}

// WorldPosition returns the current patrol position.
func (p *patrolThreat) WorldPosition() r3.Vec {
	phase := 2 * math.Pi * p.t / p.period
	return r3.Vec{
		X: p.radius * math.Cos(phase),
		Y: p.depth,
		Z: p.radius * math.Sin(phase),
	}
}

// IsVisible hides the predator for a quarter of each lap.
func (p *patrolThreat) IsVisible() bool {
	phase := math.Mod(p.t/p.period, 1)
	return phase < 0.75
}
