// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// Every distance, weight, and speed is a plain numeric field so the whole
// set is tunable at runtime through Shoal.SetParameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Agent      AgentConfig      `yaml:"agent"`
	Flock      FlockConfig      `yaml:"flock"`
	Wander     WanderConfig     `yaml:"wander"`
	Terrain    TerrainConfig    `yaml:"terrain"`
	Obstacle   ObstacleConfig   `yaml:"obstacle"`
	Danger     DangerConfig     `yaml:"danger"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Population PopulationConfig `yaml:"population"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the bounded world cube and its containment band.
type WorldConfig struct {
	HalfExtent   float64 `yaml:"half_extent"`   // World spans [-half_extent, half_extent] on every axis
	BoundsMargin float64 `yaml:"bounds_margin"` // Width of the soft-turn band inside each wall
	BoundsWeight float64 `yaml:"bounds_weight"` // Soft-turn push per unit of band penetration
}

// PhysicsConfig holds integration and spatial-index parameters.
type PhysicsConfig struct {
	MaxDT           float64 `yaml:"max_dt"`           // Upper bound on dt passed to Update (explicit-Euler stability)
	GridCellSize    float64 `yaml:"grid_cell_size"`   // Spatial grid cell edge length
	RebuildInterval int     `yaml:"rebuild_interval"` // Ticks between spatial index rebuilds
}

// AgentConfig holds per-agent kinematic limits and visual variance.
type AgentConfig struct {
	MaxSpeed float64 `yaml:"max_speed"`
	MaxForce float64 `yaml:"max_force"` // Per-tick force sum is clamped to 2x this
	ScaleMin float64 `yaml:"scale_min"` // Visual size variance, sampled once at creation
	ScaleMax float64 `yaml:"scale_max"`
}

// FlockConfig holds the three Reynolds behaviors.
// The neighbor scan uses a single awareness radius (the max of the three
// distances); the individual distances gate which neighbors feed which
// accumulator. Weights cap each behavior's steering magnitude.
type FlockConfig struct {
	SeparationDistance float64 `yaml:"separation_distance"`
	AlignmentDistance  float64 `yaml:"alignment_distance"`
	CohesionDistance   float64 `yaml:"cohesion_distance"`
	SeparationWeight   float64 `yaml:"separation_weight"`
	AlignmentWeight    float64 `yaml:"alignment_weight"`
	CohesionWeight     float64 `yaml:"cohesion_weight"`
}

// WanderConfig holds the bounded random-walk drift parameters.
type WanderConfig struct {
	Strength float64 `yaml:"strength"` // Magnitude of the wander steering offset
	Step     float64 `yaml:"step"`     // Max per-tick change of the wander angle (radians)
}

// TerrainConfig holds terrain avoidance parameters.
type TerrainConfig struct {
	Margin   float64 `yaml:"margin"`    // Keep-above band over the terrain surface
	MaxForce float64 `yaml:"max_force"` // Cap on the quadratic upward correction
	Weight   float64 `yaml:"weight"`
}

// ObstacleConfig holds static obstacle avoidance parameters.
type ObstacleConfig struct {
	Margin        float64 `yaml:"margin"`         // AABB expansion, applied once and cached
	ProximityBand float64 `yaml:"proximity_band"` // Outside-the-box gentle push range
	Weight        float64 `yaml:"weight"`
}

// DangerConfig holds threat evasion and panic parameters.
// Panic triggers when a threat closes within half the evasion radius.
type DangerConfig struct {
	EvasionRadius        float64 `yaml:"evasion_radius"`
	DetectionRadius      float64 `yaml:"detection_radius"` // Wider preemptive-steer range
	EscapeStrength       float64 `yaml:"escape_strength"`
	PreemptiveFactor     float64 `yaml:"preemptive_factor"` // Fraction of escape strength for distant threats
	PanicSpeedMultiplier float64 `yaml:"panic_speed_multiplier"`
	PanicDurationTicks   int     `yaml:"panic_duration_ticks"`
}

// SpawnConfig holds spawn-position sampling parameters.
type SpawnConfig struct {
	Radius      float64 `yaml:"radius"`       // Spawn disk radius around world origin
	DeadZone    float64 `yaml:"dead_zone"`    // Exclusion radius around the origin
	MaxAttempts int     `yaml:"max_attempts"` // Rejection-sampling cap; last sample is accepted after this
	HeightAbove float64 `yaml:"height_above"` // Spawn height over the terrain surface
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindowTicks    int `yaml:"stats_window_ticks"`
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	AwarenessRadius float64 // Max of the three flock distances; single neighbor-scan radius
	PanicTrigger    float64 // Half the evasion radius
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Validate checks configuration values at the boundary so the per-tick hot
// path can apply them without range checks.
func (c *Config) Validate() error {
	check := func(ok bool, field, rule string) error {
		if !ok {
			return fmt.Errorf("config: %s must be %s", field, rule)
		}
		return nil
	}

	checks := []error{
		check(c.World.HalfExtent > 0, "world.half_extent", "positive"),
		check(c.World.BoundsMargin >= 0 && c.World.BoundsMargin < c.World.HalfExtent, "world.bounds_margin", "in [0, half_extent)"),
		check(c.Physics.MaxDT > 0, "physics.max_dt", "positive"),
		check(c.Physics.GridCellSize > 0, "physics.grid_cell_size", "positive"),
		check(c.Physics.RebuildInterval >= 1, "physics.rebuild_interval", "at least 1"),
		check(c.Agent.MaxSpeed > 0, "agent.max_speed", "positive"),
		check(c.Agent.MaxForce > 0, "agent.max_force", "positive"),
		check(c.Agent.ScaleMin > 0 && c.Agent.ScaleMin <= c.Agent.ScaleMax, "agent.scale_min", "positive and <= scale_max"),
		check(c.Flock.SeparationDistance > 0, "flock.separation_distance", "positive"),
		check(c.Flock.AlignmentDistance > 0, "flock.alignment_distance", "positive"),
		check(c.Flock.CohesionDistance > 0, "flock.cohesion_distance", "positive"),
		check(c.Wander.Step >= 0, "wander.step", "non-negative"),
		check(c.Terrain.Margin > 0, "terrain.margin", "positive"),
		check(c.Obstacle.ProximityBand >= 0, "obstacle.proximity_band", "non-negative"),
		check(c.Danger.EvasionRadius > 0, "danger.evasion_radius", "positive"),
		check(c.Danger.DetectionRadius >= c.Danger.EvasionRadius, "danger.detection_radius", "at least evasion_radius"),
		check(c.Danger.PanicSpeedMultiplier >= 1, "danger.panic_speed_multiplier", "at least 1"),
		check(c.Danger.PanicDurationTicks >= 1, "danger.panic_duration_ticks", "at least 1"),
		check(c.Spawn.MaxAttempts >= 1, "spawn.max_attempts", "at least 1"),
		check(c.Spawn.Radius > c.Spawn.DeadZone, "spawn.radius", "greater than spawn.dead_zone"),
		check(c.Population.Initial >= 0, "population.initial", "non-negative"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Callers mutating the config directly must call this again afterwards;
// Shoal.SetParameters does so on every patch.
func (c *Config) ComputeDerived() {
	aware := c.Flock.SeparationDistance
	if c.Flock.AlignmentDistance > aware {
		aware = c.Flock.AlignmentDistance
	}
	if c.Flock.CohesionDistance > aware {
		aware = c.Flock.CohesionDistance
	}
	c.Derived.AwarenessRadius = aware
	c.Derived.PanicTrigger = c.Danger.EvasionRadius * 0.5
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
