package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsLoad(t *testing.T) {
	cfg := Default()

	if cfg.World.HalfExtent <= 0 {
		t.Fatalf("half extent not loaded: %f", cfg.World.HalfExtent)
	}
	if cfg.Agent.MaxSpeed <= 0 {
		t.Fatalf("max speed not loaded: %f", cfg.Agent.MaxSpeed)
	}
	if cfg.Population.Initial <= 0 {
		t.Fatalf("initial population not loaded: %d", cfg.Population.Initial)
	}
	if cfg.Derived.AwarenessRadius <= 0 {
		t.Fatal("derived values not computed on load")
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	overlay := "agent:\n  max_speed: 99\nflock:\n  cohesion_distance: 77\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Agent.MaxSpeed != 99 {
		t.Fatalf("overlay max_speed = %f, want 99", cfg.Agent.MaxSpeed)
	}
	if cfg.Flock.CohesionDistance != 77 {
		t.Fatalf("overlay cohesion_distance = %f, want 77", cfg.Flock.CohesionDistance)
	}
	// Fields absent from the overlay keep their defaults.
	if def := Default(); cfg.World.HalfExtent != def.World.HalfExtent {
		t.Fatalf("half_extent lost its default: %f", cfg.World.HalfExtent)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing config file must error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"zero half extent", func(c *Config) { c.World.HalfExtent = 0 }, "world.half_extent"},
		{"margin exceeds half extent", func(c *Config) { c.World.BoundsMargin = c.World.HalfExtent }, "world.bounds_margin"},
		{"negative max dt", func(c *Config) { c.Physics.MaxDT = -1 }, "physics.max_dt"},
		{"zero rebuild interval", func(c *Config) { c.Physics.RebuildInterval = 0 }, "physics.rebuild_interval"},
		{"negative max speed", func(c *Config) { c.Agent.MaxSpeed = -5 }, "agent.max_speed"},
		{"scale min above max", func(c *Config) { c.Agent.ScaleMin = c.Agent.ScaleMax + 1 }, "agent.scale_min"},
		{"zero separation distance", func(c *Config) { c.Flock.SeparationDistance = 0 }, "flock.separation_distance"},
		{"negative wander step", func(c *Config) { c.Wander.Step = -0.1 }, "wander.step"},
		{"detection below evasion", func(c *Config) { c.Danger.DetectionRadius = c.Danger.EvasionRadius - 1 }, "danger.detection_radius"},
		{"panic multiplier below one", func(c *Config) { c.Danger.PanicSpeedMultiplier = 0.5 }, "danger.panic_speed_multiplier"},
		{"spawn radius inside dead zone", func(c *Config) { c.Spawn.Radius = c.Spawn.DeadZone }, "spawn.radius"},
		{"negative initial population", func(c *Config) { c.Population.Initial = -1 }, "population.initial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestComputeDerived(t *testing.T) {
	cfg := Default()
	cfg.Flock.SeparationDistance = 10
	cfg.Flock.AlignmentDistance = 35
	cfg.Flock.CohesionDistance = 20
	cfg.Danger.EvasionRadius = 40
	cfg.ComputeDerived()

	if cfg.Derived.AwarenessRadius != 35 {
		t.Fatalf("awareness radius = %f, want 35", cfg.Derived.AwarenessRadius)
	}
	if cfg.Derived.PanicTrigger != 20 {
		t.Fatalf("panic trigger = %f, want 20", cfg.Derived.PanicTrigger)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	cfg := Default()
	cfg.Agent.MaxSpeed = 123

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Agent.MaxSpeed != 123 {
		t.Fatalf("round trip lost max_speed: %f", loaded.Agent.MaxSpeed)
	}
}
