package shoal

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/systems"
)

// quietConfig returns defaults with wander disabled so tests see only the
// forces they stage.
func quietConfig() *config.Config {
	cfg := config.Default()
	cfg.Wander.Strength = 0
	cfg.Wander.Step = 0
	return cfg
}

func newTestShoal(t *testing.T, cfg *config.Config, opts Options) *Shoal {
	t.Helper()
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewSource(1))
	}
	s, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// place pins agent i to an exact kinematic state.
func place(s *Shoal, i int, pos, vel r3.Vec) {
	e := s.agents[i]
	s.posMap.Get(e).Vec = pos
	s.velMap.Get(e).Vec = vel
}

func finiteVec(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// TestIsolatedAgentStaysAtRest is the zero-force property: no neighbors, no
// threats, flat terrain far below, centered in bounds, wander disabled.
func TestIsolatedAgentStaysAtRest(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 1
	s := newTestShoal(t, cfg, Options{})

	place(s, 0, r3.Vec{}, r3.Vec{})
	for i := 0; i < 10; i++ {
		s.Update(1.0 / 60.0)
	}

	st := s.AgentState(0)
	if st.Position != (r3.Vec{}) || st.Velocity != (r3.Vec{}) {
		t.Fatalf("isolated agent moved: %+v", st)
	}
}

// TestSeparationScenario places two resting agents one unit apart and checks
// their first-tick displacements are equal in magnitude and opposite in
// direction.
func TestSeparationScenario(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 2
	s := newTestShoal(t, cfg, Options{})

	a := r3.Vec{X: -0.5}
	b := r3.Vec{X: 0.5}
	place(s, 0, a, r3.Vec{})
	place(s, 1, b, r3.Vec{})
	s.indexDirty = true

	s.Update(1.0 / 60.0)

	dispA := r3.Sub(s.AgentState(0).Position, a)
	dispB := r3.Sub(s.AgentState(1).Position, b)

	if r3.Norm(dispA) == 0 {
		t.Fatal("agents did not move")
	}
	if d := r3.Norm(r3.Add(dispA, dispB)); d > 1e-9 {
		t.Fatalf("displacements not equal and opposite: %v vs %v", dispA, dispB)
	}
	if dispA.X >= 0 || dispB.X <= 0 {
		t.Fatalf("agents should separate along X: %v vs %v", dispA, dispB)
	}
}

// TestPanicLifecycle triggers panic with a close threat and checks the
// deterministic tick-count decay and re-trigger reset.
func TestPanicLifecycle(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 1
	s := newTestShoal(t, cfg, Options{})

	place(s, 0, r3.Vec{}, r3.Vec{})
	threat := &systems.PointThreat{Pos: r3.Vec{X: 5}}
	s.AddThreat(threat)

	s.Update(1.0 / 60.0)
	st := s.AgentState(0)
	if !st.Panic || st.PanicTicks != cfg.Danger.PanicDurationTicks {
		t.Fatalf("panic not triggered: %+v", st)
	}

	s.RemoveThreat(threat)

	for i := 0; i < cfg.Danger.PanicDurationTicks-1; i++ {
		s.Update(1.0 / 60.0)
		if !s.AgentState(0).Panic {
			t.Fatalf("panic expired early after %d ticks", i+1)
		}
	}
	s.Update(1.0 / 60.0)
	if st := s.AgentState(0); st.Panic || st.PanicTicks != 0 {
		t.Fatalf("panic should clear exactly at duration: %+v", st)
	}

	// Re-trigger on consecutive ticks resets the countdown.
	place(s, 0, r3.Vec{}, r3.Vec{})
	s.AddThreat(threat)
	s.Update(1.0 / 60.0)
	place(s, 0, r3.Vec{}, r3.Vec{})
	s.Update(1.0 / 60.0)
	if st := s.AgentState(0); st.PanicTicks != cfg.Danger.PanicDurationTicks {
		t.Fatalf("re-trigger should reset counter, got %d", st.PanicTicks)
	}
}

// TestAddRemoveRoundTrip verifies addAgents(5) + removeAgents(5) restores the
// population and leaves every survivor untouched.
func TestAddRemoveRoundTrip(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 10
	s := newTestShoal(t, cfg, Options{})

	before := make([]AgentState, s.Len())
	for i := range before {
		before[i] = s.AgentState(i)
	}

	s.AddAgents(5)
	if s.Len() != 15 {
		t.Fatalf("population after add = %d, want 15", s.Len())
	}
	s.RemoveAgents(5)
	if s.Len() != 10 {
		t.Fatalf("population after remove = %d, want 10", s.Len())
	}

	for i, want := range before {
		if got := s.AgentState(i); got != want {
			t.Fatalf("agent %d state changed: %+v -> %+v", i, want, got)
		}
	}
}

// TestRemoveAgentsClamps verifies over-removal clamps to the population and
// removing from empty is a no-op.
func TestRemoveAgentsClamps(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 3
	s := newTestShoal(t, cfg, Options{})

	s.RemoveAgents(100)
	if s.Len() != 0 {
		t.Fatalf("population = %d, want 0", s.Len())
	}
	s.RemoveAgents(1)
	if s.Len() != 0 {
		t.Fatal("removal from empty shoal must be a no-op")
	}

	// The empty shoal still ticks.
	s.Update(1.0 / 60.0)
}

// TestSpawnSampling verifies spawn positions respect the disk radius and the
// terrain height offset.
func TestSpawnSampling(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 200
	flat := systems.FlatTerrain{Level: -120}
	s := newTestShoal(t, cfg, Options{Terrain: flat})

	wantY := flat.Level + cfg.Spawn.HeightAbove
	for i := 0; i < s.Len(); i++ {
		p := s.AgentState(i).Position
		if r := math.Hypot(p.X, p.Z); r > cfg.Spawn.Radius+1e-9 {
			t.Fatalf("agent %d spawned outside the disk: radius %f", i, r)
		}
		if math.Abs(p.Y-wantY) > 1e-9 {
			t.Fatalf("agent %d spawn height %f, want %f", i, p.Y, wantY)
		}
	}
}

// TestScaleVariance verifies per-agent size lands in the configured range and
// is stable across ticks.
func TestScaleVariance(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 50
	s := newTestShoal(t, cfg, Options{})

	scales := make([]float64, s.Len())
	for i := range scales {
		sc := s.AgentState(i).Scale
		if sc < cfg.Agent.ScaleMin || sc > cfg.Agent.ScaleMax {
			t.Fatalf("agent %d scale %f outside [%f, %f]", i, sc, cfg.Agent.ScaleMin, cfg.Agent.ScaleMax)
		}
		scales[i] = sc
	}
	s.Update(1.0 / 60.0)
	for i := range scales {
		if s.AgentState(i).Scale != scales[i] {
			t.Fatalf("agent %d scale recomputed after tick", i)
		}
	}
}

// TestLongRunInvariants simulates 50 agents for 1000 ticks with an obstacle
// and a roving threat and checks the speed, boundary, and finiteness
// invariants on every tick.
func TestLongRunInvariants(t *testing.T) {
	cfg := config.Default()
	cfg.Population.Initial = 50
	half := cfg.World.HalfExtent
	bounds := systems.Bounds{HalfExtent: half}

	obstacle := systems.BoxObstacle{Bounds: systems.AABB{
		Min: r3.Vec{X: -20, Y: -half, Z: -20},
		Max: r3.Vec{X: 20, Y: 0, Z: 20},
	}}
	s := newTestShoal(t, cfg, Options{Obstacle: obstacle})

	threat := &systems.PointThreat{}
	s.AddThreat(threat)

	maxPanicSpeed := cfg.Agent.MaxSpeed * cfg.Danger.PanicSpeedMultiplier
	for tick := 0; tick < 1000; tick++ {
		// Sweep the threat through the population.
		angle := float64(tick) * 0.05
		threat.Pos = r3.Vec{X: 80 * math.Cos(angle), Y: -100, Z: 80 * math.Sin(angle)}

		s.Update(1.0 / 30.0)

		for i := 0; i < s.Len(); i++ {
			st := s.AgentState(i)
			if !finiteVec(st.Position) || !finiteVec(st.Velocity) {
				t.Fatalf("tick %d agent %d non-finite state: %+v", tick, i, st)
			}
			if !bounds.Contains(st.Position) {
				t.Fatalf("tick %d agent %d out of bounds: %v", tick, i, st.Position)
			}
			speed := r3.Norm(st.Velocity)
			limit := cfg.Agent.MaxSpeed
			if st.Panic {
				limit = maxPanicSpeed
			}
			if speed > limit+1e-6 {
				t.Fatalf("tick %d agent %d speed %f exceeds %f", tick, i, speed, limit)
			}
		}
	}
}

// TestDTClamp verifies a stalled frame cannot blow up the integration: a
// huge dt behaves exactly like max_dt.
func TestDTClamp(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 2
	rng := rand.New(rand.NewSource(9))

	a := newTestShoal(t, cfg, Options{RNG: rng})
	b := newTestShoal(t, cfg, Options{RNG: rand.New(rand.NewSource(9))})

	for i := 0; i < 2; i++ {
		st := a.AgentState(i)
		place(b, i, st.Position, st.Velocity)
		place(a, i, st.Position, st.Velocity)
	}

	a.Update(10.0) // stalled frame
	b.Update(cfg.Physics.MaxDT)

	for i := 0; i < 2; i++ {
		if a.AgentState(i).Position != b.AgentState(i).Position {
			t.Fatalf("agent %d: dt clamp mismatch: %v vs %v",
				i, a.AgentState(i).Position, b.AgentState(i).Position)
		}
	}
}

// TestSetParameters verifies live patching and rejection of invalid patches.
func TestSetParameters(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 1
	s := newTestShoal(t, cfg, Options{})

	sep := 30.0
	if err := s.SetParameters(Params{SeparationDistance: &sep}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	if s.Config().Flock.SeparationDistance != 30 {
		t.Fatalf("separation distance not applied: %f", s.Config().Flock.SeparationDistance)
	}
	if s.Config().Derived.AwarenessRadius != 30 {
		t.Fatalf("awareness radius not recomputed: %f", s.Config().Derived.AwarenessRadius)
	}

	bad := -5.0
	if err := s.SetParameters(Params{MaxSpeed: &bad}); err == nil {
		t.Fatal("negative max speed must be rejected")
	}
	if s.Config().Agent.MaxSpeed != cfg.Agent.MaxSpeed {
		t.Fatal("rejected patch must leave config untouched")
	}
}

// TestConfigOwnership verifies each shoal tunes independently: patching one
// engine must not leak into a sibling built from the same config, nor into
// the caller's struct.
func TestConfigOwnership(t *testing.T) {
	shared := quietConfig()
	shared.Population.Initial = 1

	a := newTestShoal(t, shared, Options{})
	b := newTestShoal(t, shared, Options{})

	speed := 99.0
	if err := a.SetParameters(Params{MaxSpeed: &speed}); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}

	if got := b.Config().Agent.MaxSpeed; got == 99 {
		t.Fatalf("patching one shoal changed a sibling's max speed to %f", got)
	}
	if shared.Agent.MaxSpeed == 99 {
		t.Fatal("patching a shoal wrote through to the caller's config")
	}
}

// recordingVisual captures transform writes from the sync phase.
type recordingVisual struct {
	pos, orient r3.Vec
	scale       float64
	animated    float64
}

func (v *recordingVisual) SetTransform(pos, orient r3.Vec, scale float64) {
	v.pos, v.orient, v.scale = pos, orient, scale
}

func (v *recordingVisual) Animate(dt float64) {
	v.animated += dt
}

// TestVisualSync verifies the core writes exactly position, orientation, and
// scale to the visual handle and drives optional animation.
func TestVisualSync(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 1

	var visuals []*recordingVisual
	factory := func() components.AgentVisual {
		v := &recordingVisual{}
		visuals = append(visuals, v)
		return v
	}
	s := newTestShoal(t, cfg, Options{VisualFactory: factory})

	if len(visuals) != 1 {
		t.Fatalf("factory called %d times, want 1", len(visuals))
	}

	place(s, 0, r3.Vec{X: 3}, r3.Vec{Z: 2})
	dt := 1.0 / 60.0
	s.Update(dt)

	st := s.AgentState(0)
	v := visuals[0]
	if v.pos != st.Position {
		t.Fatalf("visual position %v, agent at %v", v.pos, st.Position)
	}
	if v.scale != st.Scale {
		t.Fatalf("visual scale %f, want %f", v.scale, st.Scale)
	}
	if math.Abs(r3.Norm(v.orient)-1) > 1e-9 {
		t.Fatalf("orientation not unit length: %v", v.orient)
	}
	if v.animated != dt {
		t.Fatalf("Animate received %f, want %f", v.animated, dt)
	}
}

// TestBruteForceIndexOption verifies the shoal runs identically on the O(n)
// fallback index.
func TestBruteForceIndexOption(t *testing.T) {
	cfg := quietConfig()
	cfg.Population.Initial = 20

	grid := newTestShoal(t, cfg, Options{RNG: rand.New(rand.NewSource(3))})
	brute := newTestShoal(t, cfg, Options{
		RNG:   rand.New(rand.NewSource(3)),
		Index: systems.NewBruteForce(),
	})

	// Candidate ordering differs between the two indexes, so summation
	// order can introduce rounding noise. One tick keeps that below the
	// tolerance.
	grid.Update(1.0 / 60.0)
	brute.Update(1.0 / 60.0)
	for i := 0; i < grid.Len(); i++ {
		gp := grid.AgentState(i).Position
		bp := brute.AgentState(i).Position
		if d := r3.Norm(r3.Sub(gp, bp)); d > 1e-9 {
			t.Fatalf("agent %d diverged between indexes by %g", i, d)
		}
	}

	for tick := 0; tick < 100; tick++ {
		brute.Update(1.0 / 60.0)
	}
	for i := 0; i < brute.Len(); i++ {
		st := brute.AgentState(i)
		if !finiteVec(st.Position) || !finiteVec(st.Velocity) {
			t.Fatalf("agent %d non-finite on brute-force index: %+v", i, st)
		}
	}
}
