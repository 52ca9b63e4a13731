package shoal

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// Update advances the whole population by one tick. dt is clamped to
// physics.max_dt regardless of the actual elapsed frame time; the explicit
// Euler scheme is only stable under bounded steps, and a frame stall must
// not let separation or evasion forces overshoot into divergence.
//
// The tick is three strict phases over the tick-start snapshot: force
// composition (reads only), integration (the sole writer of position,
// velocity, and panic state), and visual sync.
func (s *Shoal) Update(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > s.cfg.Physics.MaxDT {
		dt = s.cfg.Physics.MaxDT
	}

	s.perf.StartTick()

	n := len(s.agents)
	s.growScratch(n)

	for i, e := range s.agents {
		s.positions[i] = s.posMap.Get(e).Vec
		s.velocities[i] = s.velMap.Get(e).Vec
	}

	s.perf.StartPhase(telemetry.PhaseSpatialIndex)
	if s.indexDirty || s.tick%s.cfg.Physics.RebuildInterval == 0 {
		s.index.Rebuild(s.positions[:n])
		s.indexDirty = false
	}

	s.perf.StartPhase(telemetry.PhaseForces)
	s.composeForces(n)

	s.perf.StartPhase(telemetry.PhaseIntegrate)
	params := systems.IntegrateParams{
		MaxSpeed:           s.cfg.Agent.MaxSpeed,
		PanicMultiplier:    s.cfg.Danger.PanicSpeedMultiplier,
		PanicDurationTicks: s.cfg.Danger.PanicDurationTicks,
		Bounds:             systems.Bounds{HalfExtent: s.cfg.World.HalfExtent},
	}
	for i, e := range s.agents {
		pos := s.posMap.Get(e)
		vel := s.velMap.Get(e)
		beh := s.behMap.Get(e)
		accel := s.accelMap.Get(e)

		beh.WanderAngle = s.wanderNext[i]
		accel.Vec = s.accels[i]
		systems.Integrate(pos, vel, beh, s.accels[i], s.panicHits[i], params, dt)
	}

	s.perf.StartPhase(telemetry.PhaseVisuals)
	s.syncVisuals(dt)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordTick(dt)
	s.tick++
	if s.collector.ShouldFlush(s.tick) {
		s.flushStats()
	}
	s.perf.EndTick()
}

// composeForces fills the acceleration, wander, and panic staging buffers
// from the tick-start snapshot. No agent state is written here.
func (s *Shoal) composeForces(n int) {
	cfg := s.cfg

	s.threatPos = s.threatPos[:0]
	for _, t := range s.threats {
		if t.IsVisible() {
			s.threatPos = append(s.threatPos, t.WorldPosition())
		}
	}

	aware := cfg.Derived.AwarenessRadius
	maxTotal := 2 * cfg.Agent.MaxForce

	for i := 0; i < n; i++ {
		pos := s.positions[i]

		s.queryBuf = s.queryBuf[:0]
		s.queryBuf = s.index.QueryRadiusInto(s.queryBuf, pos, aware, i)
		force := systems.FlockForce(i, s.queryBuf, s.positions[:n], s.velocities[:n], cfg.Flock, cfg.Agent.MaxSpeed)

		beh := s.behMap.Get(s.agents[i])
		step := (s.rng.Float64()*2 - 1) * cfg.Wander.Step
		wander, nextAngle := systems.WanderForce(beh.WanderAngle, step, cfg.Wander)
		s.wanderNext[i] = nextAngle
		force = r3.Add(force, wander)

		sample := s.terrain.SampleAt(pos.X, pos.Z)
		force = r3.Add(force, systems.TerrainForce(pos, sample, cfg.Terrain))

		if s.hasObstacle {
			force = r3.Add(force, systems.ObstacleForce(pos, s.obstacleBox, cfg.Obstacle))
		}

		evade, panicked := systems.EvadeForce(pos, s.threatPos, cfg.Danger, cfg.Derived.PanicTrigger)
		force = r3.Add(force, evade)
		s.panicHits[i] = panicked
		if panicked {
			s.collector.RecordPanicTrigger()
		}

		accel := limitForce(force, maxTotal)
		// Boundary containment is added after the clamp so walls stay
		// authoritative under force saturation.
		accel = r3.Add(accel, systems.ContainForce(pos, cfg.World))
		s.accels[i] = accel
	}
}

// syncVisuals pushes transforms to the visual handles.
func (s *Shoal) syncVisuals(dt float64) {
	for _, e := range s.agents {
		vis := s.visMap.Get(e)
		if vis.Handle == nil {
			continue
		}
		pos := s.posMap.Get(e)
		vel := s.velMap.Get(e)
		vis.Handle.SetTransform(pos.Vec, orientation(vel.Vec), vis.Scale)
		if anim, ok := vis.Handle.(components.Animator); ok {
			anim.Animate(dt)
		}
	}
}

// flushStats closes the current telemetry window.
func (s *Shoal) flushStats() {
	s.speedBuf = s.speedBuf[:0]
	panicking := 0
	for _, e := range s.agents {
		vel := s.velMap.Get(e)
		s.speedBuf = append(s.speedBuf, r3.Norm(vel.Vec))
		if s.behMap.Get(e).Panic {
			panicking++
		}
	}
	stats := s.collector.Flush(s.tick, len(s.agents), panicking, s.speedBuf)
	if s.onStats != nil {
		s.onStats(stats, s.perf.Stats())
	}
}

// growScratch sizes the per-tick buffers for n agents.
func (s *Shoal) growScratch(n int) {
	if cap(s.positions) < n {
		s.positions = make([]r3.Vec, n)
		s.velocities = make([]r3.Vec, n)
		s.accels = make([]r3.Vec, n)
		s.wanderNext = make([]float64, n)
		s.panicHits = make([]bool, n)
	}
	s.positions = s.positions[:n]
	s.velocities = s.velocities[:n]
	s.accels = s.accels[:n]
	s.wanderNext = s.wanderNext[:n]
	s.panicHits = s.panicHits[:n]
}

// limitForce caps the summed behavior forces.
func limitForce(v r3.Vec, max float64) r3.Vec {
	n := r3.Norm(v)
	if n <= max || n == 0 {
		return v
	}
	return r3.Scale(max/n, v)
}

// orientation is the unit velocity, or zero when the agent is at rest (the
// visual keeps its previous facing in that case).
func orientation(vel r3.Vec) r3.Vec {
	n := r3.Norm(vel)
	if n < 1e-9 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, vel)
}
