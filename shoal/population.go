package shoal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
)

// AddAgents spawns n agents at sampled positions. Agents are created only
// here; nothing spawns implicitly during a tick.
func (s *Shoal) AddAgents(n int) {
	for i := 0; i < n; i++ {
		s.createAgent()
	}
	if n > 0 {
		s.indexDirty = true
		s.collector.RecordAdd(n)
	}
}

// RemoveAgents removes n agents from the tail of the collection, O(1) per
// agent with no slot renumbering. Requests beyond the current population
// clamp to it; removing from an empty shoal is a no-op.
func (s *Shoal) RemoveAgents(n int) {
	if n > len(s.agents) {
		n = len(s.agents)
	}
	if n <= 0 {
		return
	}
	for i := 0; i < n; i++ {
		last := len(s.agents) - 1
		s.world.RemoveEntity(s.agents[last])
		s.agents = s.agents[:last]
	}
	s.indexDirty = true
	s.collector.RecordRemove(n)
}

// createAgent spawns one agent. Size variance and the initial wander angle
// are drawn once here and never recomputed.
func (s *Shoal) createAgent() {
	spawn := s.spawnPosition()

	pos := components.Position{Vec: spawn}
	vel := components.Velocity{}
	accel := components.Acceleration{}
	beh := components.Behavior{
		WanderAngle: s.rng.Float64()*2*math.Pi - math.Pi,
	}

	scaleSpan := s.cfg.Agent.ScaleMax - s.cfg.Agent.ScaleMin
	vis := components.Visual{
		Scale: s.cfg.Agent.ScaleMin + s.rng.Float64()*scaleSpan,
	}
	if s.visualFactory != nil {
		vis.Handle = s.visualFactory()
	}

	e := s.mapper.NewEntity(&pos, &vel, &accel, &beh, &vis)
	s.agents = append(s.agents, e)
}

// spawnPosition samples uniformly over a disk around the world origin,
// rejecting positions inside the central dead zone. After MaxAttempts the
// last sample is accepted as-is; the search always terminates. Height comes
// from the terrain sampler.
func (s *Shoal) spawnPosition() r3.Vec {
	cfg := s.cfg.Spawn
	var x, z, radius float64
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		// sqrt keeps the disk sampling uniform by area.
		radius = cfg.Radius * math.Sqrt(s.rng.Float64())
		theta := s.rng.Float64() * 2 * math.Pi
		x = radius * math.Cos(theta)
		z = radius * math.Sin(theta)
		if radius >= cfg.DeadZone {
			break
		}
	}
	sample := s.terrain.SampleAt(x, z)
	return r3.Vec{X: x, Y: sample.Height + cfg.HeightAbove, Z: z}
}
