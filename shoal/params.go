package shoal

// Params is a partial configuration patch. Nil fields are left unchanged, so
// any distance, weight, speed, boundary, or danger field can be tuned
// independently at runtime.
type Params struct {
	BoundsMargin *float64
	BoundsWeight *float64

	MaxDT           *float64
	RebuildInterval *int

	MaxSpeed *float64
	MaxForce *float64

	SeparationDistance *float64
	AlignmentDistance  *float64
	CohesionDistance   *float64
	SeparationWeight   *float64
	AlignmentWeight    *float64
	CohesionWeight     *float64

	WanderStrength *float64
	WanderStep     *float64

	TerrainMargin   *float64
	TerrainMaxForce *float64
	TerrainWeight   *float64

	ObstacleMargin        *float64
	ObstacleProximityBand *float64
	ObstacleWeight        *float64

	EvasionRadius        *float64
	DetectionRadius      *float64
	EscapeStrength       *float64
	PreemptiveFactor     *float64
	PanicSpeedMultiplier *float64
	PanicDurationTicks   *int
}

// SetParameters applies a partial patch to the live configuration. The
// patched config is validated before it takes effect; on error the previous
// configuration is kept in full. Derived values and the cached obstacle box
// are recomputed on success.
func (s *Shoal) SetParameters(p Params) error {
	next := *s.cfg

	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setI := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setF(&next.World.BoundsMargin, p.BoundsMargin)
	setF(&next.World.BoundsWeight, p.BoundsWeight)

	setF(&next.Physics.MaxDT, p.MaxDT)
	setI(&next.Physics.RebuildInterval, p.RebuildInterval)

	setF(&next.Agent.MaxSpeed, p.MaxSpeed)
	setF(&next.Agent.MaxForce, p.MaxForce)

	setF(&next.Flock.SeparationDistance, p.SeparationDistance)
	setF(&next.Flock.AlignmentDistance, p.AlignmentDistance)
	setF(&next.Flock.CohesionDistance, p.CohesionDistance)
	setF(&next.Flock.SeparationWeight, p.SeparationWeight)
	setF(&next.Flock.AlignmentWeight, p.AlignmentWeight)
	setF(&next.Flock.CohesionWeight, p.CohesionWeight)

	setF(&next.Wander.Strength, p.WanderStrength)
	setF(&next.Wander.Step, p.WanderStep)

	setF(&next.Terrain.Margin, p.TerrainMargin)
	setF(&next.Terrain.MaxForce, p.TerrainMaxForce)
	setF(&next.Terrain.Weight, p.TerrainWeight)

	setF(&next.Obstacle.Margin, p.ObstacleMargin)
	setF(&next.Obstacle.ProximityBand, p.ObstacleProximityBand)
	setF(&next.Obstacle.Weight, p.ObstacleWeight)

	setF(&next.Danger.EvasionRadius, p.EvasionRadius)
	setF(&next.Danger.DetectionRadius, p.DetectionRadius)
	setF(&next.Danger.EscapeStrength, p.EscapeStrength)
	setF(&next.Danger.PreemptiveFactor, p.PreemptiveFactor)
	setF(&next.Danger.PanicSpeedMultiplier, p.PanicSpeedMultiplier)
	setI(&next.Danger.PanicDurationTicks, p.PanicDurationTicks)

	if err := next.Validate(); err != nil {
		return err
	}
	next.ComputeDerived()
	*s.cfg = next

	if s.hasObstacle {
		s.obstacleBox = s.obstacle.WorldBounds().Expanded(s.cfg.Obstacle.Margin)
	}
	return nil
}
