package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/config"
)

// Steering-force contributions. Each function is pure: it reads the tick-start
// snapshot and the environment and returns a force, writing no agent state.
// The Shoal sums the five behavior contributions, clamps the total to
// 2x max force, and hands it to the integrator as this tick's acceleration.

// FlockForce computes the classic Reynolds triple: separation, alignment,
// cohesion. candidates come from one index query at the awareness radius
// (the max of the three behavior distances) and are filtered here by exact
// current distance; each behavior then admits only the neighbors inside its
// own distance. Per behavior: average the accumulator, scale the desired
// velocity to max speed, convert to a steering delta, and cap it at that
// behavior's weight.
func FlockForce(self int, candidates []int, positions, velocities []r3.Vec, flock config.FlockConfig, maxSpeed float64) r3.Vec {
	pos := positions[self]
	vel := velocities[self]

	var sepSum, velSum, posSum r3.Vec
	var sepN, alignN, cohN int

	sepSq := flock.SeparationDistance * flock.SeparationDistance
	alignSq := flock.AlignmentDistance * flock.AlignmentDistance
	cohSq := flock.CohesionDistance * flock.CohesionDistance

	for _, i := range candidates {
		if i == self {
			continue
		}
		diff := r3.Sub(pos, positions[i])
		distSq := diff.X*diff.X + diff.Y*diff.Y + diff.Z*diff.Z

		// Repulsion falls off as 1/distance; co-located agents contribute
		// nothing rather than a NaN.
		if distSq < sepSq && distSq > 1e-12 {
			dist := math.Sqrt(distSq)
			sepSum = r3.Add(sepSum, r3.Scale(1/(dist*dist), diff))
			sepN++
		}
		if distSq < alignSq {
			velSum = r3.Add(velSum, velocities[i])
			alignN++
		}
		if distSq < cohSq {
			posSum = r3.Add(posSum, positions[i])
			cohN++
		}
	}

	var total r3.Vec
	if sepN > 0 {
		desired := scaleTo(r3.Scale(1/float64(sepN), sepSum), maxSpeed)
		total = r3.Add(total, steer(desired, vel, flock.SeparationWeight))
	}
	if alignN > 0 {
		desired := scaleTo(r3.Scale(1/float64(alignN), velSum), maxSpeed)
		total = r3.Add(total, steer(desired, vel, flock.AlignmentWeight))
	}
	if cohN > 0 {
		center := r3.Scale(1/float64(cohN), posSum)
		desired := scaleTo(r3.Sub(center, pos), maxSpeed)
		total = r3.Add(total, steer(desired, vel, flock.CohesionWeight))
	}
	return total
}

// steer converts a desired velocity into a weight-capped steering delta.
// A degenerate desired velocity yields no contribution.
func steer(desired, vel r3.Vec, weight float64) r3.Vec {
	if desired == (r3.Vec{}) {
		return r3.Vec{}
	}
	return limit(r3.Sub(desired, vel), weight)
}

// WanderForce advances the persistent wander angle by step (drawn by the
// caller from the injected RNG, bounded to [-cfg.Step, cfg.Step]) and returns
// the horizontal drift offset plus the new angle. The caller commits the
// angle during integration.
func WanderForce(angle, step float64, wander config.WanderConfig) (r3.Vec, float64) {
	next := angle + step
	if next > math.Pi {
		next -= 2 * math.Pi
	}
	if next < -math.Pi {
		next += 2 * math.Pi
	}
	force := r3.Vec{
		X: math.Cos(next) * wander.Strength,
		Z: math.Sin(next) * wander.Strength,
	}
	return force, next
}

// TerrainForce pushes an agent up and out of the terrain keep-above band.
// The ramp is quadratic in penetration so the correction is negligible near
// the threshold and stiff when deeply submerged, capped at cfg.MaxForce.
// The push tilts along the surface normal so agents slide off inclines.
func TerrainForce(pos r3.Vec, sample TerrainSample, terrain config.TerrainConfig) r3.Vec {
	floor := sample.Height + terrain.Margin
	if pos.Y >= floor {
		return r3.Vec{}
	}
	ratio := (floor - pos.Y) / terrain.Margin
	mag := ratio * ratio * terrain.Weight
	if mag > terrain.MaxForce {
		mag = terrain.MaxForce
	}
	dir := safeUnit(r3.Vec{X: -sample.InclineX, Y: 1, Z: -sample.InclineZ})
	if dir == (r3.Vec{}) {
		dir = r3.Vec{Y: 1}
	}
	return r3.Scale(mag, dir)
}

// ObstacleForce keeps agents clear of the margin-expanded obstacle box.
// Inside the box the push exits through the nearest face, quadratic in
// penetration depth; outside but within the proximity band a gentler radial
// push away from the box center ramps linearly with closeness. The split
// avoids a force step exactly at the surface.
func ObstacleForce(pos r3.Vec, box AABB, obstacle config.ObstacleConfig) r3.Vec {
	if box.Contains(pos) {
		center := box.Center()
		half := box.HalfExtents()
		off := r3.Sub(pos, center)

		// Penetration depth through each face pair; the smallest wins.
		penX := half.X - math.Abs(off.X)
		penY := half.Y - math.Abs(off.Y)
		penZ := half.Z - math.Abs(off.Z)

		pen, halfAxis := penX, half.X
		dir := r3.Vec{X: sign(off.X)}
		if penY < pen {
			pen, halfAxis = penY, half.Y
			dir = r3.Vec{Y: sign(off.Y)}
		}
		if penZ < pen {
			pen, halfAxis = penZ, half.Z
			dir = r3.Vec{Z: sign(off.Z)}
		}
		if halfAxis < 1e-12 {
			return r3.Vec{}
		}
		ratio := pen / halfAxis
		return r3.Scale(ratio*ratio*obstacle.Weight, dir)
	}

	if obstacle.ProximityBand <= 0 {
		return r3.Vec{}
	}
	dist := box.SurfaceDistance(pos)
	if dist >= obstacle.ProximityBand {
		return r3.Vec{}
	}
	proximity := 1 - dist/obstacle.ProximityBand
	away := safeUnit(r3.Sub(pos, box.Center()))
	return r3.Scale(proximity*obstacle.Weight*0.5, away)
}

// sign returns the sign of v, treating exact zero as positive so an agent at
// dead center still exits through a face.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// EvadeForce flees the closest visible threat. Inside the evasion radius the
// escape force is away x urgency^2 x strength; closing within half that
// radius additionally triggers panic. A threat inside the wider detection
// radius but outside the evasion radius earns a smaller preemptive steer.
func EvadeForce(pos r3.Vec, threats []r3.Vec, danger config.DangerConfig, panicTrigger float64) (force r3.Vec, panicked bool) {
	closest := -1
	closestSq := math.Inf(1)
	for i, t := range threats {
		d := r3.Sub(pos, t)
		distSq := d.X*d.X + d.Y*d.Y + d.Z*d.Z
		if distSq < closestSq {
			closestSq = distSq
			closest = i
		}
	}
	if closest < 0 || closestSq >= danger.DetectionRadius*danger.DetectionRadius {
		return r3.Vec{}, false
	}

	dist := math.Sqrt(closestSq)
	away := safeUnit(r3.Sub(pos, threats[closest]))

	if dist < danger.EvasionRadius {
		urgency := 1 - dist/danger.EvasionRadius
		force = r3.Scale(urgency*urgency*danger.EscapeStrength, away)
		panicked = dist < panicTrigger
		return force, panicked
	}

	// No immediate threat, but one is looming: steer off early instead of
	// waiting for it to close.
	proximity := 1 - dist/danger.DetectionRadius
	return r3.Scale(proximity*danger.EscapeStrength*danger.PreemptiveFactor, away), false
}

// ContainForce is the soft stage of boundary containment: a linear push back
// toward the interior, proportional to penetration into the margin band
// inside each wall. The hard clamp in the integrator backs it up.
func ContainForce(pos r3.Vec, world config.WorldConfig) r3.Vec {
	inner := world.HalfExtent - world.BoundsMargin
	var f r3.Vec
	f.X = axisContain(pos.X, inner, world.BoundsWeight)
	f.Y = axisContain(pos.Y, inner, world.BoundsWeight)
	f.Z = axisContain(pos.Z, inner, world.BoundsWeight)
	return f
}

// axisContain returns the corrective push for one axis.
func axisContain(v, inner, weight float64) float64 {
	if v > inner {
		return -(v - inner) * weight
	}
	if v < -inner {
		return (-inner - v) * weight
	}
	return 0
}
