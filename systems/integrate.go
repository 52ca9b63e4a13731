package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
)

// IntegrateParams is the per-tick slice of configuration the integrator
// needs. The Shoal rebuilds it whenever parameters change.
type IntegrateParams struct {
	MaxSpeed           float64
	PanicMultiplier    float64
	PanicDurationTicks int
	Bounds             Bounds
}

// Integrate advances one agent by one fixed step. It is the sole writer of
// position, velocity, and panic state: the panic timer is decremented (and
// cleared at zero), a fresh trigger resets it to the full duration, velocity
// picks up the tick's acceleration and is clamped to the effective max speed
// (boosted while panicking), and the position update is backed by the hard
// containment clamp. The soft containment push has already been applied as a
// force; the clamp here flips and damps the offending velocity component so
// the boundary invariant holds under any overshoot.
func Integrate(pos *components.Position, vel *components.Velocity, beh *components.Behavior, accel r3.Vec, panicTriggered bool, p IntegrateParams, dt float64) {
	if beh.PanicTicks > 0 {
		beh.PanicTicks--
		if beh.PanicTicks == 0 {
			beh.Panic = false
		}
	}
	if panicTriggered {
		// Re-trigger resets the countdown rather than accumulating it.
		beh.Panic = true
		beh.PanicTicks = p.PanicDurationTicks
	}

	vel.Vec = r3.Add(vel.Vec, r3.Scale(dt, accel))

	maxSpeed := p.MaxSpeed
	if beh.Panic {
		maxSpeed *= p.PanicMultiplier
	}
	vel.Vec = limit(vel.Vec, maxSpeed)

	pos.Vec = r3.Add(pos.Vec, r3.Scale(dt, vel.Vec))

	half := p.Bounds.HalfExtent
	pos.X, vel.X = axisClamp(pos.X, vel.X, half)
	pos.Y, vel.Y = axisClamp(pos.Y, vel.Y, half)
	pos.Z, vel.Z = axisClamp(pos.Z, vel.Z, half)
}

// axisClamp pins one axis to the wall and bounces the velocity component.
func axisClamp(p, v, half float64) (float64, float64) {
	if p > half {
		return half, -v * 0.5
	}
	if p < -half {
		return -half, -v * 0.5
	}
	return p, v
}
