package components

import "gonum.org/v1/gonum/spatial/r3"

// AgentVisual is the transform seam between the simulation core and whatever
// renders an agent. The core writes position, orientation, and scale and
// touches nothing else.
type AgentVisual interface {
	SetTransform(position, orientation r3.Vec, scale float64)
}

// Animator is optionally implemented by visuals that advance an animation.
type Animator interface {
	Animate(dt float64)
}

// Visual binds an agent to its stable visual handle.
// Scale variance is sampled once at creation and never recomputed.
type Visual struct {
	Handle AgentVisual
	Scale  float64
}
