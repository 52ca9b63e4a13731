package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents an agent's world position.
type Position struct {
	r3.Vec
}

// Velocity represents an agent's velocity.
type Velocity struct {
	r3.Vec
}

// Acceleration accumulates the steering forces applied this tick.
// Reset to zero at the start of every tick.
type Acceleration struct {
	r3.Vec
}
