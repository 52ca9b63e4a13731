package components

// Behavior holds an agent's persistent behavioral state.
type Behavior struct {
	WanderAngle float64 // Evolves as a bounded random walk, one step per tick
	Panic       bool
	PanicTicks  int // Remaining panic ticks; cleared at zero, reset on re-trigger
}
