package telemetry

// Collector accumulates events within tick windows and produces WindowStats.
// Simulated time comes from RecordTick, so variable step sizes accumulate
// correctly.
type Collector struct {
	windowTicks int

	windowStartTick int

	agentsAdded   int
	agentsRemoved int
	panicTriggers int

	simTime float64
}

// NewCollector creates a stats collector.
// windowTicks: how many ticks each stats window spans
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks: windowTicks,
	}
}

// RecordAdd records n agents joining the shoal.
func (c *Collector) RecordAdd(n int) {
	c.agentsAdded += n
}

// RecordRemove records n agents removed from the shoal.
func (c *Collector) RecordRemove(n int) {
	c.agentsRemoved += n
}

// RecordPanicTrigger records one panic activation (including re-triggers).
func (c *Collector) RecordPanicTrigger() {
	c.panicTriggers++
}

// RecordTick accumulates simulated time.
func (c *Collector) RecordTick(dt float64) {
	c.simTime += dt
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats snapshot and resets counters for the next
// window. speeds holds the per-agent speed magnitudes at window end.
func (c *Collector) Flush(currentTick, population, panicking int, speeds []float64) WindowStats {
	mean, std, p10, p50, p90 := ComputeSpeedStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      c.simTime,

		Population: population,
		Panicking:  panicking,

		AgentsAdded:   c.agentsAdded,
		AgentsRemoved: c.agentsRemoved,
		PanicTriggers: c.panicTriggers,

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,
	}

	c.windowStartTick = currentTick
	c.agentsAdded = 0
	c.agentsRemoved = 0
	c.panicTriggers = 0

	return stats
}

// WindowTicks returns the configured window length.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
