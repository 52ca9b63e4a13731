// Package shoal drives a flocking agent population: the ECS agent pool,
// per-tick steering and integration, boundary containment, population
// management, and the threat registry.
package shoal

import (
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/shoal/components"
	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/systems"
	"github.com/pthm-cable/shoal/telemetry"
)

// Options configures a new Shoal. The zero value gives a shoal with flat
// terrain at the world floor, no obstacle, no visuals, a fresh-entropy RNG,
// and a cell-grid spatial index.
type Options struct {
	Seed int64      // RNG seed; 0 means fresh entropy
	RNG  *rand.Rand // Overrides Seed when set (deterministic tests)

	Terrain       systems.TerrainSampler
	Obstacle      systems.Obstacle
	VisualFactory func() components.AgentVisual
	Index         systems.Index

	// OnStats receives each completed telemetry window.
	OnStats func(telemetry.WindowStats, telemetry.PerfStats)
}

// Shoal owns one homogeneous agent population and its shared configuration.
type Shoal struct {
	world *ecs.World
	rng   *rand.Rand
	cfg   *config.Config

	mapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Acceleration,
		components.Behavior,
		components.Visual,
	]
	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	accelMap *ecs.Map1[components.Acceleration]
	behMap   *ecs.Map1[components.Behavior]
	visMap   *ecs.Map1[components.Visual]

	// agents holds entities in creation order; removal pops the tail, so an
	// agent's slot never renumbers underneath a held index within a tick.
	agents []ecs.Entity

	index      systems.Index
	indexDirty bool

	terrain       systems.TerrainSampler
	obstacle      systems.Obstacle
	obstacleBox   systems.AABB // margin-expanded, cached once
	hasObstacle   bool
	threats       []systems.Threat
	visualFactory func() components.AgentVisual

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	onStats   func(telemetry.WindowStats, telemetry.PerfStats)

	tick int

	// Tick-scoped scratch buffers, reused across updates.
	positions  []r3.Vec
	velocities []r3.Vec
	accels     []r3.Vec
	wanderNext []float64
	panicHits  []bool
	threatPos  []r3.Vec
	queryBuf   []int
	speedBuf   []float64
}

// New creates a shoal and spawns the initial population. cfg nil means the
// embedded defaults; a provided config is validated here so the per-tick
// path can trust it. The shoal keeps its own copy, so SetParameters never
// writes through to the caller's struct and two shoals built from one config
// tune independently.
func New(cfg *config.Config, opts Options) (*Shoal, error) {
	if cfg == nil {
		cfg = config.Default()
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		own := *cfg
		cfg = &own
		cfg.ComputeDerived()
	}

	rng := opts.RNG
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	world := ecs.NewWorld()
	s := &Shoal{
		world: world,
		rng:   rng,
		cfg:   cfg,
		mapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Acceleration,
			components.Behavior,
			components.Visual,
		](world),
		posMap:        ecs.NewMap1[components.Position](world),
		velMap:        ecs.NewMap1[components.Velocity](world),
		accelMap:      ecs.NewMap1[components.Acceleration](world),
		behMap:        ecs.NewMap1[components.Behavior](world),
		visMap:        ecs.NewMap1[components.Visual](world),
		terrain:       opts.Terrain,
		obstacle:      opts.Obstacle,
		visualFactory: opts.VisualFactory,
		index:         opts.Index,
		onStats:       opts.OnStats,
	}

	if s.terrain == nil {
		s.terrain = systems.FlatTerrain{Level: -cfg.World.HalfExtent}
	}
	if s.index == nil {
		s.index = systems.NewCellGrid(cfg.World.HalfExtent, cfg.Physics.GridCellSize)
	}
	if s.obstacle != nil {
		s.obstacleBox = s.obstacle.WorldBounds().Expanded(cfg.Obstacle.Margin)
		s.hasObstacle = true
	}

	s.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindowTicks)
	s.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	s.AddAgents(cfg.Population.Initial)

	return s, nil
}

// Len returns the current population size.
func (s *Shoal) Len() int {
	return len(s.agents)
}

// Tick returns the number of completed update calls.
func (s *Shoal) Tick() int {
	return s.tick
}

// Config returns the live configuration. Mutate it only through
// SetParameters.
func (s *Shoal) Config() *config.Config {
	return s.cfg
}

// AddThreat registers a threat. Invisible threats are ignored by the force
// composer until they become visible again.
func (s *Shoal) AddThreat(t systems.Threat) {
	s.threats = append(s.threats, t)
}

// RemoveThreat unregisters a threat. Unknown threats are a no-op.
func (s *Shoal) RemoveThreat(t systems.Threat) {
	for i, existing := range s.threats {
		if existing == t {
			s.threats = append(s.threats[:i], s.threats[i+1:]...)
			return
		}
	}
}

// AgentState is a read-only kinematic and behavioral snapshot of one agent.
type AgentState struct {
	Position    r3.Vec
	Velocity    r3.Vec
	WanderAngle float64
	Panic       bool
	PanicTicks  int
	Scale       float64
}

// AgentState returns the state of the agent in slot i. Slots are stable
// across ticks but not across RemoveAgents.
func (s *Shoal) AgentState(i int) AgentState {
	e := s.agents[i]
	pos := s.posMap.Get(e)
	vel := s.velMap.Get(e)
	beh := s.behMap.Get(e)
	vis := s.visMap.Get(e)
	return AgentState{
		Position:    pos.Vec,
		Velocity:    vel.Vec,
		WanderAngle: beh.WanderAngle,
		Panic:       beh.Panic,
		PanicTicks:  beh.PanicTicks,
		Scale:       vis.Scale,
	}
}
