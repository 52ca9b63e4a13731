package systems

import "gonum.org/v1/gonum/spatial/r3"

// Environment collaborators consumed by the force composer. The simulation
// core never owns these; the host supplies them and may swap them at runtime
// (threats) or fix them for the lifetime of a shoal (terrain, obstacle).

// Bounds is the walled world cube [-HalfExtent, HalfExtent] on every axis.
type Bounds struct {
	HalfExtent float64
}

// Contains reports whether p lies inside the cube.
func (b Bounds) Contains(p r3.Vec) bool {
	h := b.HalfExtent
	return p.X >= -h && p.X <= h && p.Y >= -h && p.Y <= h && p.Z >= -h && p.Z <= h
}

// TerrainSample is the surface height and incline under a world XZ point.
type TerrainSample struct {
	Height   float64
	InclineX float64
	InclineZ float64
}

// TerrainSampler answers terrain height queries for avoidance and spawning.
type TerrainSampler interface {
	SampleAt(x, z float64) TerrainSample
}

// FlatTerrain is a constant-height sampler. The zero value is a flat floor
// at height zero.
type FlatTerrain struct {
	Level float64
}

// SampleAt returns the constant floor height with zero incline.
func (f FlatTerrain) SampleAt(x, z float64) TerrainSample {
	return TerrainSample{Height: f.Level}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max r3.Vec
}

// Expanded returns the box grown by margin on every face.
func (b AABB) Expanded(margin float64) AABB {
	m := r3.Vec{X: margin, Y: margin, Z: margin}
	return AABB{Min: r3.Sub(b.Min, m), Max: r3.Add(b.Max, m)}
}

// Center returns the box center.
func (b AABB) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// HalfExtents returns the half-widths of the box per axis.
func (b AABB) HalfExtents() r3.Vec {
	return r3.Scale(0.5, r3.Sub(b.Max, b.Min))
}

// Contains reports whether p lies inside the box.
func (b AABB) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// SurfaceDistance returns the distance from p to the box surface, or zero
// when p is inside.
func (b AABB) SurfaceDistance(p r3.Vec) float64 {
	dx := clamp(p.X, b.Min.X, b.Max.X) - p.X
	dy := clamp(p.Y, b.Min.Y, b.Max.Y) - p.Y
	dz := clamp(p.Z, b.Min.Z, b.Max.Z) - p.Z
	return r3.Norm(r3.Vec{X: dx, Y: dy, Z: dz})
}

// Obstacle is one static volume agents must steer around.
type Obstacle interface {
	WorldBounds() AABB
}

// BoxObstacle is the trivial Obstacle over a fixed box.
type BoxObstacle struct {
	Bounds AABB
}

// WorldBounds returns the fixed box.
func (o BoxObstacle) WorldBounds() AABB { return o.Bounds }

// Threat is anything agents flee from. Predators may appear and disappear,
// so visibility is checked every tick.
type Threat interface {
	WorldPosition() r3.Vec
	IsVisible() bool
}

// PointThreat is a fixed threat position, mainly for tests and tooling.
type PointThreat struct {
	Pos    r3.Vec
	Hidden bool
}

// WorldPosition returns the threat position.
func (t *PointThreat) WorldPosition() r3.Vec { return t.Pos }

// IsVisible reports whether agents can perceive the threat.
func (t *PointThreat) IsVisible() bool { return !t.Hidden }
