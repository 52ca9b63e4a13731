// Package systems provides the simulation subsystems driven by the Shoal:
// spatial indexing, steering-force composition, and integration.
package systems

import "gonum.org/v1/gonum/spatial/r3"

// Index answers "which agents lie within radius r of a point" over a
// position snapshot. Implementations may return near-false-positives;
// callers filter by exact current distance. The snapshot is refreshed by
// Rebuild at the cadence the Shoal chooses, so results can be a few ticks
// stale.
type Index interface {
	// Rebuild recomputes the structure from a snapshot of agent positions.
	// Index i in the snapshot is the agent's slot in the shoal.
	Rebuild(positions []r3.Vec)

	// QueryRadiusInto appends the indices of candidate agents within radius
	// of center to dst and returns the updated slice. exclude is skipped;
	// pass a negative value to keep every candidate. Reuse dst across calls
	// to avoid allocations.
	QueryRadiusInto(dst []int, center r3.Vec, radius float64, exclude int) []int
}

// CellGrid is a uniform grid over the world cube. Cells clamp at the walls
// (the world is bounded, not toroidal).
type CellGrid struct {
	cellSize float64
	origin   float64 // -halfExtent; world minimum on every axis
	dim      int     // cells per axis
	cells    [][]int
	snapshot []r3.Vec
}

// NewCellGrid creates a grid covering [-halfExtent, halfExtent] per axis.
func NewCellGrid(halfExtent, cellSize float64) *CellGrid {
	dim := int(2*halfExtent/cellSize) + 1
	cells := make([][]int, dim*dim*dim)
	return &CellGrid{
		cellSize: cellSize,
		origin:   -halfExtent,
		dim:      dim,
		cells:    cells,
	}
}

// Rebuild drops the previous structure and re-inserts every position.
func (g *CellGrid) Rebuild(positions []r3.Vec) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.snapshot = append(g.snapshot[:0], positions...)
	for i, p := range positions {
		idx := g.cellIndex(p)
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// QueryRadiusInto scans the cell neighborhood covering the query sphere and
// filters candidates by snapshot distance.
func (g *CellGrid) QueryRadiusInto(dst []int, center r3.Vec, radius float64, exclude int) []int {
	cellRadius := int(radius/g.cellSize) + 1
	cx := g.axisCell(center.X)
	cy := g.axisCell(center.Y)
	cz := g.axisCell(center.Z)
	radiusSq := radius * radius

	for dx := -cellRadius; dx <= cellRadius; dx++ {
		x := cx + dx
		if x < 0 || x >= g.dim {
			continue
		}
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			y := cy + dy
			if y < 0 || y >= g.dim {
				continue
			}
			for dz := -cellRadius; dz <= cellRadius; dz++ {
				z := cz + dz
				if z < 0 || z >= g.dim {
					continue
				}
				for _, i := range g.cells[(x*g.dim+y)*g.dim+z] {
					if i == exclude {
						continue
					}
					d := r3.Sub(g.snapshot[i], center)
					if d.X*d.X+d.Y*d.Y+d.Z*d.Z <= radiusSq {
						dst = append(dst, i)
					}
				}
			}
		}
	}
	return dst
}

// axisCell returns the clamped cell coordinate for one axis value.
func (g *CellGrid) axisCell(v float64) int {
	c := int((v - g.origin) / g.cellSize)
	if c < 0 {
		c = 0
	} else if c >= g.dim {
		c = g.dim - 1
	}
	return c
}

// cellIndex returns the flat index for a world position.
func (g *CellGrid) cellIndex(p r3.Vec) int {
	return (g.axisCell(p.X)*g.dim+g.axisCell(p.Y))*g.dim + g.axisCell(p.Z)
}

// BruteForce is the O(n) fallback index. Behavior matches CellGrid up to
// floating-point order, so correctness never depends on the grid.
type BruteForce struct {
	snapshot []r3.Vec
}

// NewBruteForce creates an empty brute-force index.
func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Rebuild copies the position snapshot.
func (b *BruteForce) Rebuild(positions []r3.Vec) {
	b.snapshot = append(b.snapshot[:0], positions...)
}

// QueryRadiusInto scans every snapshot position.
func (b *BruteForce) QueryRadiusInto(dst []int, center r3.Vec, radius float64, exclude int) []int {
	radiusSq := radius * radius
	for i, p := range b.snapshot {
		if i == exclude {
			continue
		}
		d := r3.Sub(p, center)
		if d.X*d.X+d.Y*d.Y+d.Z*d.Z <= radiusSq {
			dst = append(dst, i)
		}
	}
	return dst
}
