package systems

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestAABBExpanded(t *testing.T) {
	box := AABB{Min: r3.Vec{X: -1, Y: -2, Z: -3}, Max: r3.Vec{X: 1, Y: 2, Z: 3}}
	got := box.Expanded(2)

	want := AABB{Min: r3.Vec{X: -3, Y: -4, Z: -5}, Max: r3.Vec{X: 3, Y: 4, Z: 5}}
	if got != want {
		t.Fatalf("Expanded = %v, want %v", got, want)
	}
}

func TestAABBSurfaceDistance(t *testing.T) {
	box := AABB{Min: r3.Vec{X: -10, Y: -10, Z: -10}, Max: r3.Vec{X: 10, Y: 10, Z: 10}}

	tests := []struct {
		name string
		p    r3.Vec
		want float64
	}{
		{"inside", r3.Vec{X: 5}, 0},
		{"face", r3.Vec{X: 15}, 5},
		{"edge", r3.Vec{X: 13, Y: 14}, 5},
		{"corner", r3.Vec{X: 13, Y: 14, Z: 10}, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := box.SurfaceDistance(tc.p); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("SurfaceDistance(%v) = %f, want %f", tc.p, got, tc.want)
			}
		})
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{HalfExtent: 10}
	if !b.Contains(r3.Vec{X: 10, Y: -10, Z: 0}) {
		t.Fatal("wall positions are inside")
	}
	if b.Contains(r3.Vec{X: 10.01}) {
		t.Fatal("outside position reported inside")
	}
}

func TestFlatTerrain(t *testing.T) {
	f := FlatTerrain{Level: -30}
	s := f.SampleAt(100, -200)
	if s.Height != -30 || s.InclineX != 0 || s.InclineZ != 0 {
		t.Fatalf("unexpected sample %+v", s)
	}
}
