// Package terrain provides the default terrain height field for the
// simulation: fractal Brownian motion over simplex noise. Hosts with real
// terrain meshes supply their own systems.TerrainSampler instead.
package terrain

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/shoal/systems"
)

// Params shapes the noise field.
type Params struct {
	Scale      float64 // Base noise frequency
	Octaves    int     // FBM octaves (detail level)
	Lacunarity float64 // Frequency multiplier per octave
	Gain       float64 // Amplitude multiplier per octave
	Amplitude  float64 // Peak-to-valley height range
	BaseLevel  float64 // Height offset of the mean surface
}

// DefaultParams returns a gently rolling seabed.
func DefaultParams() Params {
	return Params{
		Scale:      0.004,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
		Amplitude:  60.0,
		BaseLevel:  -200.0,
	}
}

// Simplex samples a deterministic height field. Identical seeds and params
// produce identical terrain.
type Simplex struct {
	noise  opensimplex.Noise
	params Params
}

// NewSimplex creates a sampler for the given seed.
func NewSimplex(seed int64, params Params) *Simplex {
	if params.Octaves < 1 {
		params.Octaves = 1
	}
	return &Simplex{
		noise:  opensimplex.New(seed),
		params: params,
	}
}

// SampleAt returns the surface height and incline under (x, z). Inclines are
// central differences over one sample step, so they stay consistent with the
// heights the avoidance force sees.
func (s *Simplex) SampleAt(x, z float64) systems.TerrainSample {
	const step = 1.0
	h := s.heightAt(x, z)
	return systems.TerrainSample{
		Height:   h,
		InclineX: (s.heightAt(x+step, z) - s.heightAt(x-step, z)) / (2 * step),
		InclineZ: (s.heightAt(x, z+step) - s.heightAt(x, z-step)) / (2 * step),
	}
}

// heightAt evaluates the fBm stack at one point.
func (s *Simplex) heightAt(x, z float64) float64 {
	p := s.params
	freq := p.Scale
	amp := 1.0
	sum := 0.0
	norm := 0.0
	for i := 0; i < p.Octaves; i++ {
		sum += s.noise.Eval2(x*freq, z*freq) * amp
		norm += amp
		freq *= p.Lacunarity
		amp *= p.Gain
	}
	return p.BaseLevel + sum/norm*p.Amplitude*0.5
}
