package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector helpers shared by the force and integration paths. Zero-length
// vectors are special-cased everywhere so no NaN can enter the pipeline.

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// safeUnit returns the unit vector of v, or the zero vector when v is
// degenerate.
func safeUnit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < 1e-12 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// scaleTo returns v rescaled to the given magnitude, or zero for a
// degenerate v.
func scaleTo(v r3.Vec, magnitude float64) r3.Vec {
	return r3.Scale(magnitude, safeUnit(v))
}

// limit caps the magnitude of v at max.
func limit(v r3.Vec, max float64) r3.Vec {
	n := r3.Norm(v)
	if n <= max || n < 1e-12 {
		return v
	}
	return r3.Scale(max/n, v)
}

// finite reports whether every component of v is a finite number.
func finite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
