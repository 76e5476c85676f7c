// Package scaler applies a constant multiplier to voxel results.
//
// Errors in a mesh tally are relative, so scaling a mean leaves its error
// unchanged. Only value arrays pass through a [Scaler].
package scaler

import (
	"math"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
)

// Default is the multiplier used when none is given.
const Default = 1.0

// Scaler multiplies value arrays by a validated constant.
type Scaler struct {
	factor float64
}

// New returns a Scaler for k. Zero, NaN and infinite multipliers are rejected
// with a configuration error.
func New(k float64) (Scaler, error) {
	if err := Validate(k); err != nil {
		return Scaler{}, err
	}
	return Scaler{factor: k}, nil
}

// Validate reports whether k is usable as a multiplier.
func Validate(k float64) error {
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return errors.New(errors.ErrCodeConfiguration, "scale factor must be finite, got %g", k)
	}
	if k == 0 {
		return errors.New(errors.ErrCodeConfiguration, "scale factor must be non-zero")
	}
	return nil
}

// Factor returns the multiplier. The zero Scaler reports 1.
func (s Scaler) Factor() float64 {
	if s.factor == 0 {
		return Default
	}
	return s.factor
}

// IsIdentity reports whether Apply leaves values unchanged.
func (s Scaler) IsIdentity() bool {
	return s.Factor() == 1
}

// Apply returns a scaled copy of values. The input is never modified.
func (s Scaler) Apply(values []float64) []float64 {
	out := make([]float64, len(values))
	k := s.Factor()
	for i, v := range values {
		out[i] = v * k
	}
	return out
}
