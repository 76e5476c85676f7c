package mesh

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
)

// GroupAxis describes the energy or time groups of a mesh.
type GroupAxis struct {
	// Bounds holds the upper bound of each bounded group, strictly
	// increasing. Energy bounds are in MeV, time bounds in shakes.
	Bounds []float64
	// Total declares a synthetic group summing all others at index
	// len(Bounds).
	Total bool
}

// Len returns the number of addressable group indices.
func (a GroupAxis) Len() int {
	if a.Total {
		return len(a.Bounds) + 1
	}
	return len(a.Bounds)
}

// TotalIndex returns the index of the Total group.
func (a GroupAxis) TotalIndex() (int, bool) {
	if !a.Total {
		return 0, false
	}
	return len(a.Bounds), true
}

// IsTotal reports whether idx addresses the Total group.
func (a GroupAxis) IsTotal(idx int) bool {
	t, ok := a.TotalIndex()
	return ok && idx == t
}

// Label returns a display label for idx: its upper bound, or "total".
func (a GroupAxis) Label(idx int) string {
	if a.IsTotal(idx) {
		return "total"
	}
	if idx < 0 || idx >= len(a.Bounds) {
		return "invalid"
	}
	return strconv.FormatFloat(a.Bounds[idx], 'g', 6, 64)
}

// String lists the group labels, e.g. "[1 20 100 total]".
func (a GroupAxis) String() string {
	labels := make([]string, a.Len())
	for i := range labels {
		labels[i] = a.Label(i)
	}
	return "[" + strings.Join(labels, " ") + "]"
}

func (a GroupAxis) validate(name string) error {
	if a.Len() == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s axis declares no groups", name)
	}
	for i, b := range a.Bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "%s bound %d is not finite", name, i)
		}
		if i > 0 && b <= a.Bounds[i-1] {
			return errors.New(errors.ErrCodeInvalidInput,
				"%s bounds must be strictly increasing (%s follows %s)", name, fmtBound(b), fmtBound(a.Bounds[i-1]))
		}
	}
	return nil
}

func fmtBound(v float64) string {
	return fmt.Sprintf("%g", v)
}
