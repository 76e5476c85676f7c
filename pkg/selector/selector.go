// Package selector resolves user energy/time filters into group indices.
//
// Filters are resolved against the declared [mesh.GroupAxis] of each axis
// independently. The resulting [Pair] list is the Cartesian product of the two
// axes in energy-major, time-minor order.
//
//	pairs, err := selector.Resolve(m.Energy, m.Time,
//	    selector.Values("1.0", "20.0", "1e2"), selector.None())
//
// Absolute values match the group whose upper bound is the smallest bound
// greater than or equal to the value, because tally groups are labelled by
// their upper bound.
package selector

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
)

// TotalKeyword selects the Total group in index and value filters.
const TotalKeyword = "total"

// Kind is the closed set of filter kinds.
type Kind int

const (
	KindNone Kind = iota
	KindTotalOnly
	KindIndices
	KindValues
)

// Filter is a request for the groups of one axis.
type Filter struct {
	Kind   Kind
	Tokens []string
}

// None keeps every group.
func None() Filter { return Filter{Kind: KindNone} }

// TotalOnly keeps only the Total group.
func TotalOnly() Filter { return Filter{Kind: KindTotalOnly} }

// Indices keeps the listed group indices; "total" names the Total group.
func Indices(tokens ...string) Filter { return Filter{Kind: KindIndices, Tokens: tokens} }

// Values keeps the groups containing the listed absolute values.
func Values(tokens ...string) Filter { return Filter{Kind: KindValues, Tokens: tokens} }

// FromTokens builds the filter the CLI describes: no tokens means no filter,
// otherwise tokens are indices or, when absolute is set, values.
func FromTokens(tokens []string, absolute bool) Filter {
	if len(tokens) == 0 {
		return None()
	}
	if absolute {
		return Values(tokens...)
	}
	return Indices(tokens...)
}

// Pair is one (energy, time) group combination to emit.
type Pair struct {
	Energy int
	Time   int
}

// Resolve resolves both axes and returns their Cartesian product.
func Resolve(energy, time mesh.GroupAxis, ef, tf Filter) ([]Pair, error) {
	es, err := ResolveAxis("energy", energy, ef)
	if err != nil {
		return nil, err
	}
	ts, err := ResolveAxis("time", time, tf)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(es)*len(ts))
	for _, e := range es {
		for _, t := range ts {
			pairs = append(pairs, Pair{Energy: e, Time: t})
		}
	}
	return pairs, nil
}

// ResolveAxis resolves a single filter against one axis. The name is used in
// error messages only.
func ResolveAxis(name string, axis mesh.GroupAxis, f Filter) ([]int, error) {
	var (
		idx []int
		err error
	)
	switch f.Kind {
	case KindNone:
		idx = all(axis)
	case KindTotalOnly:
		t, ok := axis.TotalIndex()
		if !ok {
			return nil, errors.New(errors.ErrCodeSelection, "%s: mesh has no Total group", name)
		}
		idx = []int{t}
	case KindIndices:
		idx, err = byIndex(name, axis, f.Tokens)
	case KindValues:
		idx, err = byValue(name, axis, f.Tokens)
	default:
		return nil, errors.New(errors.ErrCodeSelection, "%s: unknown filter kind %d", name, f.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		return nil, errors.New(errors.ErrCodeSelection, "%s: filter selects no groups", name)
	}
	return idx, nil
}

// all returns every index in ascending order; Total is the last index by
// construction of GroupAxis.
func all(axis mesh.GroupAxis) []int {
	idx := make([]int, axis.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func byIndex(name string, axis mesh.GroupAxis, tokens []string) ([]int, error) {
	set := newOrderedSet(len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if isTotal(tok) {
			t, ok := axis.TotalIndex()
			if !ok {
				return nil, errors.New(errors.ErrCodeSelection, "%s: %q requested but mesh has no Total group", name, tok)
			}
			set.add(t)
			continue
		}

		i, err := strconv.Atoi(tok)
		if err != nil || i < 0 {
			return nil, errors.New(errors.ErrCodeSelection,
				"%s: invalid group index %q (must be an integer in [0, %d] or %q)", name, tok, axis.Len()-1, TotalKeyword)
		}
		if i >= axis.Len() {
			return nil, errors.New(errors.ErrCodeSelection,
				"%s: group index %d out of range [0, %d]", name, i, axis.Len()-1)
		}
		set.add(i)
	}
	return set.items, nil
}

func byValue(name string, axis mesh.GroupAxis, tokens []string) ([]int, error) {
	set := newOrderedSet(len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if isTotal(tok) {
			t, ok := axis.TotalIndex()
			if !ok {
				return nil, errors.New(errors.ErrCodeSelection, "%s: %q requested but mesh has no Total group", name, tok)
			}
			set.add(t)
			continue
		}

		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) {
			return nil, errors.New(errors.ErrCodeSelection, "%s: invalid group value %q", name, tok)
		}
		i, err := ceilingIndex(name, axis, v)
		if err != nil {
			return nil, err
		}
		set.add(i)
	}
	return set.items, nil
}

// ceilingIndex returns the index of the smallest bound >= v.
func ceilingIndex(name string, axis mesh.GroupAxis, v float64) (int, error) {
	if len(axis.Bounds) == 0 {
		return 0, errors.New(errors.ErrCodeSelection,
			"%s: value %g cannot be matched, mesh only has a Total group", name, v)
	}
	// Bounds are strictly increasing, so a binary search finds the ceiling.
	lo, hi := 0, len(axis.Bounds)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if axis.Bounds[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(axis.Bounds) {
		return 0, errors.New(errors.ErrCodeSelection,
			"%s: value %g exceeds the maximum group bound %g", name, v, axis.Bounds[len(axis.Bounds)-1])
	}
	return lo, nil
}

func isTotal(tok string) bool {
	return strings.EqualFold(tok, TotalKeyword)
}

// orderedSet keeps first-occurrence order while dropping duplicates.
type orderedSet struct {
	seen  map[int]bool
	items []int
}

func newOrderedSet(n int) *orderedSet {
	return &orderedSet{seen: make(map[int]bool, n), items: make([]int, 0, n)}
}

func (s *orderedSet) add(i int) {
	if s.seen[i] {
		return
	}
	s.seen[i] = true
	s.items = append(s.items, i)
}
