// pattern: Functional Core

package environment

import (
	"iter"
	"slices"
)

// Set is a duplicate-free collection of descriptors. Iteration is always in
// Compare order.
type Set struct {
	items map[Descriptor]struct{}
}

// NewSet collects seq into a Set. A nil seq yields an empty set.
func NewSet(seq iter.Seq[Descriptor]) *Set {
	s := &Set{items: make(map[Descriptor]struct{})}
	if seq != nil {
		for d := range seq {
			s.items[d] = struct{}{}
		}
	}
	return s
}

// Add inserts d and reports whether it was new.
func (s *Set) Add(d Descriptor) bool {
	if _, ok := s.items[d]; ok {
		return false
	}
	s.items[d] = struct{}{}
	return true
}

// Remove deletes d and reports whether it was present.
func (s *Set) Remove(d Descriptor) bool {
	if _, ok := s.items[d]; !ok {
		return false
	}
	delete(s.items, d)
	return true
}

func (s *Set) Contains(d Descriptor) bool {
	_, ok := s.items[d]
	return ok
}

func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the members sorted by Compare. The result is never nil.
func (s *Set) Items() []Descriptor {
	out := make([]Descriptor, 0, len(s.items))
	for d := range s.items {
		out = append(out, d)
	}
	slices.SortFunc(out, Compare)
	return out
}

// All iterates the members in Compare order.
func (s *Set) All() iter.Seq[Descriptor] {
	return slices.Values(s.Items())
}
