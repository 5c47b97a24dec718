// Package set provides the mutable set handed out by the set lease factories.
//
// Set wraps a thread-unsafe github.com/deckarep/golang-set/v2 set and tracks
// the capacity it was sized for. Go maps never release their buckets on
// delete, so a cleared set keeps its storage and can be reused without
// reallocation up to that capacity.
package set

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Set is a mutable, single-owner set of comparable values. Equality is Go
// equality on E; for strings that is byte-wise (ordinal) comparison.
type Set[E comparable] struct {
	elems    mapset.Set[E]
	capacity int
}

// New creates an empty set sized for capacity elements.
func New[E comparable](capacity int) *Set[E] {
	if capacity < 0 {
		capacity = 0
	}
	return &Set[E]{
		elems:    mapset.NewThreadUnsafeSetWithSize[E](capacity),
		capacity: capacity,
	}
}

// Add inserts v and reports whether it was not already present.
func (s *Set[E]) Add(v E) bool {
	return s.elems.Add(v)
}

// AddAll inserts every value and returns how many were new.
func (s *Set[E]) AddAll(vs ...E) int {
	return s.elems.Append(vs...)
}

// Remove deletes v if present.
func (s *Set[E]) Remove(v E) {
	s.elems.Remove(v)
}

// Contains reports whether v is in the set.
func (s *Set[E]) Contains(v E) bool {
	return s.elems.ContainsOne(v)
}

// Len returns the number of elements.
func (s *Set[E]) Len() int {
	return s.elems.Cardinality()
}

// Cap returns the number of elements the set was sized for.
func (s *Set[E]) Cap() int {
	if n := s.elems.Cardinality(); n > s.capacity {
		return n
	}
	return s.capacity
}

// Clear removes all elements and keeps the allocated storage.
func (s *Set[E]) Clear() {
	s.elems.Clear()
}

// Grow resizes the set so that Cap() >= capacity. Elements are preserved.
func (s *Set[E]) Grow(capacity int) {
	if capacity <= s.capacity {
		return
	}
	grown := mapset.NewThreadUnsafeSetWithSize[E](capacity)
	if s.elems.Cardinality() > 0 {
		grown.Append(s.elems.ToSlice()...)
	}
	s.elems = grown
	s.capacity = capacity
}

// Each calls fn for every element until fn returns false. Order is
// unspecified.
func (s *Set[E]) Each(fn func(E) bool) {
	s.elems.Each(func(v E) bool {
		// golang-set stops when the callback returns true
		return !fn(v)
	})
}

// ToSlice returns the elements in unspecified order.
func (s *Set[E]) ToSlice() []E {
	return s.elems.ToSlice()
}

// Clone returns an independent copy that does not belong to any pool.
func (s *Set[E]) Clone() *Set[E] {
	return &Set[E]{
		elems:    s.elems.Clone(),
		capacity: s.capacity,
	}
}
