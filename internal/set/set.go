package set

import (
	"cmp"
	"container/heap"
	"iter"
	"maps"
	"slices"
)

// Set provides a wrapper around a map[T]struct{}.
// The zero value is an empty set ready to use.
type Set[T cmp.Ordered] struct {
	values map[T]struct{}

	// min-heap of the values for TakeLowest. Removed values stay
	// in the heap and are skipped when they reach the top.
	lowest minHeap[T]
}

// Of creates a new set containing the given values.
func Of[T cmp.Ordered](values ...T) Set[T] {
	var s Set[T]
	s.InsertAll(values)
	return s
}

// Insert adds the value and reports whether it was not yet part of the set.
func (s *Set[T]) Insert(value T) bool {
	if s.values == nil {
		s.values = make(map[T]struct{})
	}

	if _, exists := s.values[value]; exists {
		return false
	}

	s.values[value] = struct{}{}
	heap.Push(&s.lowest, value)

	return true
}

// InsertAll adds all values and returns the number of values that were newly inserted.
func (s *Set[T]) InsertAll(values []T) int {
	var inserted int
	for _, value := range values {
		if s.Insert(value) {
			inserted++
		}
	}

	return inserted
}

// Remove deletes the value and reports whether it was part of the set.
func (s *Set[T]) Remove(value T) bool {
	if _, exists := s.values[value]; !exists {
		return false
	}

	delete(s.values, value)
	s.compact()

	return true
}

func (s *Set[T]) Has(value T) bool {
	_, exists := s.values[value]
	return exists
}

func (s *Set[T]) Len() int {
	return len(s.values)
}

// Values iterates the set in no particular order.
func (s *Set[T]) Values() iter.Seq[T] {
	return maps.Keys(s.values)
}

// Sorted returns the values of the set in ascending order.
func (s *Set[T]) Sorted() []T {
	return slices.Sorted(maps.Keys(s.values))
}

// TakeLowest removes the n smallest values from the set and returns them in ascending order.
func (s *Set[T]) TakeLowest(n int) []T {
	values := make([]T, 0, min(n, len(s.values)))

	for len(values) < n && len(s.lowest) > 0 {
		value := heap.Pop(&s.lowest).(T)

		// skip values removed since they were pushed
		if _, exists := s.values[value]; !exists {
			continue
		}

		delete(s.values, value)
		values = append(values, value)
	}

	return values
}

func (s *Set[T]) Clear() {
	clear(s.values)
	s.lowest = s.lowest[:0]
}

// compact rebuilds the heap once removed values make up most of it.
func (s *Set[T]) compact() {
	if len(s.lowest) <= 2*len(s.values)+32 {
		return
	}

	s.lowest = slices.AppendSeq(s.lowest[:0], maps.Keys(s.values))
	heap.Init(&s.lowest)
}

type minHeap[T cmp.Ordered] []T

func (h minHeap[T]) Len() int           { return len(h) }
func (h minHeap[T]) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) {
	*h = append(*h, x.(T))
}

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	value := old[n-1]
	*h = old[:n-1]
	return value
}
