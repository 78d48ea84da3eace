// Package window provides the fixed-capacity FIFO buffers that smooth the
// per-frame pose signals and stage classifier input.
package window

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Window is a fixed-capacity ring buffer. Pushing past capacity evicts the
// oldest element. Not safe for concurrent use; the owning session serialises
// access.
type Window[T any] struct {
	items    []T
	capacity int
	head     int // next write position
	size     int
}

// New creates a window holding at most capacity elements. Capacities below
// one are raised to one.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item, evicting the oldest element when full.
func (w *Window[T]) Push(item T) {
	w.items[w.head] = item
	w.head = (w.head + 1) % w.capacity
	if w.size < w.capacity {
		w.size++
	}
}

// Len returns the number of elements held.
func (w *Window[T]) Len() int { return w.size }

// Cap returns the window capacity.
func (w *Window[T]) Cap() int { return w.capacity }

// IsFull reports whether Len() == Cap().
func (w *Window[T]) IsFull() bool { return w.size == w.capacity }

// Snapshot returns the held elements oldest-first. The returned slice is a
// copy; the elements themselves are shared.
func (w *Window[T]) Snapshot() []T {
	out := make([]T, w.size)
	start := (w.head - w.size + w.capacity) % w.capacity
	for i := 0; i < w.size; i++ {
		out[i] = w.items[(start+i)%w.capacity]
	}
	return out
}

// Latest returns the most recently pushed element.
func (w *Window[T]) Latest() (T, bool) {
	var zero T
	if w.size == 0 {
		return zero, false
	}
	return w.items[(w.head-1+w.capacity)%w.capacity], true
}

// Reset empties the window without changing its capacity.
func (w *Window[T]) Reset() {
	var zero T
	for i := range w.items {
		w.items[i] = zero
	}
	w.head = 0
	w.size = 0
}

// Mean returns the arithmetic mean of a scalar window, or 0 when empty.
func Mean(w *Window[float64]) float64 {
	if w.Len() == 0 {
		return 0
	}
	return stat.Mean(w.Snapshot(), nil)
}

// MeanVector returns the element-wise mean of a vector window as a new slice
// of length dim. An empty window yields the zero vector. Elements shorter or
// longer than dim are a programming error and panic inside gonum.
func MeanVector(w *Window[[]float64], dim int) []float64 {
	out := make([]float64, dim)
	if w.Len() == 0 {
		return out
	}
	for _, v := range w.Snapshot() {
		floats.Add(out, v)
	}
	floats.Scale(1/float64(w.Len()), out)
	return out
}
