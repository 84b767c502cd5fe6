package internal

// Ring is a fixed depth circular buffer that keeps the most recent values
// pushed into it, discarding the oldest once full.
type Ring[T any] struct {
	depth int
	next  int
	full  bool
	data  []T
}

// NewRing creates a ring holding up to depth values.
func NewRing[T any](depth int) (ring *Ring[T]) {
	ring = &Ring[T]{
		depth: depth,
		data:  make([]T, depth),
	}

	return
}

// Push adds a value, discarding the oldest value once the ring is full.
func (ring *Ring[T]) Push(value T) {
	ring.data[ring.next] = value
	ring.next++
	if ring.next == ring.depth {
		ring.next = 0
		ring.full = true
	}
}

// Len returns the number of held values.
func (ring *Ring[T]) Len() int {
	if ring.full {
		return ring.depth
	}

	return ring.next
}

// Values returns the held values, oldest first.
func (ring *Ring[T]) Values() (values []T) {
	if ring.full {
		values = append(values, ring.data[ring.next:]...)
		values = append(values, ring.data[:ring.next]...)
		return
	}

	values = append(values, ring.data[:ring.next]...)

	return
}

// Reset discards all held values.
func (ring *Ring[T]) Reset() {
	ring.next = 0
	ring.full = false
	clear(ring.data)
}
