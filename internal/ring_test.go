package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing(t *testing.T) {
	assert := assert.New(t)

	ring := NewRing[int](4)
	assert.Equal(0, ring.Len())
	assert.Empty(ring.Values())

	ring.Push(1)
	ring.Push(2)
	ring.Push(3)
	assert.Equal(3, ring.Len())
	assert.Equal([]int{1, 2, 3}, ring.Values())

	ring.Push(4)
	assert.Equal(4, ring.Len())
	assert.Equal([]int{1, 2, 3, 4}, ring.Values())

	// Once full, the oldest value is discarded.
	ring.Push(5)
	assert.Equal(4, ring.Len())
	assert.Equal([]int{2, 3, 4, 5}, ring.Values())

	ring.Push(6)
	assert.Equal([]int{3, 4, 5, 6}, ring.Values())

	ring.Reset()
	assert.Equal(0, ring.Len())
	assert.Empty(ring.Values())

	ring.Push(7)
	assert.Equal([]int{7}, ring.Values())
}
