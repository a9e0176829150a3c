package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitingQueue(t *testing.T) {
	t.Run("Empty queue", func(t *testing.T) {
		queue := NewWaitingQueue()

		_, ok := queue.Peek()
		assert.False(t, ok)

		_, ok = queue.Pop()
		assert.False(t, ok)
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("Pop empties the slot", func(t *testing.T) {
		// Given: a waiting connection
		queue := NewWaitingQueue()
		queue.Set("a")

		// When: it is popped
		id, ok := queue.Pop()

		// Then: the slot is free again
		assert.True(t, ok)
		assert.Equal(t, "a", id)
		assert.Equal(t, 0, queue.Len())
	})

	t.Run("Remove only clears the matching id", func(t *testing.T) {
		queue := NewWaitingQueue()
		queue.Set("a")

		assert.False(t, queue.Remove("b"))
		assert.False(t, queue.Remove(""))
		assert.Equal(t, 1, queue.Len())

		assert.True(t, queue.Remove("a"))
		assert.Equal(t, 0, queue.Len())
	})
}
