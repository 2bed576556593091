package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockReplacer(t *testing.T) {
	t.Run("victim on an empty replacer reports false", func(t *testing.T) {
		c := NewClockReplacer(4)
		_, ok := c.Victim()
		assert.False(t, ok)
	})

	t.Run("unpin tracks a frame as evictable", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("pin removes a frame from eviction candidacy", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)
		c.Pin(1)
		assert.Equal(t, 0, c.Size())

		_, ok := c.Victim()
		assert.False(t, ok)
	})

	t.Run("pin of an untracked frame is a no-op", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Pin(99)
		assert.Equal(t, 0, c.Size())
	})

	t.Run("unpin of an already-tracked frame preserves its reference bit", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)
		c.nodes[1].referenced = true

		c.Unpin(1)
		assert.True(t, c.nodes[1].referenced)
	})

	t.Run("victim with all bits clear evicts in ring order", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)
		c.Unpin(2)
		c.Unpin(3)

		frameID, ok := c.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, frameID)
		assert.Equal(t, 2, c.Size())
	})

	t.Run("a referenced frame is spared once then evicted on the next pass", func(t *testing.T) {
		// Frames [1, 2, 3] with reference bits [true, false, true], hand
		// at 1. Victim clears 1's bit and advances, then stops at 2
		// (bit already clear) and claims it — 3's bit is never visited
		// on this pass.
		c := NewClockReplacer(4)
		c.Unpin(1)
		c.Unpin(2)
		c.Unpin(3)
		c.nodes[1].referenced = true
		c.nodes[3].referenced = true

		frameID, ok := c.Victim()
		assert.True(t, ok)
		assert.Equal(t, 2, frameID)

		assert.False(t, c.nodes[1].referenced)
		assert.True(t, c.nodes[3].referenced)
		assert.Equal(t, 2, c.Size())
	})

	t.Run("size reflects only currently evictable frames", func(t *testing.T) {
		c := NewClockReplacer(4)
		assert.Equal(t, 0, c.Size())

		c.Unpin(1)
		c.Unpin(2)
		assert.Equal(t, 2, c.Size())

		c.Pin(1)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("victim removes the frame so it cannot be chosen twice", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)

		first, ok := c.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, first)

		_, ok = c.Victim()
		assert.False(t, ok)
	})

	t.Run("re-unpinning after a pin starts with a fresh reference bit", func(t *testing.T) {
		c := NewClockReplacer(4)
		c.Unpin(1)
		c.nodes[1].referenced = true
		c.Pin(1)

		c.Unpin(1)
		assert.False(t, c.nodes[1].referenced)
	})
}
