package disk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler(t *testing.T) {
	t.Run("write and read of the same page round-trip", func(t *testing.T) {
		dm := newTestManager(t)
		sched := NewScheduler(dm)

		id, err := sched.AllocatePage()
		assert.NoError(t, err)

		data := make([]byte, PageSize)
		copy(data, []byte("hello world"))

		assert.NoError(t, sched.WritePage(id, data))

		res, err := sched.ReadPage(id)
		assert.NoError(t, err)
		assert.Equal(t, data, res)
	})

	t.Run("requests for distinct pages do not block each other", func(t *testing.T) {
		dm := newTestManager(t)
		sched := NewScheduler(dm)

		const pages = 8
		ids := make([]int64, pages)
		for i := range ids {
			id, err := sched.AllocatePage()
			assert.NoError(t, err)
			ids[i] = id
		}

		var wg sync.WaitGroup
		start := time.Now()
		for _, id := range ids {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				data := make([]byte, PageSize)
				_ = sched.WritePage(id, data)
			}(id)
		}
		wg.Wait()

		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("allocate and deallocate route through the manager", func(t *testing.T) {
		dm := newTestManager(t)
		sched := NewScheduler(dm)

		id, err := sched.AllocatePage()
		assert.NoError(t, err)

		assert.NoError(t, sched.DeallocatePage(id))

		_, err = sched.ReadPage(id)
		assert.ErrorIs(t, err, ErrUnknownPage)
	})
}
