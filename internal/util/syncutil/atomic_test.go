package syncutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtomic(t *testing.T) {
	t.Run("ZeroValue", func(t *testing.T) {
		a := Atomic[int]{}
		assert.Equal(t, 0, a.Load())
	})

	t.Run("Initial", func(t *testing.T) {
		a := NewAtomic("hello")
		assert.Equal(t, "hello", a.Load())
	})

	t.Run("StoreLoad", func(t *testing.T) {
		a := NewAtomic(1)
		a.Store(2)
		assert.Equal(t, 2, a.Load())
	})

	t.Run("Concurrent", func(t *testing.T) {
		a := NewAtomic(0)
		wg := sync.WaitGroup{}
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.Store(i)
				_ = a.Load()
			}()
		}
		wg.Wait()
	})
}

func TestAtomicTime(t *testing.T) {
	now := time.Now()
	a := NewAtomicTime(now)
	assert.Equal(t, now, a.Load())

	later := now.Add(time.Hour)
	a.Store(later)
	assert.Equal(t, later, a.Load())
}
