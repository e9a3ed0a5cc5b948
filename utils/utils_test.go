package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("drain preserves insertion order", func(t *testing.T) {
		q := NewQueue[int]()
		for i := 0; i < 5; i++ {
			require.NoError(t, q.Push(i))
		}
		assert.Equal(t, 5, q.Len())
		assert.Equal(t, []int{0, 1, 2, 3, 4}, q.Drain())
		assert.Zero(t, q.Len())
		assert.Nil(t, q.Drain())
	})

	t.Run("push after close", func(t *testing.T) {
		q := NewQueue[string]()
		require.NoError(t, q.Push("a"))
		q.Close()
		q.Close()

		assert.True(t, q.Closed())
		assert.ErrorIs(t, q.Push("b"), ErrQueueClosed)
		assert.Equal(t, []string{"a"}, q.Drain())
	})

	t.Run("concurrent producers", func(t *testing.T) {
		q := NewQueue[int]()
		var wg sync.WaitGroup
		for p := 0; p < 8; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					_ = q.Push(i)
				}
			}()
		}

		total := 0
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
	loop:
		for {
			select {
			case <-done:
				break loop
			default:
				total += len(q.Drain())
			}
		}
		total += len(q.Drain())
		assert.Equal(t, 800, total)
	})
}

func TestRandSource(t *testing.T) {
	t.Run("same seed same sequence", func(t *testing.T) {
		a, b := NewRandSource(42), NewRandSource(42)
		for i := 0; i < 20; i++ {
			assert.Equal(t, a.IntN(100), b.IntN(100))
			assert.Equal(t, a.Chance(0.5), b.Chance(0.5))
		}
	})

	t.Run("chance bounds", func(t *testing.T) {
		r := NewRandSource(1)
		for i := 0; i < 50; i++ {
			assert.False(t, r.Chance(0))
			assert.True(t, r.Chance(1))
		}
	})

	t.Run("pick respects zero weights", func(t *testing.T) {
		r := NewRandSource(7)
		for i := 0; i < 100; i++ {
			assert.Equal(t, 2, r.Pick([]float64{0, 0, 1}))
		}
		assert.Equal(t, 0, r.Pick([]float64{0, 0}))
	})

	t.Run("range", func(t *testing.T) {
		r := NewRandSource(3)
		for i := 0; i < 100; i++ {
			v := RangeUint8(r, 100, 255)
			assert.GreaterOrEqual(t, v, uint8(100))
			assert.Less(t, v, uint8(255))
		}
		assert.Equal(t, uint8(9), RangeUint8(r, 9, 9))
	})
}

func TestTaskGroup(t *testing.T) {
	t.Run("stop cancels tasks", func(t *testing.T) {
		g := NewTaskGroup(context.Background())
		started := make(chan struct{})
		require.True(t, g.Go("sleeper", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}))
		<-started

		assert.NoError(t, g.Stop())
		assert.False(t, g.Go("late", func(ctx context.Context) error { return nil }))
	})

	t.Run("first error cancels the rest", func(t *testing.T) {
		g := NewTaskGroup(context.Background())
		boom := errors.New("boom")
		g.Go("waiter", func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		g.Go("failer", func(ctx context.Context) error { return boom })

		err := g.Wait()
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "failer")
	})

	t.Run("panic becomes error", func(t *testing.T) {
		g := NewTaskGroup(context.Background())
		g.Go("panicker", func(ctx context.Context) error { panic("bad state") })
		assert.ErrorContains(t, g.Wait(), "bad state")
	})

	t.Run("deadline is a clean stop", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		g := NewTaskGroup(ctx)
		g.Go("sleeper", func(ctx context.Context) error {
			return Sleep(ctx, time.Hour)
		})
		assert.NoError(t, g.Wait())
	})
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}
