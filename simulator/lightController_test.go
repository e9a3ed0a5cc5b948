package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"crossroadSim/element"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phaseRecorder struct {
	BaseObserver
	mu      sync.Mutex
	changes []element.Phase
	dirs    []element.Direction
}

func (r *phaseRecorder) OnPhaseChange(dir element.Direction, phase element.Phase, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, phase)
	r.dirs = append(r.dirs, dir)
}

func (r *phaseRecorder) snapshot() ([]element.Direction, []element.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]element.Direction(nil), r.dirs...), append([]element.Phase(nil), r.changes...)
}

func TestNextDirection(t *testing.T) {
	dirs := []element.Direction{element.East, element.North}
	assert.Equal(t, element.North, NextDirection(dirs, element.East))
	assert.Equal(t, element.East, NextDirection(dirs, element.North))
	assert.Equal(t, element.East, NextDirection(dirs, element.West))
	assert.Equal(t, element.East, NextDirection([]element.Direction{element.East}, element.East))
}

func TestLightControllerCycle(t *testing.T) {
	w := NewWorld(testLights())
	rec := &phaseRecorder{}
	c := NewLightController(w, 30*time.Millisecond, 10*time.Millisecond, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for ctx.Err() == nil {
		snap, err := w.Snapshot()
		require.NoError(t, err)
		require.LessOrEqual(t, snap.GreenCount(), 1)

		lit := 0
		for _, l := range snap.Lights {
			if l.Phase != element.Red {
				lit++
			}
		}
		require.Equal(t, 1, lit, "exactly one direction is green or yellow")
		time.Sleep(time.Millisecond)
	}

	assert.ErrorIs(t, <-done, context.DeadlineExceeded)

	dirs, phases := rec.snapshot()
	require.GreaterOrEqual(t, len(phases), 4)
	assert.Equal(t, []element.Direction{element.East, element.East, element.North, element.North}, dirs[:4])
	assert.Equal(t, []element.Phase{element.Green, element.Yellow, element.Green, element.Yellow}, phases[:4])
}

func TestLightControllerRespectsOverride(t *testing.T) {
	w := NewWorld(testLights())
	require.NoError(t, w.OverrideLights(element.Yellow))
	rec := &phaseRecorder{}
	c := NewLightController(w, 5*time.Millisecond, 5*time.Millisecond, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.Run(ctx), context.DeadlineExceeded)

	snap, err := w.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snap.GreenCount())
	assert.True(t, snap.AccidentActive)
	_, phases := rec.snapshot()
	assert.Empty(t, phases)
}

func TestLightControllerAdvance(t *testing.T) {
	w := NewWorld(testLights())
	c := NewLightController(w, time.Second, time.Second)

	require.NoError(t, c.Advance())
	dir, err := w.ActiveDirection()
	require.NoError(t, err)
	assert.Equal(t, element.North, dir)

	require.NoError(t, c.Advance())
	dir, err = w.ActiveDirection()
	require.NoError(t, err)
	assert.Equal(t, element.East, dir)

	assert.Panics(t, func() { NewLightController(w, 0, time.Second) })
}
