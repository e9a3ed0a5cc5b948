package simulator

import (
	"testing"

	"crossroadSim/config"
	"crossroadSim/element"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewIntersection(t *testing.T) {
	in, err := NewIntersection(config.Default().Intersection)
	require.NoError(t, err)

	assert.Equal(t, []element.Direction{element.East, element.North}, in.Directions())

	stop, ok := in.StopLine(element.North)
	require.True(t, ok)
	assert.Equal(t, -360.0, stop)

	entry, ok := in.Entry(element.North)
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 320, Y: 570}, entry)
	entry, ok = in.EmergencyEntry(element.East)
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 0, Y: 308}, entry)

	_, ok = in.Entry(element.West)
	assert.False(t, ok)

	lights := in.Lights()
	require.Len(t, lights, 2)
	assert.Equal(t, r2.Vec{X: 270, Y: 300}, lights[0].Position)

	_, err = NewIntersection(config.IntersectionConfig{})
	assert.Error(t, err)
	_, err = NewIntersection(config.IntersectionConfig{Approaches: []config.Approach{{Direction: "up"}}})
	assert.Error(t, err)
}

func TestOnScreen(t *testing.T) {
	in, err := NewIntersection(config.Default().Intersection)
	require.NoError(t, err)

	inside := car(300, 300, element.East)
	assert.True(t, in.OnScreen(&inside))
	for _, pos := range []r2.Vec{{X: 651, Y: 300}, {X: -51, Y: 300}, {X: 300, Y: -51}, {X: 300, Y: 651}} {
		v := car(pos.X, pos.Y, element.East)
		assert.False(t, in.OnScreen(&v), "%v", pos)
	}
}

func TestMayProceed(t *testing.T) {
	in, err := NewIntersection(config.Default().Intersection)
	require.NoError(t, err)

	never := func() bool { return false }
	always := func() bool { return true }

	tests := []struct {
		name     string
		x        float64
		reckless bool
		phase    element.Phase
		step     float64
		violate  func() bool
		want     bool
	}{
		{"green", 249, false, element.Green, 5, never, true},
		{"cleared intersection ignores red", 281, false, element.Red, 5, never, true},
		{"yellow stops before line", 248, false, element.Yellow, 5, never, false},
		{"yellow step stays before line", 240, false, element.Yellow, 5, never, true},
		{"yellow at line proceeds", 250, false, element.Yellow, 5, never, true},
		{"yellow reckless", 248, true, element.Yellow, 5, never, true},
		{"red far from line", 200, false, element.Red, 5, never, true},
		{"red inside margin", 238, false, element.Red, 5, never, false},
		{"red exactly at margin", 235, false, element.Red, 5, never, true},
		{"red at stop line stays", 250, false, element.Red, 5, never, false},
		{"red past line proceeds", 251, false, element.Red, 5, never, true},
		{"red reckless", 245, true, element.Red, 5, never, true},
		{"red random violation", 245, false, element.Red, 5, always, true},
		{"red nil violation", 245, false, element.Red, 5, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := car(tt.x, 326, element.East)
			v.Reckless = tt.reckless
			assert.Equal(t, tt.want, in.MayProceed(&v, tt.phase, tt.step, tt.violate))
		})
	}

	t.Run("north uses negative y as progress", func(t *testing.T) {
		v := car(320, 365, element.North)
		assert.False(t, in.MayProceed(&v, element.Red, 5, never))
		v.Position.Y = 380
		assert.True(t, in.MayProceed(&v, element.Red, 5, never))
	})

	t.Run("unregistered direction", func(t *testing.T) {
		v := car(100, 100, element.West)
		assert.False(t, in.MayProceed(&v, element.Green, 5, never))
	})
}
