package simulator

import (
	"testing"

	"crossroadSim/config"
	"crossroadSim/element"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestColliding(t *testing.T) {
	radii := config.Default().Vehicle.CollisionRadius

	a := car(100, 326, element.East)
	b := car(129, 326, element.East)
	assert.True(t, Colliding(&a, &b, radii))
	assert.True(t, Colliding(&b, &a, radii))

	b.Position.X = 130
	assert.False(t, Colliding(&a, &b, radii))

	truck := element.NewVehicle(r2.Vec{X: 139, Y: 326}, element.East, element.Truck, 40, false, element.Color{})
	assert.True(t, Colliding(&a, &truck, radii))
	truck.Position.X = 141
	assert.False(t, Colliding(&a, &truck, radii))

	police := element.NewVehicle(r2.Vec{X: 100, Y: 326}, element.East, element.Police, 60, false, element.PoliceBlue)
	assert.False(t, Colliding(&a, &police, radii))
	assert.False(t, Colliding(&police, &a, radii))
}

func TestDetectCollisions(t *testing.T) {
	radii := config.Default().Vehicle.CollisionRadius

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, DetectCollisions(nil, radii))
	})

	t.Run("pairs are symmetric and deduplicated", func(t *testing.T) {
		vs := []element.Vehicle{
			car(100, 326, element.East),
			car(400, 100, element.North),
			car(110, 326, element.East),
			car(120, 326, element.East),
			element.NewVehicle(r2.Vec{X: 400, Y: 105}, element.North, element.Ambulance, 60, false, element.AmbulanceWhite),
		}
		assert.Equal(t, []int{0, 2, 3}, DetectCollisions(vs, radii))

		reversed := []element.Vehicle{vs[4], vs[3], vs[2], vs[1], vs[0]}
		assert.Equal(t, []int{1, 2, 4}, DetectCollisions(reversed, radii))
	})

	t.Run("emergency vehicles never participate", func(t *testing.T) {
		vs := []element.Vehicle{
			element.NewVehicle(r2.Vec{X: 300, Y: 300}, element.East, element.Ambulance, 60, false, element.AmbulanceWhite),
			element.NewVehicle(r2.Vec{X: 300, Y: 300}, element.North, element.Police, 60, false, element.PoliceBlue),
			car(301, 300, element.East),
		}
		assert.Empty(t, DetectCollisions(vs, radii))
	})
}
