package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crossroadSim/element"
	"crossroadSim/simulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ simulator.Observer = (*Recorder)(nil)
var _ simulator.SnapshotConsumer = (*Recorder)(nil)

func readCSV(t *testing.T, filename string) [][]string {
	t.Helper()
	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func testVehicle(class element.VehicleClass) element.Vehicle {
	return element.NewVehicle(r2.Vec{X: 10, Y: 326}, element.East, class, 40, false, element.Color{})
}

func TestCSVIO(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.csv")
	assert.False(t, fileExists(filename))

	require.NoError(t, initializeCSV(filename, []string{"a", "b"}))
	assert.True(t, fileExists(filename))
	require.NoError(t, appendToCSV(filename, [][]string{{"1", "2"}, {"3", "4"}}))
	require.NoError(t, appendToCSV(filename, nil))

	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, readCSV(t, filename))
	assert.Error(t, appendToCSV(filepath.Join(t.TempDir(), "missing.csv"), [][]string{{"x"}}))
	assert.False(t, fileExists(t.TempDir()))
}

func TestRecorderFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r, err := New(Options{Dir: dir, Stamp: "test", Trace: true})
	require.NoError(t, err)

	files := r.Files()
	require.Len(t, files, 4)
	for _, f := range files {
		assert.True(t, fileExists(f), f)
	}
	assert.Equal(t, filepath.Join(dir, "system_data_test.csv"), files[0])
	require.NoError(t, r.Close())
}

func TestRecorderConsume(t *testing.T) {
	dir := t.TempDir()
	r, err := New(Options{Dir: dir, Stamp: "s", Trace: true, FlushRows: 2})
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	snap := simulator.Snapshot{
		Vehicles: []element.Vehicle{testVehicle(element.Car), testVehicle(element.Van)},
		Lights:   []element.TrafficLight{element.NewTrafficLight(r2.Vec{}, element.East, element.Green)},
		TakenAt:  at,
	}
	status := simulator.Status{Time: at, Vehicles: 2, Cars: 1, Vans: 1, ActiveDirection: element.East, TickRate: 119.5}

	require.NoError(t, r.Consume(snap, status))
	// 轨迹缓存已满两行，先行写入
	assert.Len(t, readCSV(t, r.trace.filename), 3)
	assert.Len(t, readCSV(t, r.system.filename), 1)

	require.NoError(t, r.Flush())
	system := readCSV(t, r.system.filename)
	require.Len(t, system, 2)
	assert.Equal(t, systemHeader, system[0])
	assert.Equal(t, "1", system[1][0])
	assert.Equal(t, "2", system[1][2])
	assert.Equal(t, "east", system[1][14])
	assert.Equal(t, "119.50", system[1][15])

	trace := readCSV(t, r.trace.filename)
	assert.Equal(t, "green", trace[1][7])
	assert.Equal(t, snap.Vehicles[1].ID.String(), trace[2][2])

	require.NoError(t, r.Close())
	require.NoError(t, r.Consume(snap, status))
	assert.Len(t, readCSV(t, r.system.filename), 2, "records after close are ignored")
}

func TestRecorderTrips(t *testing.T) {
	r, err := New(Options{Dir: t.TempDir(), Stamp: "trips"})
	require.NoError(t, err)

	left := testVehicle(element.Truck)
	stays := testVehicle(element.Car)
	r.OnVehicleSpawned(left)
	r.OnVehicleSpawned(stays)
	r.OnVehicleRemoved(left, simulator.RemovedOffScreen, time.Now().Add(time.Second))
	r.OnVehicleRemoved(testVehicle(element.Van), simulator.RemovedCollision, time.Now())

	require.NoError(t, r.Close())
	rows := readCSV(t, r.vehicles.filename)
	require.Len(t, rows, 4)
	assert.Equal(t, vehicleHeader, rows[0])

	assert.Equal(t, left.ID.String(), rows[1][1])
	assert.Equal(t, "truck", rows[1][2])
	assert.Equal(t, "off_screen", rows[1][8])
	assert.NotEmpty(t, rows[1][5])
	assert.NotEmpty(t, rows[1][7])

	assert.Equal(t, "collision", rows[2][8])
	assert.Empty(t, rows[2][5], "untracked vehicle has no entry time")

	assert.Equal(t, stays.ID.String(), rows[3][1])
	assert.Equal(t, "unfinished", rows[3][8])
	assert.Empty(t, rows[3][6])
	assert.Equal(t, []string{"1", "2", "3"}, []string{rows[1][0], rows[2][0], rows[3][0]})
}

func TestRecorderAccidents(t *testing.T) {
	r, err := New(Options{Dir: t.TempDir(), Stamp: "acc"})
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	ambulance := element.NewVehicle(r2.Vec{X: 0, Y: 308}, element.East, element.Ambulance, 60, false, element.AmbulanceWhite)
	r.OnAccident(simulator.AccidentEvent{
		Number:    1,
		At:        at,
		Vehicles:  []element.Vehicle{testVehicle(element.Car), testVehicle(element.Truck)},
		Responses: []element.Vehicle{ambulance},
	})
	r.OnAccidentCleared(1, at.Add(10*time.Second))

	rows := readCSV(t, r.accidents.filename)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "start", "2024-01-01T08:00:00.000", "[car,truck]", "[ambulance]"}, rows[1])
	assert.Equal(t, "cleared", rows[2][1])

	r.OnVehicleRemoved(ambulance, simulator.RemovedArrived, at.Add(5*time.Second))
	require.NoError(t, r.Close())
	trips := readCSV(t, r.vehicles.filename)
	require.Len(t, trips, 2)
	assert.Equal(t, "arrived", trips[1][8])
	assert.Equal(t, "5.000", trips[1][7])
}
