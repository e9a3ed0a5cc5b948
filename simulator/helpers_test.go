package simulator

import (
	"sync"
	"testing"
	"time"

	"crossroadSim/config"
	"crossroadSim/element"
	"crossroadSim/utils"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// scriptedPolicy 按预设脚本返回随机决策，脚本耗尽后返回默认值
type scriptedPolicy struct {
	mu      sync.Mutex
	chances []bool
	ints    []int
	picks   []int
	chance  bool // 脚本耗尽后 Chance 的返回值
}

func (p *scriptedPolicy) Chance(float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.chances) == 0 {
		return p.chance
	}
	c := p.chances[0]
	p.chances = p.chances[1:]
	return c
}

func (p *scriptedPolicy) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ints) == 0 {
		return 0
	}
	v := p.ints[0]
	p.ints = p.ints[1:]
	return v % n
}

func (p *scriptedPolicy) Pick(weights []float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.picks) == 0 {
		return 0
	}
	v := p.picks[0]
	p.picks = p.picks[1:]
	return v % len(weights)
}

func (p *scriptedPolicy) Float64() float64 {
	return 0.5
}

var _ utils.RandomPolicy = (*scriptedPolicy)(nil)

// recordingObserver 记录收到的事件
type recordingObserver struct {
	BaseObserver
	mu        sync.Mutex
	accidents []AccidentEvent
	cleared   []int
	removed   map[RemovalReason]int
	spawned   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{removed: make(map[RemovalReason]int)}
}

func (o *recordingObserver) OnAccident(event AccidentEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accidents = append(o.accidents, event)
}

func (o *recordingObserver) OnAccidentCleared(number int, _ time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared = append(o.cleared, number)
}

func (o *recordingObserver) OnVehicleRemoved(_ element.Vehicle, reason RemovalReason, _ time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.removed[reason]++
}

func (o *recordingObserver) OnVehicleSpawned(element.Vehicle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spawned++
}

type engineFixture struct {
	cfg       *config.Config
	world     *World
	in        *Intersection
	emergency *utils.Queue[element.Vehicle]
	regular   *utils.Queue[element.Vehicle]
	policy    *scriptedPolicy
	observer  *recordingObserver
	engine    *PhysicsEngine
	start     time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	cfg := config.Default()
	in, err := NewIntersection(cfg.Intersection)
	require.NoError(t, err)

	f := &engineFixture{
		cfg:       cfg,
		world:     NewWorld(in.Lights()),
		in:        in,
		emergency: utils.NewQueue[element.Vehicle](),
		regular:   utils.NewQueue[element.Vehicle](),
		policy:    &scriptedPolicy{},
		observer:  newRecordingObserver(),
		start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.engine = NewPhysicsEngine(f.world, in, f.emergency, f.policy, cfg, f.observer)
	f.engine.Start(f.start)
	return f
}

// at 返回相对于起始时间的时刻
func (f *engineFixture) at(d time.Duration) time.Time {
	return f.start.Add(d)
}

func (f *engineFixture) add(t *testing.T, vs ...element.Vehicle) {
	t.Helper()
	require.NoError(t, f.world.AddVehicles(vs...))
}

func (f *engineFixture) vehicles(t *testing.T) []element.Vehicle {
	t.Helper()
	vs, err := f.world.Vehicles()
	require.NoError(t, err)
	return vs
}

func car(x, y float64, dir element.Direction) element.Vehicle {
	return element.NewVehicle(r2.Vec{X: x, Y: y}, dir, element.Car, 40, false, element.Color{})
}

func findVehicle(vs []element.Vehicle, v element.Vehicle) (element.Vehicle, bool) {
	for _, candidate := range vs {
		if candidate.ID == v.ID {
			return candidate, true
		}
	}
	return element.Vehicle{}, false
}
