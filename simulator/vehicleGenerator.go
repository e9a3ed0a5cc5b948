package simulator

import (
	"context"
	"errors"
	"math"

	"crossroadSim/config"
	"crossroadSim/element"
	"crossroadSim/utils"

	"gonum.org/v1/gonum/spatial/r2"
)

// Spawner 周期性地在各方向入口生成普通车辆
// 新车辆只写入普通队列，由消费端统一并入世界
type Spawner struct {
	world     *World
	in        *Intersection
	queue     *utils.Queue[element.Vehicle]
	policy    utils.RandomPolicy
	cfg       config.SpawnConfig
	speed     float64
	observers observers
}

// NewSpawner 创建车辆生成器
func NewSpawner(world *World, in *Intersection, queue *utils.Queue[element.Vehicle], policy utils.RandomPolicy,
	cfg config.SpawnConfig, speed float64, obs ...Observer) *Spawner {
	if cfg.Interval() <= 0 {
		panic("spawn interval must be positive")
	}
	return &Spawner{
		world:     world,
		in:        in,
		queue:     queue,
		policy:    policy,
		cfg:       cfg,
		speed:     speed,
		observers: obs,
	}
}

// Run 每隔一个生成间隔尝试生成一辆车，直到 ctx 取消或队列关闭
func (s *Spawner) Run(ctx context.Context) error {
	for {
		if err := utils.Sleep(ctx, s.cfg.Interval()); err != nil {
			return err
		}

		_, err := s.TrySpawn()
		if errors.Is(err, utils.ErrQueueClosed) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// TrySpawn 执行一次生成判定
// 返回是否生成了车辆；入口被占用或概率未命中时返回 false
func (s *Spawner) TrySpawn() (bool, error) {
	if !s.policy.Chance(s.cfg.Probability) {
		return false, nil
	}

	dirs := s.in.Directions()
	dir := dirs[s.policy.IntN(len(dirs))]
	entry, _ := s.in.Entry(dir)

	vehicles, err := s.world.Vehicles()
	if err != nil {
		return false, err
	}
	if s.entryBlocked(vehicles, dir, entry) {
		return false, nil
	}

	class := element.RegularClasses[s.policy.Pick(s.classWeights())]
	reckless := s.policy.Chance(s.cfg.RecklessProbability)
	vehicle := element.NewVehicle(entry, dir, class, s.speed, reckless, s.randomColor(class))

	if err := s.queue.Push(vehicle); err != nil {
		return false, err
	}
	s.observers.vehicleSpawned(vehicle)
	return true, nil
}

// entryBlocked 判断入口附近是否有同向车辆
// 只考虑仍处于入口区域内的车辆，且其与入口的纵向距离小于生成间距
func (s *Spawner) entryBlocked(vehicles []element.Vehicle, dir element.Direction, entry r2.Vec) bool {
	start := dir.Progress(entry)
	for i := range vehicles {
		v := &vehicles[i]
		if v.Direction != dir {
			continue
		}
		p := v.Progress()
		if p < start+s.cfg.EntryZone && math.Abs(p-start) < s.cfg.SpawnGap {
			return true
		}
	}
	return false
}

func (s *Spawner) classWeights() []float64 {
	w := s.cfg.ClassWeights
	return []float64{w.Car, w.Van, w.Truck}
}

func (s *Spawner) randomColor(class element.VehicleClass) element.Color {
	lo, hi, ok := class.PaletteRange()
	if !ok {
		return class.FixedColor()
	}
	return element.Color{
		R: utils.RangeUint8(s.policy, lo, hi),
		G: utils.RangeUint8(s.policy, lo, hi),
		B: utils.RangeUint8(s.policy, lo, hi),
	}
}

// newEmergencyVehicle 创建事故响应的紧急车辆
// 以 ambulanceProb 的概率为救护车，否则为警车；入口在紧急车辆入口中均匀选择
func newEmergencyVehicle(in *Intersection, policy utils.RandomPolicy, ambulanceProb, speed float64) element.Vehicle {
	class := element.Police
	if policy.Chance(ambulanceProb) {
		class = element.Ambulance
	}

	dirs := in.Directions()
	dir := dirs[policy.IntN(len(dirs))]
	entry, _ := in.EmergencyEntry(dir)
	return element.NewVehicle(entry, dir, class, speed, false, class.FixedColor())
}
