package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crossroadSim/config"
	"crossroadSim/element"
	"crossroadSim/utils"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r2"
)

// accidentEpisode 一次事故的处理过程
type accidentEpisode struct {
	number     int
	start      time.Time
	responders map[uuid.UUID]struct{} // 正在驶向事故点的紧急车辆
}

// PhysicsEngine 物理与碰撞引擎
// 以固定帧率推进车辆运动，检测碰撞并处理事故
type PhysicsEngine struct {
	world     *World
	in        *Intersection
	emergency *utils.Queue[element.Vehicle]
	policy    utils.RandomPolicy
	observers observers

	vehicleCfg   config.VehicleConfig
	accidentCfg  config.AccidentConfig
	incident     r2.Vec
	redViolation float64
	interval     time.Duration

	mu      sync.Mutex // 保护以下字段
	started bool
	last    time.Time
	episode *accidentEpisode
	ticks   uint64
}

// NewPhysicsEngine 创建物理引擎
func NewPhysicsEngine(world *World, in *Intersection, emergency *utils.Queue[element.Vehicle], policy utils.RandomPolicy,
	cfg *config.Config, obs ...Observer) *PhysicsEngine {
	return &PhysicsEngine{
		world:        world,
		in:           in,
		emergency:    emergency,
		policy:       policy,
		observers:    obs,
		vehicleCfg:   cfg.Vehicle,
		accidentCfg:  cfg.Accident,
		incident:     toVec(cfg.Accident.IncidentPoint),
		redViolation: cfg.Intersection.RedViolationProbability,
		interval:     cfg.Simulation.TickInterval(),
	}
}

// Start 设置第一帧的参考时间
func (e *PhysicsEngine) Start(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = true
	e.last = now
}

// Run 按目标帧率循环执行 Tick，直到 ctx 取消或发生致命错误
// 距上一帧不足一个帧间隔时休眠剩余时间
func (e *PhysicsEngine) Run(ctx context.Context) error {
	e.Start(time.Now())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		if wait := e.interval - now.Sub(e.lastTick()); wait > 0 {
			if err := utils.Sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if err := e.Tick(now); err != nil {
			return fmt.Errorf("physics engine: %w", err)
		}
	}
}

func (e *PhysicsEngine) lastTick() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Tick 执行一帧，运动量按与上一帧的实际时间差缩放
func (e *PhysicsEngine) Tick(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dt := 0.0
	if e.started {
		dt = now.Sub(e.last).Seconds()
	}
	if dt < 0 {
		dt = 0
	}
	e.started = true
	e.last = now

	var err error
	switch {
	case e.episode != nil && now.Sub(e.episode.start) < e.accidentCfg.Duration():
		err = e.respond(dt, now)
	case e.episode != nil:
		err = e.clearAccident(now)
	default:
		err = e.step(dt, now)
	}
	if err != nil {
		return err
	}

	e.ticks++
	return e.world.SetLastUpdate(now)
}

// step 正常状态下的一帧：先检测碰撞，无碰撞时执行普通运动
func (e *PhysicsEngine) step(dt float64, now time.Time) error {
	accident, err := e.detectAccident(now)
	if err != nil || accident {
		return err
	}

	lights, err := e.world.Lights()
	if err != nil {
		return err
	}
	removed, err := e.moveTraffic(lights, dt)
	if err != nil {
		return err
	}
	for _, v := range removed {
		e.observers.vehicleRemoved(v, RemovedOffScreen, now)
	}
	return nil
}

// detectAccident 检测碰撞，发生碰撞时进入事故状态
// 所有红绿灯变为黄灯，事故数加一，派出紧急车辆并移除碰撞车辆
func (e *PhysicsEngine) detectAccident(now time.Time) (bool, error) {
	var collided []element.Vehicle
	var present []uuid.UUID
	err := e.world.UpdateVehicles(func(vs *[]element.Vehicle) error {
		hits := DetectCollisions(*vs, e.vehicleCfg.CollisionRadius)
		if len(hits) == 0 {
			return nil
		}

		hitSet := lo.SliceToMap(hits, func(i int) (int, struct{}) {
			return i, struct{}{}
		})
		collided = lo.Map(hits, func(i int, _ int) element.Vehicle {
			return (*vs)[i]
		})
		*vs = lo.Filter(*vs, func(_ element.Vehicle, i int) bool {
			_, hit := hitSet[i]
			return !hit
		})
		for _, v := range *vs {
			if v.Class.IsEmergency() {
				present = append(present, v.ID)
			}
		}
		return nil
	})
	if err != nil || len(collided) == 0 {
		return false, err
	}

	if err := e.world.OverrideLights(element.Yellow); err != nil {
		return true, err
	}
	number, err := e.world.IncrementAccidents()
	if err != nil {
		return true, err
	}

	responses := make([]element.Vehicle, 0, e.accidentCfg.EmergencyCount)
	for i := 0; i < e.accidentCfg.EmergencyCount; i++ {
		v := newEmergencyVehicle(e.in, e.policy, e.accidentCfg.EmergencyProbability, e.vehicleCfg.EmergencySpeed)
		if err := e.emergency.Push(v); err != nil {
			if errors.Is(err, utils.ErrQueueClosed) {
				break
			}
			return true, err
		}
		responses = append(responses, v)
	}

	e.episode = &accidentEpisode{
		number:     number,
		start:      now,
		responders: make(map[uuid.UUID]struct{}, len(present)+len(responses)),
	}
	for _, id := range present {
		e.episode.responders[id] = struct{}{}
	}

	for _, v := range collided {
		e.observers.vehicleRemoved(v, RemovedCollision, now)
	}
	e.observers.accident(AccidentEvent{
		Number:    number,
		At:        now,
		Vehicles:  collided,
		Responses: responses,
	})
	return true, nil
}

// respond 事故状态下的一帧
// 场上的紧急车辆都加入响应集合并直线驶向事故点，到达后移除；其余车辆保持不动
func (e *PhysicsEngine) respond(dt float64, now time.Time) error {
	var arrived []element.Vehicle
	err := e.world.UpdateVehicles(func(vs *[]element.Vehicle) error {
		kept := make([]element.Vehicle, 0, len(*vs))
		for _, v := range *vs {
			if v.Class.IsEmergency() {
				e.episode.responders[v.ID] = struct{}{}
			}
			if _, ok := e.episode.responders[v.ID]; ok {
				v.MoveToward(e.incident, dt)
				if v.DistanceTo(e.incident) < e.accidentCfg.ArrivalThreshold {
					delete(e.episode.responders, v.ID)
					arrived = append(arrived, v)
					continue
				}
			}
			kept = append(kept, v)
		}
		*vs = kept
		return nil
	})
	if err != nil {
		return err
	}

	for _, v := range arrived {
		e.observers.vehicleRemoved(v, RemovedArrived, now)
	}
	return nil
}

// clearAccident 事故结束，恢复当前通行方向的绿灯
func (e *PhysicsEngine) clearAccident(now time.Time) error {
	dir, err := e.world.ActiveDirection()
	if err != nil {
		return err
	}
	if err := e.world.RestoreLights(dir); err != nil {
		return err
	}

	number := e.episode.number
	e.episode = nil
	e.observers.accidentCleared(number, now)
	return nil
}

// AccidentActive 判断是否处于事故状态
func (e *PhysicsEngine) AccidentActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episode != nil
}

// Responders 返回正在响应事故的紧急车辆 ID
func (e *PhysicsEngine) Responders() []uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.episode == nil {
		return nil
	}
	return lo.Keys(e.episode.responders)
}

// Ticks 返回已执行的帧数
func (e *PhysicsEngine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}
