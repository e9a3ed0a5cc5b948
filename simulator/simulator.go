package simulator

import (
	"context"
	"fmt"
	"time"

	"crossroadSim/config"
	"crossroadSim/element"
	"crossroadSim/log"
	"crossroadSim/utils"
)

// SnapshotConsumer 接收每次采样的快照和系统状态
// 在消费端任务中同步调用，返回错误将终止模拟
type SnapshotConsumer interface {
	Consume(snap Snapshot, status Status) error
}

// Simulation 组装世界状态、三个并发任务与消费端采样循环
type Simulation struct {
	cfg          *config.Config
	world        *World
	intersection *Intersection
	regular      *utils.Queue[element.Vehicle]
	emergency    *utils.Queue[element.Vehicle]
	policy       utils.RandomPolicy
	observers    []Observer
	consumers    []SnapshotConsumer

	lights   *LightController
	spawner  *Spawner
	engine   *PhysicsEngine
	ingestor *Ingestor
	state    *SystemState
	samples  int
}

// Option 模拟的构造选项
type Option func(*Simulation)

// WithRandomPolicy 替换随机决策来源
func WithRandomPolicy(policy utils.RandomPolicy) Option {
	return func(s *Simulation) {
		s.policy = policy
	}
}

// WithObserver 注册事件观察者
func WithObserver(o Observer) Option {
	return func(s *Simulation) {
		s.observers = append(s.observers, o)
	}
}

// WithConsumer 注册快照消费者
func WithConsumer(c SnapshotConsumer) Option {
	return func(s *Simulation) {
		s.consumers = append(s.consumers, c)
	}
}

// New 根据配置创建模拟
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	in, err := NewIntersection(cfg.Intersection)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:          cfg,
		intersection: in,
		world:        NewWorld(in.Lights()),
		regular:      utils.NewQueue[element.Vehicle](),
		emergency:    utils.NewQueue[element.Vehicle](),
		state:        NewSystemState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = utils.NewRandSource(cfg.Simulation.Seed)
	}

	s.lights = NewLightController(s.world, cfg.TrafficLight.Green(), cfg.TrafficLight.Yellow(), s.observers...)
	s.spawner = NewSpawner(s.world, in, s.regular, s.policy, cfg.Spawn, cfg.Vehicle.Speed, s.observers...)
	s.engine = NewPhysicsEngine(s.world, in, s.emergency, s.policy, cfg, s.observers...)
	s.ingestor = NewIngestor(s.world, s.regular, s.emergency)
	return s, nil
}

// World 返回共享的世界状态
func (s *Simulation) World() *World { return s.world }

// Intersection 返回路口几何
func (s *Simulation) Intersection() *Intersection { return s.intersection }

// Engine 返回物理引擎
func (s *Simulation) Engine() *PhysicsEngine { return s.engine }

// Spawner 返回车辆生成器
func (s *Simulation) Spawner() *Spawner { return s.spawner }

// LightController 返回相位控制器
func (s *Simulation) LightController() *LightController { return s.lights }

// State 返回系统状态
func (s *Simulation) State() *SystemState { return s.state }

// Run 启动所有任务并阻塞直到 ctx 取消或任一任务发生致命错误
// 正常取消时返回 nil
func (s *Simulation) Run(ctx context.Context) error {
	group := utils.NewTaskGroup(ctx)
	group.Go("light-controller", s.lights.Run)
	group.Go("spawner", s.spawner.Run)
	group.Go("physics", s.engine.Run)
	group.Go("consumer", s.consume)

	log.WriteLog("Simulation started")
	err := group.Wait()

	s.regular.Close()
	s.emergency.Close()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Error("simulation stopped")
		return err
	}
	log.WriteLog("Simulation stopped")
	return nil
}

// consume 消费端采样循环
func (s *Simulation) consume(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Simulation.SamplingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, _, err := s.Sample(now); err != nil {
				return fmt.Errorf("consumer: %w", err)
			}
		}
	}
}

// Sample 执行一次采样：并入新车辆、获取快照、更新状态并交给消费者
func (s *Simulation) Sample(now time.Time) (Snapshot, Status, error) {
	regular, emergency, err := s.ingestor.Ingest()
	if err != nil {
		return Snapshot{}, Status{}, err
	}
	s.state.AddIngested(regular, emergency)

	snap, err := s.world.Snapshot()
	if err != nil {
		return Snapshot{}, Status{}, err
	}
	snap.TakenAt = now
	status := s.state.Update(snap, s.engine.Ticks())

	s.samples++
	if n := s.cfg.Logging.StatusInterval; n > 0 && s.samples%n == 0 {
		s.state.LogStatus()
	}

	for _, c := range s.consumers {
		if err := c.Consume(snap, status); err != nil {
			return snap, status, err
		}
	}
	return snap, status, nil
}
