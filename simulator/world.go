package simulator

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"crossroadSim/element"
)

var (
	// ErrLockPoisoned 表示曾有任务在持有世界状态锁时发生 panic，状态不再可信
	ErrLockPoisoned = errors.New("world state lock poisoned")
	// ErrMissingLight 表示注册方向没有对应的红绿灯，属于配置错误
	ErrMissingLight = errors.New("no traffic light for direction")
)

// guarded 由独立互斥锁保护的单个字段
type guarded[T any] struct {
	mu  sync.Mutex
	val T
}

// lightState 红绿灯集合及事故接管标志
// overridden 为 true 时红绿灯由物理引擎接管，相位控制器不再写入
type lightState struct {
	lights     []element.TrafficLight
	overridden bool
}

// World 共享的世界状态
// 每个字段各自加锁，持锁时间尽量短；读取方通过克隆获得数据后立即释放锁
type World struct {
	directions []element.Direction // 构造后不再修改

	vehicles   guarded[[]element.Vehicle]
	lights     guarded[lightState]
	active     guarded[element.Direction]
	accidents  guarded[int]
	lastUpdate guarded[time.Time]

	poisoned atomic.Bool
}

// NewWorld 创建世界状态
// 第一个红绿灯的方向为初始通行方向（绿灯），其余为红灯
func NewWorld(lights []element.TrafficLight) *World {
	if len(lights) == 0 {
		panic("at least one traffic light is required")
	}

	directions := make([]element.Direction, 0, len(lights))
	seen := make(map[element.Direction]struct{}, len(lights))
	initial := make([]element.TrafficLight, len(lights))
	for i, light := range lights {
		if _, dup := seen[light.Direction]; dup {
			panic(fmt.Sprintf("duplicate traffic light for %s", light.Direction))
		}
		seen[light.Direction] = struct{}{}
		directions = append(directions, light.Direction)

		initial[i] = light
		if i == 0 {
			initial[i].Phase = element.Green
		} else {
			initial[i].Phase = element.Red
		}
	}

	w := &World{directions: directions}
	w.vehicles.val = make([]element.Vehicle, 0, 100)
	w.lights.val = lightState{lights: initial}
	w.active.val = directions[0]
	w.lastUpdate.val = time.Now()
	return w
}

// withLock 在字段锁内执行 fn
// fn 发生 panic 时世界状态被标记为损坏并继续向上传播，之后所有加锁操作返回 ErrLockPoisoned
func withLock[T any](w *World, g *guarded[T], fn func(*T) error) error {
	if w.poisoned.Load() {
		return ErrLockPoisoned
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			w.poisoned.Store(true)
			panic(r)
		}
	}()

	if w.poisoned.Load() {
		return ErrLockPoisoned
	}
	return fn(&g.val)
}

// Poisoned 判断世界状态是否已损坏
func (w *World) Poisoned() bool {
	return w.poisoned.Load()
}

// Directions 返回注册的方向，顺序即相位轮换顺序
func (w *World) Directions() []element.Direction {
	result := make([]element.Direction, len(w.directions))
	copy(result, w.directions)
	return result
}

// Registered 判断方向是否已注册
func (w *World) Registered(dir element.Direction) bool {
	for _, d := range w.directions {
		if d == dir {
			return true
		}
	}
	return false
}

// Vehicles 返回所有车辆的副本
func (w *World) Vehicles() ([]element.Vehicle, error) {
	var result []element.Vehicle
	err := withLock(w, &w.vehicles, func(vs *[]element.Vehicle) error {
		result = make([]element.Vehicle, len(*vs))
		copy(result, *vs)
		return nil
	})
	return result, err
}

// VehicleCount 返回车辆数量
func (w *World) VehicleCount() (int, error) {
	var n int
	err := withLock(w, &w.vehicles, func(vs *[]element.Vehicle) error {
		n = len(*vs)
		return nil
	})
	return n, err
}

// AddVehicles 一次性批量加入车辆
func (w *World) AddVehicles(vehicles ...element.Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}
	return withLock(w, &w.vehicles, func(vs *[]element.Vehicle) error {
		*vs = append(*vs, vehicles...)
		return nil
	})
}

// UpdateVehicles 在车辆锁内修改车辆集合
func (w *World) UpdateVehicles(fn func(vs *[]element.Vehicle) error) error {
	return withLock(w, &w.vehicles, fn)
}

// Lights 返回所有红绿灯的副本
func (w *World) Lights() ([]element.TrafficLight, error) {
	var result []element.TrafficLight
	err := withLock(w, &w.lights, func(ls *lightState) error {
		result = make([]element.TrafficLight, len(ls.lights))
		copy(result, ls.lights)
		return nil
	})
	return result, err
}

// Light 返回指定方向的红绿灯
func (w *World) Light(dir element.Direction) (element.TrafficLight, error) {
	var result element.TrafficLight
	err := withLock(w, &w.lights, func(ls *lightState) error {
		for _, light := range ls.lights {
			if light.Direction == dir {
				result = light
				return nil
			}
		}
		return fmt.Errorf("%w %s", ErrMissingLight, dir)
	})
	return result, err
}

// LightsOverridden 判断红绿灯是否被事故接管
func (w *World) LightsOverridden() (bool, error) {
	var overridden bool
	err := withLock(w, &w.lights, func(ls *lightState) error {
		overridden = ls.overridden
		return nil
	})
	return overridden, err
}

// ApplyPhase 将 dir 设为 phase，其余方向设为红灯
// 事故接管期间不做任何修改并返回 applied=false
func (w *World) ApplyPhase(dir element.Direction, phase element.Phase) (bool, error) {
	applied := false
	err := withLock(w, &w.lights, func(ls *lightState) error {
		if ls.overridden {
			return nil
		}
		if err := setPhase(ls.lights, dir, phase); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// OverrideLights 事故发生时接管红绿灯，将所有灯设为 phase
func (w *World) OverrideLights(phase element.Phase) error {
	return withLock(w, &w.lights, func(ls *lightState) error {
		for i := range ls.lights {
			ls.lights[i].Phase = phase
		}
		ls.overridden = true
		return nil
	})
}

// RestoreLights 结束接管，dir 恢复为绿灯，其余为红灯
func (w *World) RestoreLights(dir element.Direction) error {
	return withLock(w, &w.lights, func(ls *lightState) error {
		if err := setPhase(ls.lights, dir, element.Green); err != nil {
			return err
		}
		ls.overridden = false
		return nil
	})
}

func setPhase(lights []element.TrafficLight, dir element.Direction, phase element.Phase) error {
	found := false
	for i := range lights {
		if lights[i].Direction == dir {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w %s", ErrMissingLight, dir)
	}

	for i := range lights {
		if lights[i].Direction == dir {
			lights[i].Phase = phase
		} else {
			lights[i].Phase = element.Red
		}
	}
	return nil
}

// ActiveDirection 返回当前通行方向
func (w *World) ActiveDirection() (element.Direction, error) {
	var dir element.Direction
	err := withLock(w, &w.active, func(d *element.Direction) error {
		dir = *d
		return nil
	})
	return dir, err
}

// SetActiveDirection 设置当前通行方向
func (w *World) SetActiveDirection(dir element.Direction) error {
	if !w.Registered(dir) {
		return fmt.Errorf("%w %s", ErrMissingLight, dir)
	}
	return withLock(w, &w.active, func(d *element.Direction) error {
		*d = dir
		return nil
	})
}

// AccidentCount 返回累计事故数
func (w *World) AccidentCount() (int, error) {
	var n int
	err := withLock(w, &w.accidents, func(c *int) error {
		n = *c
		return nil
	})
	return n, err
}

// IncrementAccidents 事故数加一并返回新值
func (w *World) IncrementAccidents() (int, error) {
	var n int
	err := withLock(w, &w.accidents, func(c *int) error {
		*c++
		n = *c
		return nil
	})
	return n, err
}

// LastUpdate 返回物理引擎最后一次更新的时间
func (w *World) LastUpdate() (time.Time, error) {
	var t time.Time
	err := withLock(w, &w.lastUpdate, func(last *time.Time) error {
		t = *last
		return nil
	})
	return t, err
}

// SetLastUpdate 写入物理引擎更新时间
func (w *World) SetLastUpdate(t time.Time) error {
	return withLock(w, &w.lastUpdate, func(last *time.Time) error {
		*last = t
		return nil
	})
}

// Snapshot 获取世界状态的一致快照
// 每个字段分别加锁克隆，互不阻塞
func (w *World) Snapshot() (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Vehicles, err = w.Vehicles(); err != nil {
		return Snapshot{}, err
	}
	if err = withLock(w, &w.lights, func(ls *lightState) error {
		snap.Lights = make([]element.TrafficLight, len(ls.lights))
		copy(snap.Lights, ls.lights)
		snap.AccidentActive = ls.overridden
		return nil
	}); err != nil {
		return Snapshot{}, err
	}
	if snap.ActiveDirection, err = w.ActiveDirection(); err != nil {
		return Snapshot{}, err
	}
	if snap.AccidentCount, err = w.AccidentCount(); err != nil {
		return Snapshot{}, err
	}
	if snap.LastUpdate, err = w.LastUpdate(); err != nil {
		return Snapshot{}, err
	}
	snap.TakenAt = time.Now()
	return snap, nil
}
