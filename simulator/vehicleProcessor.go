package simulator

import (
	"fmt"
	"sort"

	"crossroadSim/element"

	"github.com/samber/lo"
)

// moveTraffic 执行一帧普通运动
// 依次执行：移除驶出可见区域的车辆、按方向和纵向位置排序、逐车判断跟车距离与信号灯后前进
// 返回本帧被移除的车辆
func (e *PhysicsEngine) moveTraffic(lights []element.TrafficLight, dt float64) ([]element.Vehicle, error) {
	phases := make(map[element.Direction]element.Phase, len(lights))
	for _, light := range lights {
		phases[light.Direction] = light.Phase
	}
	for _, dir := range e.world.Directions() {
		if _, ok := phases[dir]; !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingLight, dir)
		}
	}

	var removed []element.Vehicle
	err := e.world.UpdateVehicles(func(vs *[]element.Vehicle) error {
		if len(*vs) == 0 {
			return nil
		}

		removed = lo.Filter(*vs, func(v element.Vehicle, _ int) bool {
			return !e.in.OnScreen(&v)
		})
		kept := lo.Filter(*vs, func(v element.Vehicle, _ int) bool {
			return e.in.OnScreen(&v)
		})
		sortByProgress(kept)

		// 本帧已处理车辆的纵向位置，按方向分组
		processed := make(map[element.Direction][]float64, len(phases))
		for i := range kept {
			v := &kept[i]
			phase, ok := phases[v.Direction]
			if !ok {
				return fmt.Errorf("%w %s", ErrMissingLight, v.Direction)
			}

			if !e.blocked(v, processed[v.Direction]) && e.in.MayProceed(v, phase, v.Step(dt), e.violation(v)) {
				v.Advance(dt)
			}
			processed[v.Direction] = append(processed[v.Direction], v.Progress())
		}

		*vs = kept
		return nil
	})
	return removed, err
}

// sortByProgress 按方向排序，同方向内位置靠前的车辆排在前面
func sortByProgress(vs []element.Vehicle) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Direction != vs[j].Direction {
			return vs[i].Direction < vs[j].Direction
		}
		return vs[i].Progress() > vs[j].Progress()
	})
}

// blocked 判断车辆是否与前车距离过近
func (e *PhysicsEngine) blocked(v *element.Vehicle, ahead []float64) bool {
	gap := classValue(e.vehicleCfg.FollowingGap, v.Class)
	p := v.Progress()
	return lo.ContainsBy(ahead, func(q float64) bool {
		d := q - p
		return d > 0 && d < gap
	})
}

// violation 返回该车辆的随机闯红灯判定，未启用时返回 nil
func (e *PhysicsEngine) violation(v *element.Vehicle) func() bool {
	if e.redViolation <= 0 || v.Class.IsEmergency() {
		return nil
	}
	return func() bool {
		return e.policy.Chance(e.redViolation)
	}
}
