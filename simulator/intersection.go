package simulator

import (
	"fmt"

	"crossroadSim/config"
	"crossroadSim/element"

	"gonum.org/v1/gonum/spatial/r2"
)

// approach 一个注册方向的路口几何
type approach struct {
	direction      element.Direction
	entry          r2.Vec
	emergencyEntry r2.Vec
	light          r2.Vec
	stopLine       float64 // 停止线的纵向坐标
}

// Intersection 路口几何与通行规则，构造后只读
type Intersection struct {
	approaches        []approach
	exitMargin        float64
	redApproachMargin float64
	bounds            config.Bounds
}

// NewIntersection 根据配置构建路口
func NewIntersection(cfg config.IntersectionConfig) (*Intersection, error) {
	if len(cfg.Approaches) == 0 {
		return nil, fmt.Errorf("intersection: no approaches configured")
	}

	approaches := make([]approach, 0, len(cfg.Approaches))
	for _, a := range cfg.Approaches {
		dir, err := element.ParseDirection(a.Direction)
		if err != nil {
			return nil, fmt.Errorf("intersection: %w", err)
		}
		approaches = append(approaches, approach{
			direction:      dir,
			entry:          toVec(a.Entry),
			emergencyEntry: toVec(a.EmergencyEntry),
			light:          toVec(a.Light),
			stopLine:       dir.Along(a.StopLine),
		})
	}

	return &Intersection{
		approaches:        approaches,
		exitMargin:        cfg.ExitMargin,
		redApproachMargin: cfg.RedApproachMargin,
		bounds:            cfg.Bounds,
	}, nil
}

func toVec(p config.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Directions 按注册顺序返回方向
func (in *Intersection) Directions() []element.Direction {
	dirs := make([]element.Direction, len(in.approaches))
	for i, a := range in.approaches {
		dirs[i] = a.direction
	}
	return dirs
}

// Lights 创建每个方向的红绿灯，相位由 NewWorld 初始化
func (in *Intersection) Lights() []element.TrafficLight {
	lights := make([]element.TrafficLight, len(in.approaches))
	for i, a := range in.approaches {
		lights[i] = element.NewTrafficLight(a.light, a.direction, element.Red)
	}
	return lights
}

func (in *Intersection) approachFor(dir element.Direction) (approach, bool) {
	for _, a := range in.approaches {
		if a.direction == dir {
			return a, true
		}
	}
	return approach{}, false
}

// Entry 返回普通车辆入口
func (in *Intersection) Entry(dir element.Direction) (r2.Vec, bool) {
	a, ok := in.approachFor(dir)
	return a.entry, ok
}

// EmergencyEntry 返回紧急车辆入口
func (in *Intersection) EmergencyEntry(dir element.Direction) (r2.Vec, bool) {
	a, ok := in.approachFor(dir)
	return a.emergencyEntry, ok
}

// StopLine 返回停止线的纵向坐标
func (in *Intersection) StopLine(dir element.Direction) (float64, bool) {
	a, ok := in.approachFor(dir)
	return a.stopLine, ok
}

// OnScreen 判断车辆是否仍在可见区域内
func (in *Intersection) OnScreen(v *element.Vehicle) bool {
	return in.bounds.Contains(v.Position.X, v.Position.Y)
}

// MayProceed 判断车辆本帧能否前进 step
// violate 为随机闯红灯的判定结果，仅在红灯且未越过停止线时生效
func (in *Intersection) MayProceed(v *element.Vehicle, phase element.Phase, step float64, violate func() bool) bool {
	stop, ok := in.StopLine(v.Direction)
	if !ok {
		return false
	}

	p := v.Progress()
	if p > stop+in.exitMargin {
		return true
	}

	switch phase {
	case element.Green:
		return true
	case element.Yellow:
		return v.Reckless || p >= stop || p+step <= stop
	case element.Red:
		if v.Reckless || p > stop {
			return true
		}
		if p+step <= stop-in.redApproachMargin {
			return true
		}
		return violate != nil && violate()
	default:
		return false
	}
}
