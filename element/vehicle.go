package element

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
)

// VehicleClass 表示车辆类型
type VehicleClass int

const (
	Car VehicleClass = iota
	Van
	Truck
	Ambulance
	Police
)

// RegularClasses 生成器可以创建的普通车辆类型，顺序与权重配置一一对应
var RegularClasses = []VehicleClass{Car, Van, Truck}

// EmergencyClasses 事故响应时创建的紧急车辆类型
var EmergencyClasses = []VehicleClass{Ambulance, Police}

// String 返回车辆类型名称
func (c VehicleClass) String() string {
	switch c {
	case Car:
		return "car"
	case Van:
		return "van"
	case Truck:
		return "truck"
	case Ambulance:
		return "ambulance"
	case Police:
		return "police"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// IsEmergency 判断是否为紧急车辆（救护车、警车）
func (c VehicleClass) IsEmergency() bool {
	switch c {
	case Ambulance, Police:
		return true
	default:
		return false
	}
}

// PaletteRange 返回该类型车辆随机颜色每个通道的取值区间 [lo, hi)
// 紧急车辆使用固定颜色，返回 ok=false
func (c VehicleClass) PaletteRange() (lo, hi uint8, ok bool) {
	switch c {
	case Car:
		return 100, 255, true
	case Van:
		return 50, 150, true
	case Truck:
		return 0, 100, true
	default:
		return 0, 0, false
	}
}

// FixedColor 返回紧急车辆的固定颜色
func (c VehicleClass) FixedColor() Color {
	switch c {
	case Police:
		return PoliceBlue
	default:
		return AmbulanceWhite
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (c VehicleClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *VehicleClass) UnmarshalText(text []byte) error {
	for _, class := range []VehicleClass{Car, Van, Truck, Ambulance, Police} {
		if strings.EqualFold(string(text), class.String()) {
			*c = class
			return nil
		}
	}
	return fmt.Errorf("unknown vehicle class %q", text)
}

// Vehicle 表示一辆车
// 采用值类型，复制即深拷贝，快照可以直接复制切片
type Vehicle struct {
	ID        uuid.UUID    `json:"id"`        // 车辆唯一标识
	Position  r2.Vec       `json:"position"`  // 当前位置
	Direction Direction    `json:"direction"` // 行驶方向
	Class     VehicleClass `json:"class"`     // 车辆类型
	Speed     float64      `json:"speed"`     // 速度（单位/秒）
	Reckless  bool         `json:"reckless"`  // 是否无视信号灯
	Color     Color        `json:"color"`     // 显示颜色
}

// NewVehicle 创建一辆新车
func NewVehicle(pos r2.Vec, dir Direction, class VehicleClass, speed float64, reckless bool, color Color) Vehicle {
	if !dir.Valid() {
		panic("invalid direction")
	}
	if speed < 0 {
		panic("speed must be non-negative")
	}

	return Vehicle{
		ID:        uuid.New(),
		Position:  pos,
		Direction: dir,
		Class:     class,
		Speed:     speed,
		Reckless:  reckless,
		Color:     color,
	}
}

// Progress 返回车辆沿行驶方向的纵向坐标
func (v *Vehicle) Progress() float64 {
	return v.Direction.Progress(v.Position)
}

// Step 返回经过 dt 秒后车辆的行驶距离
func (v *Vehicle) Step(dt float64) float64 {
	return v.Speed * dt
}

// Advance 沿行驶方向前进 dt 秒
func (v *Vehicle) Advance(dt float64) {
	v.Position = r2.Add(v.Position, r2.Scale(v.Step(dt), v.Direction.Unit()))
}

// DistanceTo 返回车辆到指定点的距离
func (v *Vehicle) DistanceTo(p r2.Vec) float64 {
	return r2.Norm(r2.Sub(p, v.Position))
}

// MoveToward 以自身速度直线驶向目标点，不会越过目标
func (v *Vehicle) MoveToward(target r2.Vec, dt float64) {
	delta := r2.Sub(target, v.Position)
	dist := r2.Norm(delta)
	if dist == 0 {
		return
	}

	step := v.Step(dt)
	if step >= dist {
		v.Position = target
		return
	}
	v.Position = r2.Add(v.Position, r2.Scale(step, r2.Unit(delta)))
}
