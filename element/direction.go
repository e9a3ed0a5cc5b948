package element

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Direction 表示车辆的行驶方向（同时也是红绿灯控制的方向）
// 屏幕坐标系：x 向东增长，y 向南增长
type Direction int

const (
	East Direction = iota
	North
	West
	South
)

// AllDirections 按注册顺序列出全部方向
var AllDirections = []Direction{East, North, West, South}

// String 返回方向名称
func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Valid 判断方向是否属于固定方向集合
func (d Direction) Valid() bool {
	switch d {
	case East, North, West, South:
		return true
	default:
		return false
	}
}

// Unit 返回行驶方向的单位向量
func (d Direction) Unit() r2.Vec {
	switch d {
	case East:
		return r2.Vec{X: 1, Y: 0}
	case North:
		return r2.Vec{X: 0, Y: -1}
	case West:
		return r2.Vec{X: -1, Y: 0}
	case South:
		return r2.Vec{X: 0, Y: 1}
	default:
		panic(fmt.Sprintf("invalid direction %d", int(d)))
	}
}

// Progress 返回位置在行驶方向上的纵向坐标
// 数值越大表示越靠前（东向为 x，北向为 -y）
func (d Direction) Progress(p r2.Vec) float64 {
	return r2.Dot(p, d.Unit())
}

// Along 将该方向所在轴上的坐标值（东西向为 x，南北向为 y）换算为纵向坐标
func (d Direction) Along(coord float64) float64 {
	switch d {
	case East, South:
		return coord
	case North, West:
		return -coord
	default:
		panic(fmt.Sprintf("invalid direction %d", int(d)))
	}
}

// ParseDirection 解析方向名称，不区分大小写
func ParseDirection(s string) (Direction, error) {
	for _, d := range AllDirections {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MarshalText 实现 encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
