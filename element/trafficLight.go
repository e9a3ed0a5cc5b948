package element

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Phase 表示红绿灯相位
type Phase int

const (
	Red Phase = iota
	Yellow
	Green
)

// String 返回相位名称
func (p Phase) String() string {
	switch p {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (p *Phase) UnmarshalText(text []byte) error {
	for _, phase := range []Phase{Red, Yellow, Green} {
		if strings.EqualFold(string(text), phase.String()) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// TrafficLight 表示控制某一方向的红绿灯
type TrafficLight struct {
	Position  r2.Vec    `json:"position"`  // 位置，仅供参考
	Direction Direction `json:"direction"` // 控制的方向
	Phase     Phase     `json:"phase"`     // 当前相位
}

// NewTrafficLight 创建一个新的红绿灯
func NewTrafficLight(pos r2.Vec, dir Direction, phase Phase) TrafficLight {
	if !dir.Valid() {
		panic("invalid direction")
	}
	return TrafficLight{
		Position:  pos,
		Direction: dir,
		Phase:     phase,
	}
}

// IsGreen 判断是否为绿灯
func (light *TrafficLight) IsGreen() bool {
	return light.Phase == Green
}
