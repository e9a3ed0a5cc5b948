package simulator

import (
	"time"

	"crossroadSim/element"

	"github.com/samber/lo"
)

// Snapshot 世界状态的只读副本
// 所有字段均为深拷贝，消费者可以随意持有
type Snapshot struct {
	Vehicles        []element.Vehicle      `json:"vehicles"`
	Lights          []element.TrafficLight `json:"lights"`
	ActiveDirection element.Direction      `json:"activeDirection"`
	AccidentCount   int                    `json:"accidentCount"`
	AccidentActive  bool                   `json:"accidentActive"` // 红绿灯是否处于事故接管状态
	LastUpdate      time.Time              `json:"lastUpdate"`
	TakenAt         time.Time              `json:"takenAt"`
}

// EmergencyActive 判断是否有紧急车辆在场（用于警笛提示）
func (s Snapshot) EmergencyActive() bool {
	return lo.ContainsBy(s.Vehicles, func(v element.Vehicle) bool {
		return v.Class.IsEmergency()
	})
}

// GreenCount 返回绿灯数量
func (s Snapshot) GreenCount() int {
	return lo.CountBy(s.Lights, func(l element.TrafficLight) bool {
		return l.IsGreen()
	})
}

// CountByClass 按车辆类型统计数量
func (s Snapshot) CountByClass() map[element.VehicleClass]int {
	return lo.CountValuesBy(s.Vehicles, func(v element.Vehicle) element.VehicleClass {
		return v.Class
	})
}

// CountByDirection 按行驶方向统计数量
func (s Snapshot) CountByDirection() map[element.Direction]int {
	return lo.CountValuesBy(s.Vehicles, func(v element.Vehicle) element.Direction {
		return v.Direction
	})
}

// PhaseOf 返回指定方向红绿灯的相位
func (s Snapshot) PhaseOf(dir element.Direction) (element.Phase, bool) {
	light, ok := lo.Find(s.Lights, func(l element.TrafficLight) bool {
		return l.Direction == dir
	})
	return light.Phase, ok
}
