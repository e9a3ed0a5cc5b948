package simulator

import (
	"sync"
	"time"

	"crossroadSim/element"
	"crossroadSim/log"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// 实际速度低于该值的车辆视为停车等待
const waitingSpeed = 1.0

// Status 某一采样时刻的系统状态汇总
type Status struct {
	Time              time.Time         `json:"time"`
	Vehicles          int               `json:"vehicles"`
	Cars              int               `json:"cars"`
	Vans              int               `json:"vans"`
	Trucks            int               `json:"trucks"`
	EmergencyVehicles int               `json:"emergencyVehicles"`
	Waiting           int               `json:"waiting"`      // 两次采样间几乎未移动的车辆数
	AverageSpeed      float64           `json:"averageSpeed"` // 两次采样间的平均实际速度
	Ingested          int64             `json:"ingested"`     // 累计并入的普通车辆
	Dispatched        int64             `json:"dispatched"`   // 累计并入的紧急车辆
	Accidents         int               `json:"accidents"`
	AccidentActive    bool              `json:"accidentActive"`
	EmergencyActive   bool              `json:"emergencyActive"`
	ActiveDirection   element.Direction `json:"activeDirection"`
	TickRate          float64           `json:"tickRate"` // 两次采样间的实测帧率
}

// SystemState 缓存并管理系统状态信息
// 通过比较相邻两次快照计算实际速度、等待车辆数和帧率
type SystemState struct {
	status     Status
	positions  map[uuid.UUID]r2.Vec
	lastSample time.Time
	lastTicks  uint64
	ingested   int64
	dispatched int64
	mu         sync.RWMutex // 保护并发访问
}

// NewSystemState 创建一个新的系统状态对象
func NewSystemState() *SystemState {
	return &SystemState{
		positions: make(map[uuid.UUID]r2.Vec),
	}
}

// AddIngested 累加并入的车辆数
func (s *SystemState) AddIngested(regular, emergency int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingested += int64(regular)
	s.dispatched += int64(emergency)
}

// Update 根据最新快照和引擎帧数更新系统状态
func (s *SystemState) Update(snap Snapshot, ticks uint64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := 0.0
	if !s.lastSample.IsZero() {
		elapsed = snap.TakenAt.Sub(s.lastSample).Seconds()
	}

	counts := snap.CountByClass()
	st := Status{
		Time:              snap.TakenAt,
		Vehicles:          len(snap.Vehicles),
		Cars:              counts[element.Car],
		Vans:              counts[element.Van],
		Trucks:            counts[element.Truck],
		EmergencyVehicles: counts[element.Ambulance] + counts[element.Police],
		Ingested:          s.ingested,
		Dispatched:        s.dispatched,
		Accidents:         snap.AccidentCount,
		AccidentActive:    snap.AccidentActive,
		EmergencyActive:   snap.EmergencyActive(),
		ActiveDirection:   snap.ActiveDirection,
	}

	positions := make(map[uuid.UUID]r2.Vec, len(snap.Vehicles))
	var speeds []float64
	for _, v := range snap.Vehicles {
		positions[v.ID] = v.Position
		prev, ok := s.positions[v.ID]
		if !ok || elapsed <= 0 {
			continue
		}
		speed := r2.Norm(r2.Sub(v.Position, prev)) / elapsed
		speeds = append(speeds, speed)
		if speed < waitingSpeed {
			st.Waiting++
		}
	}
	if len(speeds) > 0 {
		st.AverageSpeed = stat.Mean(speeds, nil)
	}
	if elapsed > 0 && ticks >= s.lastTicks {
		st.TickRate = float64(ticks-s.lastTicks) / elapsed
	}

	s.positions = positions
	s.lastSample = snap.TakenAt
	s.lastTicks = ticks
	s.status = st
	return st
}

// Status 返回最近一次更新的状态
func (s *SystemState) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus() {
	st := s.Status()
	log.WithFields(log.Fields{
		"vehicles":   st.Vehicles,
		"waiting":    st.Waiting,
		"avgSpeed":   st.AverageSpeed,
		"active":     st.ActiveDirection,
		"accidents":  st.Accidents,
		"inAccident": st.AccidentActive,
		"siren":      st.EmergencyActive,
		"tickRate":   st.TickRate,
	}).Info("status")
}
