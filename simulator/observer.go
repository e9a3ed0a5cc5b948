package simulator

import (
	"time"

	"crossroadSim/element"
	"crossroadSim/log"
)

// RemovalReason 车辆被移出世界的原因
type RemovalReason int

const (
	RemovedOffScreen RemovalReason = iota // 驶出可见区域
	RemovedCollision                      // 发生碰撞
	RemovedArrived                        // 紧急车辆到达事故点
)

// String 返回移除原因名称
func (r RemovalReason) String() string {
	switch r {
	case RemovedOffScreen:
		return "off_screen"
	case RemovedCollision:
		return "collision"
	case RemovedArrived:
		return "arrived"
	default:
		return "unknown"
	}
}

// AccidentEvent 事故开始时的信息
type AccidentEvent struct {
	Number    int               // 第几次事故
	At        time.Time         // 发生时间
	Vehicles  []element.Vehicle // 参与碰撞的车辆
	Responses []element.Vehicle // 派出的紧急车辆
}

// Observer 模拟事件的回调
// 回调在产生事件的任务中同步执行，不得阻塞，也不得访问 World 的加锁方法
type Observer interface {
	OnPhaseChange(dir element.Direction, phase element.Phase, at time.Time)
	OnAccident(event AccidentEvent)
	OnAccidentCleared(number int, at time.Time)
	OnVehicleSpawned(v element.Vehicle)
	OnVehicleRemoved(v element.Vehicle, reason RemovalReason, at time.Time)
}

// BaseObserver 所有回调为空操作，嵌入后只需实现关心的回调
type BaseObserver struct{}

func (BaseObserver) OnPhaseChange(element.Direction, element.Phase, time.Time)   {}
func (BaseObserver) OnAccident(AccidentEvent)                                    {}
func (BaseObserver) OnAccidentCleared(int, time.Time)                            {}
func (BaseObserver) OnVehicleSpawned(element.Vehicle)                            {}
func (BaseObserver) OnVehicleRemoved(element.Vehicle, RemovalReason, time.Time) {}

// LoggingObserver 将模拟事件写入日志
type LoggingObserver struct {
	BaseObserver
}

func (LoggingObserver) OnPhaseChange(dir element.Direction, phase element.Phase, _ time.Time) {
	log.WithFields(log.Fields{"direction": dir, "phase": phase}).Debug("phase change")
}

func (LoggingObserver) OnAccident(event AccidentEvent) {
	log.WithFields(log.Fields{
		"accident":   event.Number,
		"vehicles":   len(event.Vehicles),
		"responders": len(event.Responses),
	}).Warn("collision detected, emergency response dispatched")
}

func (LoggingObserver) OnAccidentCleared(number int, _ time.Time) {
	log.WithFields(log.Fields{"accident": number}).Info("accident cleared, signals restored")
}

func (LoggingObserver) OnVehicleSpawned(v element.Vehicle) {
	log.WithFields(log.Fields{
		"id":        v.ID,
		"class":     v.Class,
		"direction": v.Direction,
		"reckless":  v.Reckless,
	}).Debug("vehicle spawned")
}

// observers 观察者集合，广播事件
type observers []Observer

func (obs observers) phaseChange(dir element.Direction, phase element.Phase, at time.Time) {
	for _, o := range obs {
		o.OnPhaseChange(dir, phase, at)
	}
}

func (obs observers) accident(event AccidentEvent) {
	for _, o := range obs {
		o.OnAccident(event)
	}
}

func (obs observers) accidentCleared(number int, at time.Time) {
	for _, o := range obs {
		o.OnAccidentCleared(number, at)
	}
}

func (obs observers) vehicleSpawned(v element.Vehicle) {
	for _, o := range obs {
		o.OnVehicleSpawned(v)
	}
}

func (obs observers) vehicleRemoved(v element.Vehicle, reason RemovalReason, at time.Time) {
	for _, o := range obs {
		o.OnVehicleRemoved(v, reason, at)
	}
}
