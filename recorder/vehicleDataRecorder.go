package recorder

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"crossroadSim/element"
	"crossroadSim/simulator"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const timeLayout = "2006-01-02T15:04:05.000"

var vehicleHeader = []string{
	"Trip ID", "Vehicle ID", "Class", "Direction", "Reckless", "In Time", "Out Time", "Duration", "Reason", "X", "Y",
}

// trip 一辆车从进入到离开的记录
type trip struct {
	vehicle element.Vehicle
	in      time.Time
}

// tripTracker 跟踪在场车辆的进入时间
// 只在 Recorder 的锁内使用
type tripTracker struct {
	open  map[uuid.UUID]trip
	index int64 // 递增的唯一索引
}

func newTripTracker() *tripTracker {
	return &tripTracker{open: make(map[uuid.UUID]trip)}
}

func (tt *tripTracker) start(v element.Vehicle, at time.Time) {
	tt.open[v.ID] = trip{vehicle: v, in: at}
}

// finish 结束行程并返回记录行，未跟踪过的车辆进入时间留空
func (tt *tripTracker) finish(v element.Vehicle, reason string, at time.Time) []string {
	t, ok := tt.open[v.ID]
	delete(tt.open, v.ID)
	if !ok {
		t = trip{vehicle: v}
	}
	return tt.row(t, v, reason, at)
}

func (tt *tripTracker) row(t trip, last element.Vehicle, reason string, out time.Time) []string {
	idx := atomic.AddInt64(&tt.index, 1)

	in, duration := "", ""
	if !t.in.IsZero() {
		in = t.in.Format(timeLayout)
		duration = fmt.Sprintf("%.3f", out.Sub(t.in).Seconds())
	}
	outStr := ""
	if !out.IsZero() {
		outStr = out.Format(timeLayout)
	}

	return []string{
		strconv.FormatInt(idx, 10),
		last.ID.String(),
		last.Class.String(),
		last.Direction.String(),
		strconv.FormatBool(last.Reckless),
		in,
		outStr,
		duration,
		reason,
		fmt.Sprintf("%.2f", last.Position.X),
		fmt.Sprintf("%.2f", last.Position.Y),
	}
}

// unfinished 返回仍未结束的行程
func (tt *tripTracker) unfinished() [][]string {
	trips := lo.Values(tt.open)
	tt.open = make(map[uuid.UUID]trip)
	return lo.Map(trips, func(t trip, _ int) []string {
		return tt.row(t, t.vehicle, "unfinished", time.Time{})
	})
}

// OnVehicleSpawned 记录普通车辆进入时间
func (r *Recorder) OnVehicleSpawned(v element.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.trips.start(v, time.Now())
}

// OnVehicleRemoved 记录车辆行程
func (r *Recorder) OnVehicleRemoved(v element.Vehicle, reason simulator.RemovalReason, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.vehicles.add(r.trips.finish(v, reason.String(), at))
}
