package recorder

import (
	"strconv"
	"strings"
	"time"

	"crossroadSim/element"
	"crossroadSim/log"
	"crossroadSim/simulator"

	"github.com/samber/lo"
)

var accidentHeader = []string{"Accident", "Event", "Time", "Vehicles", "Responders"}

// OnAccident 记录事故开始，并把派出的紧急车辆登记为新行程
func (r *Recorder) OnAccident(event simulator.AccidentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	for _, v := range event.Responses {
		r.trips.start(v, event.At)
	}
	r.accidents.add([]string{
		strconv.Itoa(event.Number),
		"start",
		event.At.Format(timeLayout),
		formatClasses(event.Vehicles),
		formatClasses(event.Responses),
	})
	// 事故记录量很小，立即写入
	if err := r.accidents.flush(); err != nil {
		log.Errorf("record accident %d: %v", event.Number, err)
	}
}

// OnAccidentCleared 记录事故结束
func (r *Recorder) OnAccidentCleared(number int, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.accidents.add([]string{strconv.Itoa(number), "cleared", at.Format(timeLayout), "", ""})
	if err := r.accidents.flush(); err != nil {
		log.Errorf("record accident %d: %v", number, err)
	}
}

// formatClasses 将车辆类型格式化为 [car,van] 形式
func formatClasses(vs []element.Vehicle) string {
	names := lo.Map(vs, func(v element.Vehicle, _ int) string {
		return v.Class.String()
	})
	return "[" + strings.Join(names, ",") + "]"
}
