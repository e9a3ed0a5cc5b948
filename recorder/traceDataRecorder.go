package recorder

import (
	"fmt"
	"strconv"

	"crossroadSim/element"
	"crossroadSim/simulator"

	"github.com/samber/lo"
)

var traceHeader = []string{"Sample", "Time", "Vehicle ID", "Class", "Direction", "X", "Y", "Phase"}

// traceRows 将一次快照中每辆车的位置格式化为轨迹行
func traceRows(sample int64, snap simulator.Snapshot) [][]string {
	sampleStr := strconv.FormatInt(sample, 10)
	at := snap.TakenAt.Format(timeLayout)
	return lo.Map(snap.Vehicles, func(v element.Vehicle, _ int) []string {
		phase := ""
		if p, ok := snap.PhaseOf(v.Direction); ok {
			phase = p.String()
		}
		return []string{
			sampleStr,
			at,
			v.ID.String(),
			v.Class.String(),
			v.Direction.String(),
			fmt.Sprintf("%.2f", v.Position.X),
			fmt.Sprintf("%.2f", v.Position.Y),
			phase,
		}
	})
}
