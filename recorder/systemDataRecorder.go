package recorder

import (
	"fmt"
	"strconv"

	"crossroadSim/simulator"
)

var systemHeader = []string{
	"Sample", "Time", "Vehicles", "Cars", "Vans", "Trucks", "Emergency", "Waiting", "AvgSpeed",
	"Ingested", "Dispatched", "Accidents", "AccidentActive", "Siren", "ActiveDirection", "TickRate",
}

// systemRow 将一次采样的系统状态格式化为一行
func systemRow(sample int64, st simulator.Status) []string {
	return []string{
		strconv.FormatInt(sample, 10),
		st.Time.Format(timeLayout),
		strconv.Itoa(st.Vehicles),
		strconv.Itoa(st.Cars),
		strconv.Itoa(st.Vans),
		strconv.Itoa(st.Trucks),
		strconv.Itoa(st.EmergencyVehicles),
		strconv.Itoa(st.Waiting),
		fmt.Sprintf("%.4f", st.AverageSpeed),
		strconv.FormatInt(st.Ingested, 10),
		strconv.FormatInt(st.Dispatched, 10),
		strconv.Itoa(st.Accidents),
		strconv.FormatBool(st.AccidentActive),
		strconv.FormatBool(st.EmergencyActive),
		st.ActiveDirection.String(),
		fmt.Sprintf("%.2f", st.TickRate),
	}
}
