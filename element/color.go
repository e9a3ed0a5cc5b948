package element

import "fmt"

// Color 车辆的显示颜色，仅供渲染端使用，不参与模拟逻辑
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	AmbulanceWhite = Color{R: 255, G: 255, B: 255}
	PoliceBlue     = Color{R: 0, G: 0, B: 255}
)

// Hex 返回 #rrggbb 格式的颜色
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
