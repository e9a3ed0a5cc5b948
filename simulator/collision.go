package simulator

import (
	"sort"

	"crossroadSim/config"
	"crossroadSim/element"

	"gonum.org/v1/gonum/spatial/r2"
)

// classValue 按车辆类型取值，紧急车辆共用 Emergency
func classValue(values config.ClassValues, class element.VehicleClass) float64 {
	switch class {
	case element.Car:
		return values.Car
	case element.Van:
		return values.Van
	case element.Truck:
		return values.Truck
	default:
		return values.Emergency
	}
}

// Colliding 判断两辆车是否碰撞
// 两车中心距离小于碰撞半径之和即为碰撞，紧急车辆不参与碰撞
func Colliding(a, b *element.Vehicle, radii config.ClassValues) bool {
	if a.Class.IsEmergency() || b.Class.IsEmergency() {
		return false
	}
	limit := classValue(radii, a.Class) + classValue(radii, b.Class)
	return r2.Norm(r2.Sub(a.Position, b.Position)) < limit
}

// DetectCollisions 两两检查碰撞，返回去重并升序排列的车辆下标
func DetectCollisions(vehicles []element.Vehicle, radii config.ClassValues) []int {
	hit := make(map[int]struct{})
	for i := 0; i < len(vehicles); i++ {
		for j := i + 1; j < len(vehicles); j++ {
			if Colliding(&vehicles[i], &vehicles[j], radii) {
				hit[i] = struct{}{}
				hit[j] = struct{}{}
			}
		}
	}
	if len(hit) == 0 {
		return nil
	}

	result := make([]int, 0, len(hit))
	for idx := range hit {
		result = append(result, idx)
	}
	sort.Ints(result)
	return result
}
