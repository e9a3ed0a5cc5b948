package simulator

import (
	"crossroadSim/element"
	"crossroadSim/utils"
)

// Ingestor 将两个生产队列中的新车辆并入世界
// 只应由消费端一个 goroutine 调用
type Ingestor struct {
	world     *World
	regular   *utils.Queue[element.Vehicle]
	emergency *utils.Queue[element.Vehicle]
}

// NewIngestor 创建并入器
func NewIngestor(world *World, regular, emergency *utils.Queue[element.Vehicle]) *Ingestor {
	return &Ingestor{
		world:     world,
		regular:   regular,
		emergency: emergency,
	}
}

// Ingest 取出两个队列中的全部车辆，并在一次加锁中并入世界
// 返回普通车辆与紧急车辆的数量；队列为空时不加锁
func (ig *Ingestor) Ingest() (regular, emergency int, err error) {
	batch := ig.regular.Drain()
	regular = len(batch)
	urgent := ig.emergency.Drain()
	emergency = len(urgent)

	batch = append(batch, urgent...)
	if err := ig.world.AddVehicles(batch...); err != nil {
		return 0, 0, err
	}
	return regular, emergency, nil
}
