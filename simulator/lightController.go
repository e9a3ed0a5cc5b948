package simulator

import (
	"context"
	"fmt"
	"time"

	"crossroadSim/element"
	"crossroadSim/utils"
)

// LightController 红绿灯相位控制器
// 按注册顺序轮换通行方向：绿灯 -> 黄灯 -> 切换到下一方向
type LightController struct {
	world     *World
	green     time.Duration
	yellow    time.Duration
	observers observers
}

// NewLightController 创建相位控制器
func NewLightController(world *World, green, yellow time.Duration, obs ...Observer) *LightController {
	if green <= 0 || yellow <= 0 {
		panic("phase durations must be positive")
	}
	return &LightController{
		world:     world,
		green:     green,
		yellow:    yellow,
		observers: obs,
	}
}

// Run 运行相位循环直到 ctx 取消
func (c *LightController) Run(ctx context.Context) error {
	for {
		dir, err := c.world.ActiveDirection()
		if err != nil {
			return err
		}

		if err := c.apply(dir, element.Green); err != nil {
			return err
		}
		if err := utils.Sleep(ctx, c.green); err != nil {
			return err
		}

		if err := c.apply(dir, element.Yellow); err != nil {
			return err
		}
		if err := utils.Sleep(ctx, c.yellow); err != nil {
			return err
		}

		if err := c.Advance(); err != nil {
			return err
		}
	}
}

// apply 写入相位，事故接管期间跳过
func (c *LightController) apply(dir element.Direction, phase element.Phase) error {
	applied, err := c.world.ApplyPhase(dir, phase)
	if err != nil {
		return fmt.Errorf("light controller: %w", err)
	}
	if applied {
		c.observers.phaseChange(dir, phase, time.Now())
	}
	return nil
}

// Advance 将通行方向切换到下一个注册方向
func (c *LightController) Advance() error {
	dir, err := c.world.ActiveDirection()
	if err != nil {
		return err
	}
	return c.world.SetActiveDirection(NextDirection(c.world.Directions(), dir))
}

// NextDirection 返回轮换顺序中 dir 的下一个方向
func NextDirection(dirs []element.Direction, dir element.Direction) element.Direction {
	for i, d := range dirs {
		if d == dir {
			return dirs[(i+1)%len(dirs)]
		}
	}
	return dirs[0]
}
