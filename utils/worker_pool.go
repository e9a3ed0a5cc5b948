package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Task 长期运行的后台任务，ctx 取消时应尽快返回
type Task func(ctx context.Context) error

// TaskGroup 管理一组并发运行的后台任务
// 任一任务返回错误或发生 panic 时，取消其余任务；Wait 返回第一个错误
type TaskGroup struct {
	wg     sync.WaitGroup
	closed atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc

	errOnce sync.Once
	err     error
}

// NewTaskGroup 创建一个新的任务组
func NewTaskGroup(parent context.Context) *TaskGroup {
	ctx, cancel := context.WithCancel(parent)
	return &TaskGroup{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context 返回任务组共享的上下文
func (g *TaskGroup) Context() context.Context {
	return g.ctx
}

// Go 启动一个任务
// 如果任务组已停止，返回false，否则返回true
func (g *TaskGroup) Go(name string, task Task) bool {
	if g.closed.Load() || g.ctx.Err() != nil {
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.fail(fmt.Errorf("task %s panicked: %v", name, r))
			}
		}()

		if err := task(g.ctx); err != nil && !stopped(err) {
			g.fail(fmt.Errorf("task %s: %w", name, err))
		}
	}()
	return true
}

// stopped 判断错误是否只是上下文结束
func stopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (g *TaskGroup) fail(err error) {
	g.errOnce.Do(func() {
		g.err = err
	})
	g.cancel()
}

// Wait 等待所有任务结束，返回第一个错误
func (g *TaskGroup) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}

// Stop 停止任务组
// 取消上下文并等待所有任务退出，可重复调用
func (g *TaskGroup) Stop() error {
	g.closed.Store(true)
	g.cancel()
	return g.Wait()
}

// Sleep 休眠 d，ctx 取消时提前返回 ctx.Err()
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
