package utils

import (
	"container/list"
	"errors"
	"sync"
)

// ErrQueueClosed 表示交接队列已关闭，生产者应当停止
var ErrQueueClosed = errors.New("queue closed")

// Queue 无界先进先出交接队列
// 支持多个生产者并发 Push，消费者用 Drain 非阻塞地一次取走全部元素
type Queue[T any] struct {
	mu     sync.Mutex
	items  *list.List
	closed bool
}

// NewQueue 创建一个新的队列
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: list.New(),
	}
}

// Push 将元素加入队尾，队列关闭后返回 ErrQueueClosed
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	q.items.PushBack(item)
	return nil
}

// Drain 按插入顺序取出当前所有元素，不会阻塞
// 队列关闭后仍可取出剩余元素
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return nil
	}
	result := make([]T, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		result = append(result, e.Value.(T))
	}
	q.items.Init()
	return result
}

// Len 返回队列中的元素数量
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Close 关闭队列，可重复调用
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Closed 判断队列是否已关闭
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
