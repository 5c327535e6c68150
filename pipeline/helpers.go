package pipeline

import (
	"context"

	"github.com/fyerfyer/tsqueue/queue"
)

// From 创建一个已停止并预先填充的队列，作为流水线的起点
func From[T any](items ...T) *queue.ConcurrentQueue[T] {
	q := queue.New[T](queue.WithInitialCapacity(len(items)))
	for _, item := range items {
		q.Push(item)
	}
	q.Stop()
	return q
}

// Collect 从队列中取元素直到队列停止且为空
// ctx 结束时返回已取到的元素和 ctx 的错误
func Collect[T any](ctx context.Context, src Source[T]) ([]T, error) {
	var items []T
	for {
		item, ok, err := src.PopContext(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}

// Map 将一个无状态函数包装为 StageFunc
func Map[In, Out any](fn func(In) Out) StageFunc[In, Out] {
	return func(_ context.Context, item In) (Out, error) {
		return fn(item), nil
	}
}
