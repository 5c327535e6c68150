package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/fyerfyer/tsqueue/queue"
	"golang.org/x/time/rate"
)

// StageFunc 是阶段对单个元素的处理函数
type StageFunc[In, Out any] func(ctx context.Context, item In) (Out, error)

// Source 是阶段的输入，queue.ConcurrentQueue 满足该接口
type Source[T any] interface {
	// PopContext 阻塞取出下一个元素，输入结束时返回false
	PopContext(ctx context.Context) (T, bool, error)
}

// Stage 是流水线中的一个处理阶段
//
// 每个工作协程从输入队列取元素直到取空，处理后推入输出队列。
// 所有工作协程退出后输出队列被停止，下游阶段因此也会在取空后结束。
type Stage[In, Out any] struct {
	name string
	fn   StageFunc[In, Out]
	opts *Options

	limiter *rate.Limiter

	processed atomic.Uint64
	failed    atomic.Uint64
}

// StageStats 是阶段的处理统计
type StageStats struct {
	Name      string
	Processed uint64
	Failed    uint64
}

// NewStage 创建一个新的处理阶段
func NewStage[In, Out any](name string, fn StageFunc[In, Out], options ...Option) *Stage[In, Out] {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	s := &Stage[In, Out]{
		name: name,
		fn:   fn,
		opts: opts,
	}

	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(opts.RateLimit, opts.Burst)
	}

	return s
}

// Name 返回阶段名称
func (s *Stage[In, Out]) Name() string {
	return s.name
}

// Run 启动阶段的工作协程并立即返回输出队列
// ctx 结束时工作协程不再取新元素，输出队列照常停止
func (s *Stage[In, Out]) Run(ctx context.Context, in Source[In]) *queue.ConcurrentQueue[Out] {
	out := queue.New[Out](s.opts.QueueOptions...)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, in, out)
		}()
	}

	go func() {
		wg.Wait()
		out.Stop()
	}()

	return out
}

// Stats 返回阶段的处理统计
func (s *Stage[In, Out]) Stats() StageStats {
	return StageStats{
		Name:      s.name,
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
	}
}

// work 是单个工作协程的循环
func (s *Stage[In, Out]) work(ctx context.Context, in Source[In], out *queue.ConcurrentQueue[Out]) {
	for {
		item, ok, err := in.PopContext(ctx)
		if err != nil || !ok {
			return
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				// 取出的元素无法处理，按失败计入
				s.fail(err)
				return
			}
		}

		result, err := s.fn(ctx, item)
		if err != nil {
			s.fail(err)
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return
			}
			continue
		}

		s.processed.Add(1)
		out.Push(result)
	}
}

func (s *Stage[In, Out]) fail(err error) {
	s.failed.Add(1)
	s.opts.ErrorHandler(s.name, err)
}
