package pipeline

import (
	"log"

	"github.com/fyerfyer/tsqueue/queue"
	"golang.org/x/time/rate"
)

// Options 定义流水线阶段的配置选项
type Options struct {
	// 并发处理的工作协程数量
	Workers int

	// 每秒允许处理的元素数量，为0表示不限速
	RateLimit rate.Limit

	// 令牌桶的突发容量
	Burst int

	// 处理函数返回错误时的回调，默认写日志
	ErrorHandler func(stage string, err error)

	// 输出队列的选项
	QueueOptions []queue.Option
}

// Option 函数类型用于设置阶段选项
type Option func(*Options)

// DefaultOptions 返回默认的阶段选项
func DefaultOptions() *Options {
	return &Options{
		Workers: 1,
		ErrorHandler: func(stage string, err error) {
			log.Printf("pipeline stage %q: dropping item: %v", stage, err)
		},
	}
}

// WithWorkers 设置阶段的工作协程数量
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithRateLimit 限制阶段每秒处理的元素数量
// 所有工作协程共享同一个令牌桶
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *Options) {
		if perSecond <= 0 {
			o.RateLimit = 0
			return
		}
		if burst <= 0 {
			burst = 1
		}
		o.RateLimit = rate.Limit(perSecond)
		o.Burst = burst
	}
}

// WithErrorHandler 设置处理错误的回调
func WithErrorHandler(handler func(stage string, err error)) Option {
	return func(o *Options) {
		if handler != nil {
			o.ErrorHandler = handler
		}
	}
}

// WithQueueOptions 设置输出队列的选项
func WithQueueOptions(opts ...queue.Option) Option {
	return func(o *Options) {
		o.QueueOptions = append(o.QueueOptions, opts...)
	}
}
