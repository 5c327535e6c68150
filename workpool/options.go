package workpool

import (
	"time"

	"github.com/fyerfyer/tsqueue/queue"
)

// WorkPoolOption 是用于配置工作池的函数选项
type WorkPoolOption func(*WorkPoolConfig)

// WorkPoolConfig 包含工作池的所有配置选项
type WorkPoolConfig struct {
	// 工作协程数量，工作池运行期间固定不变
	workers int

	// 任务队列选项，透传给 queue.New
	queueOptions []queue.Option

	// 任务设置
	defaultTaskTimeout time.Duration

	// 日志级别
	logLevel LogLevel
}

// LogLevel 表示日志级别
type LogLevel int

const (
	// LogLevelOff 关闭日志
	LogLevelOff LogLevel = iota
	// LogLevelError 只记录错误
	LogLevelError
	// LogLevelInfo 记录信息和错误
	LogLevelInfo
	// LogLevelDebug 记录所有信息，包括调试信息
	LogLevelDebug
)

// DefaultConfig 返回工作池的默认配置
func DefaultConfig() WorkPoolConfig {
	return WorkPoolConfig{
		workers:            4,             // 默认工作协程数
		defaultTaskTimeout: 0,             // 默认无超时
		logLevel:           LogLevelError, // 默认只记录错误
	}
}

// WithWorkers 设置工作协程数量
func WithWorkers(count int) WorkPoolOption {
	return func(config *WorkPoolConfig) {
		if count > 0 {
			config.workers = count
		}
	}
}

// WithQueueOptions 设置任务队列的选项，例如事件监听器
func WithQueueOptions(opts ...queue.Option) WorkPoolOption {
	return func(config *WorkPoolConfig) {
		config.queueOptions = append(config.queueOptions, opts...)
	}
}

// WithDefaultTaskTimeout 设置任务的默认超时时间
func WithDefaultTaskTimeout(timeout time.Duration) WorkPoolOption {
	return func(config *WorkPoolConfig) {
		if timeout >= 0 {
			config.defaultTaskTimeout = timeout
		}
	}
}

// WithLogLevel 设置日志级别
func WithLogLevel(level LogLevel) WorkPoolOption {
	return func(config *WorkPoolConfig) {
		config.logLevel = level
	}
}
