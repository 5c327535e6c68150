package queueservice

import (
	"errors"
	"time"

	"github.com/fyerfyer/tsqueue/queue"
)

var (
	// ErrQueueNotFound 表示请求的队列不存在
	ErrQueueNotFound = errors.New("queue not found")

	// ErrQueueExists 表示队列已存在
	ErrQueueExists = errors.New("queue already exists")

	// ErrQueueEmpty 表示非阻塞出队时队列中没有元素
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrQueueStopped 表示队列已经停止且没有剩余元素
	ErrQueueStopped = errors.New("queue is stopped and drained")
)

// QueueOptions 表示创建队列时的选项
type QueueOptions struct {
	// 内部缓冲区初始大小，0表示使用默认值
	InitialCapacity int `yaml:"initial_capacity" json:"initialCapacity,omitempty"`
}

// QueueInfo 包含队列的基本信息
type QueueInfo struct {
	// 队列名称
	Name string
	// 队列状态
	Stats queue.Stats
}

// Service 定义队列服务接口
type Service interface {
	// CreateQueue 创建一个新队列
	CreateQueue(name string, opts QueueOptions) error

	// GetQueue 获取指定名称的队列
	GetQueue(name string) (*queue.ConcurrentQueue[string], error)

	// ListQueues 列出所有队列，按名称排序
	ListQueues() []QueueInfo

	// PushItem 向指定队列添加项目
	PushItem(queueName string, item string) error

	// PopItem 从指定队列取出项目
	// timeout 为0时不阻塞，否则最多等待 timeout
	PopItem(queueName string, timeout time.Duration) (string, error)

	// StopQueue 停止指定队列，阻塞的消费者会被唤醒
	StopQueue(queueName string) error

	// QueueStats 获取队列统计信息
	QueueStats(queueName string) (queue.Stats, error)

	// Snapshot 返回队列的可序列化快照，不包含元素
	Snapshot(queueName string) (QueueData, error)

	// ExportQueue 停止队列并取出全部剩余元素
	ExportQueue(queueName string) (QueueData, error)

	// ImportQueue 根据快照创建队列并按顺序写入元素
	ImportQueue(data QueueData) error

	// DeleteQueue 删除队列
	DeleteQueue(queueName string) error

	// Close 关闭所有队列
	Close() error
}
