package queueservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fyerfyer/tsqueue/queue"
)

// InMemoryService 实现了Service接口的内存存储版本
type InMemoryService struct {
	// 队列名称到队列实例的映射
	queues map[string]queueEntry
	// 保护映射的互斥锁
	mu sync.RWMutex
}

// queueEntry 包含队列及其元数据
type queueEntry struct {
	// 队列实例
	q *queue.ConcurrentQueue[string]
	// 创建选项
	opts QueueOptions
}

// NewInMemoryService 创建一个新的内存队列服务
func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		queues: make(map[string]queueEntry),
	}
}

// NewFromConfig 创建服务并预先创建配置中声明的队列
func NewFromConfig(cfg *Config) (*InMemoryService, error) {
	s := NewInMemoryService()
	if cfg == nil {
		return s, nil
	}

	for _, qc := range cfg.Queues {
		if err := s.CreateQueue(qc.Name, qc.Options()); err != nil {
			return nil, fmt.Errorf("create queue %q from config: %w", qc.Name, err)
		}
	}
	return s, nil
}

// CreateQueue 创建一个新队列
func (s *InMemoryService) CreateQueue(name string, opts QueueOptions) error {
	if name == "" {
		return errors.New("queue name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 检查队列是否已存在
	if _, exists := s.queues[name]; exists {
		return ErrQueueExists
	}

	var queueOpts []queue.Option
	if opts.InitialCapacity > 0 {
		queueOpts = append(queueOpts, queue.WithInitialCapacity(opts.InitialCapacity))
	}

	s.queues[name] = queueEntry{
		q:    queue.New[string](queueOpts...),
		opts: opts,
	}

	return nil
}

// GetQueue 获取指定名称的队列
func (s *InMemoryService) GetQueue(name string) (*queue.ConcurrentQueue[string], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.queues[name]
	if !exists {
		return nil, ErrQueueNotFound
	}

	return entry.q, nil
}

// ListQueues 列出所有队列
func (s *InMemoryService) ListQueues() []QueueInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]QueueInfo, 0, len(s.queues))
	for name, entry := range s.queues {
		result = append(result, QueueInfo{
			Name:  name,
			Stats: entry.q.Stats(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// PushItem 向指定队列添加项目
// 已停止的队列仍然接受元素，可通过统计中的 LatePushes 观察
func (s *InMemoryService) PushItem(queueName string, item string) error {
	q, err := s.GetQueue(queueName)
	if err != nil {
		return err
	}

	q.Push(item)
	return nil
}

// PopItem 从指定队列取出项目
func (s *InMemoryService) PopItem(queueName string, timeout time.Duration) (string, error) {
	q, err := s.GetQueue(queueName)
	if err != nil {
		return "", err
	}

	// 对于CLI操作，默认使用非阻塞的TryPop
	if timeout <= 0 {
		item, ok := q.TryPop()
		if ok {
			return item, nil
		}
		if q.Stopped() {
			return "", ErrQueueStopped
		}
		return "", ErrQueueEmpty
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	item, ok, err := q.PopContext(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrQueueStopped
	}
	return item, nil
}

// StopQueue 停止指定队列
func (s *InMemoryService) StopQueue(queueName string) error {
	q, err := s.GetQueue(queueName)
	if err != nil {
		return err
	}

	q.Stop()
	return nil
}

// QueueStats 获取队列统计信息
func (s *InMemoryService) QueueStats(queueName string) (queue.Stats, error) {
	q, err := s.GetQueue(queueName)
	if err != nil {
		return queue.Stats{}, err
	}

	return q.Stats(), nil
}

// Snapshot 返回队列的元数据和统计，不取出元素
func (s *InMemoryService) Snapshot(queueName string) (QueueData, error) {
	s.mu.RLock()
	entry, exists := s.queues[queueName]
	s.mu.RUnlock()

	if !exists {
		return QueueData{}, ErrQueueNotFound
	}

	return newQueueData(queueName, entry.opts, entry.q.Stats(), nil), nil
}

// ExportQueue 停止队列并取出全部元素
// 停止在取出之前，导出之后队列不会再有新的消费者拿到元素
func (s *InMemoryService) ExportQueue(queueName string) (QueueData, error) {
	s.mu.RLock()
	entry, exists := s.queues[queueName]
	s.mu.RUnlock()

	if !exists {
		return QueueData{}, ErrQueueNotFound
	}

	entry.q.Stop()
	items := entry.q.Drain()

	return newQueueData(queueName, entry.opts, entry.q.Stats(), items), nil
}

// ImportQueue 根据快照创建队列
func (s *InMemoryService) ImportQueue(data QueueData) error {
	if err := s.CreateQueue(data.Name, data.Options); err != nil {
		return err
	}

	q, err := s.GetQueue(data.Name)
	if err != nil {
		return err
	}

	for _, item := range data.Items {
		q.Push(item)
	}
	if data.Stopped {
		q.Stop()
	}

	return nil
}

// DeleteQueue 删除队列
func (s *InMemoryService) DeleteQueue(queueName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.queues[queueName]
	if !exists {
		return ErrQueueNotFound
	}

	// 停止队列后删除，仍在等待的消费者会返回
	entry.q.Stop()
	delete(s.queues, queueName)

	return nil
}

// Close 停止所有队列
func (s *InMemoryService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.queues {
		entry.q.Stop()
	}

	s.queues = make(map[string]queueEntry)
	return nil
}

// 编译期检查
var _ Service = (*InMemoryService)(nil)
