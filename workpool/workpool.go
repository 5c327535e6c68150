package workpool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fyerfyer/tsqueue/queue"
	"github.com/google/uuid"
)

var (
	// ErrPoolNotRunning 表示工作池不在运行状态，无法提交任务
	ErrPoolNotRunning = errors.New("work pool is not running")

	// ErrPoolStopped 表示工作池已经停止，任务队列无法重新启用
	ErrPoolStopped = errors.New("work pool is stopped")
)

// WorkPoolStatus 工作池的状态
type WorkPoolStatus int

const (
	// StatusIdle 空闲状态
	StatusIdle WorkPoolStatus = iota
	// StatusRunning 运行状态
	StatusRunning
	// StatusShuttingDown 正在关闭
	StatusShuttingDown
	// StatusStopped 已停止
	StatusStopped
)

// String 返回工作池状态的字符串表示
func (s WorkPoolStatus) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusShuttingDown:
		return "ShuttingDown"
	case StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// WorkPool 管理一组工作协程，处理提交的任务
//
// 任务按提交顺序进入一个 queue.ConcurrentQueue，每个工作协程循环调用 Pop，
// 直到队列停止且取空后退出。Shutdown 只需要停止队列，工作协程会先处理完剩余任务。
type WorkPool struct {
	// 工作池配置
	config WorkPoolConfig

	// 任务队列
	taskQueue *queue.ConcurrentQueue[*taskHandle]

	// 状态控制
	status     WorkPoolStatus
	statusLock sync.RWMutex

	// 工作协程控制
	workerWg sync.WaitGroup

	// 指标收集
	metrics *metricsRecorder

	// 工作池上下文，用于全局取消
	ctx    context.Context
	cancel context.CancelFunc
}

// New 创建一个新的工作池
func New(options ...WorkPoolOption) *WorkPool {
	// 加载默认配置
	config := DefaultConfig()

	// 应用选项
	for _, option := range options {
		option(&config)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkPool{
		config:    config,
		taskQueue: queue.New[*taskHandle](config.queueOptions...),
		status:    StatusIdle,
		metrics:   newMetricsRecorder(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start 启动工作池，开始处理任务
func (wp *WorkPool) Start() error {
	wp.statusLock.Lock()
	defer wp.statusLock.Unlock()

	switch wp.status {
	case StatusRunning:
		return errors.New("work pool already running")
	case StatusShuttingDown:
		return errors.New("work pool is shutting down")
	case StatusStopped:
		return ErrPoolStopped
	}

	wp.status = StatusRunning

	for i := 0; i < wp.config.workers; i++ {
		wp.addWorker()
	}

	if wp.config.logLevel >= LogLevelInfo {
		log.Printf("WorkPool started with %d workers", wp.config.workers)
	}

	return nil
}

// Shutdown 优雅关闭工作池，等待队列中的任务全部完成
// ctx 结束时取消正在运行的任务，放弃仍在排队的任务，并返回 ctx.Err()
func (wp *WorkPool) Shutdown(ctx context.Context) error {
	wp.statusLock.Lock()
	switch wp.status {
	case StatusStopped, StatusShuttingDown:
		wp.statusLock.Unlock()
		return nil
	case StatusIdle:
		// 从未启动过，没有工作协程需要等待
		wp.status = StatusStopped
		wp.statusLock.Unlock()
		wp.taskQueue.Stop()
		wp.cancel()
		return nil
	}
	wp.status = StatusShuttingDown
	wp.statusLock.Unlock()

	if wp.config.logLevel >= LogLevelInfo {
		log.Printf("WorkPool shutting down, %d tasks still queued", wp.taskQueue.Size())
	}

	// 停止队列，工作协程取完剩余任务后退出
	wp.taskQueue.Stop()

	doneCh := make(chan struct{})
	go func() {
		wp.workerWg.Wait()
		close(doneCh)
	}()

	var err error
	select {
	case <-doneCh:
	case <-ctx.Done():
		err = ctx.Err()
		abandoned := wp.abandonQueued(err)
		wp.cancel() // 取消所有正在运行的任务
		if wp.config.logLevel >= LogLevelError {
			log.Printf("WorkPool shutdown context done, abandoned %d queued tasks", abandoned)
		}
	}

	wp.cancel()

	wp.statusLock.Lock()
	wp.status = StatusStopped
	wp.statusLock.Unlock()

	if wp.config.logLevel >= LogLevelInfo {
		log.Printf("WorkPool shutdown complete")
	}

	return err
}

// Submit 提交一个任务到工作池
func (wp *WorkPool) Submit(task Task, options ...TaskOption) (TaskHandle, error) {
	if task == nil {
		return nil, errors.New("task must not be nil")
	}

	// 持有读锁直到入队完成，Shutdown 停止队列之前不会有任务在途
	wp.statusLock.RLock()
	defer wp.statusLock.RUnlock()

	if wp.status != StatusRunning {
		return nil, fmt.Errorf("%w, current status: %s", ErrPoolNotRunning, wp.status)
	}

	// 合并默认超时选项
	if wp.config.defaultTaskTimeout > 0 {
		options = append([]TaskOption{WithTimeout(wp.config.defaultTaskTimeout)}, options...)
	}

	handle := newTaskHandle(wp.ctx, uuid.New().String(), task, options...)

	wp.metrics.taskSubmitted()
	wp.taskQueue.Push(handle)

	if wp.config.logLevel >= LogLevelDebug {
		log.Printf("Task submitted: %s", handle.id)
	}

	return handle, nil
}

// Status 返回工作池的当前状态
func (wp *WorkPool) Status() WorkPoolStatus {
	wp.statusLock.RLock()
	defer wp.statusLock.RUnlock()
	return wp.status
}

// GetMetrics 返回工作池的指标快照
func (wp *WorkPool) GetMetrics() Metrics {
	return wp.metrics.Snapshot()
}

// QueueStats 返回任务队列的统计信息
func (wp *WorkPool) QueueStats() queue.Stats {
	return wp.taskQueue.Stats()
}

// WorkerCount 返回当前工作协程数量
func (wp *WorkPool) WorkerCount() int {
	return int(wp.metrics.Snapshot().TotalWorkers)
}

// QueueSize 返回当前队列中等待的任务数量
func (wp *WorkPool) QueueSize() int {
	return wp.taskQueue.Size()
}

// TaskCount 返回工作池处理的任务总数
func (wp *WorkPool) TaskCount() uint64 {
	return wp.metrics.Snapshot().TotalTasks
}

// abandonQueued 取出队列中尚未执行的任务并将其标记为取消
func (wp *WorkPool) abandonQueued(cause error) int {
	abandoned := 0
	for _, h := range wp.taskQueue.Drain() {
		if h.abandon(cause) {
			abandoned++
		}
		wp.metrics.taskSkipped()
	}
	return abandoned
}

// addWorker 添加一个工作协程
func (wp *WorkPool) addWorker() {
	wp.workerWg.Add(1)
	wp.metrics.workerStarted()
	go wp.runWorker()
}

// runWorker 工作协程主循环
func (wp *WorkPool) runWorker() {
	defer func() {
		wp.metrics.workerStopped()
		wp.workerWg.Done()
	}()

	for {
		// 队列停止且为空时返回false，工作协程退出
		task, ok := wp.taskQueue.Pop()
		if !ok {
			return
		}

		ctx, cancel, ok := task.start()
		if !ok {
			// 排队期间已被取消
			wp.metrics.taskSkipped()
			continue
		}

		wp.metrics.taskStarted(task.waitTime())

		result, err := task.task.Execute(ctx)
		cancel()

		status := task.finish(result, err)
		processingTime := task.executionTime()

		wp.metrics.taskCompleted(processingTime, status)

		if wp.config.logLevel >= LogLevelDebug {
			if err != nil {
				log.Printf("Task %s finished as %s in %v: %v",
					task.id, status, processingTime, err)
			} else {
				log.Printf("Task %s completed successfully in %v",
					task.id, processingTime)
			}
		}
	}
}
