package workpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTaskCanceled 表示任务在执行前被取消
var ErrTaskCanceled = errors.New("task canceled")

// TaskStatus 表示任务的当前状态
type TaskStatus int

const (
	// TaskStatusPending 表示任务正在队列中等待执行
	TaskStatusPending TaskStatus = iota
	// TaskStatusRunning 表示任务正在执行中
	TaskStatusRunning
	// TaskStatusCompleted 表示任务已成功完成
	TaskStatusCompleted
	// TaskStatusFailed 表示任务执行失败
	TaskStatusFailed
	// TaskStatusCanceled 表示任务被取消
	TaskStatusCanceled
)

// String 返回任务状态的字符串表示
func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "Pending"
	case TaskStatusRunning:
		return "Running"
	case TaskStatusCompleted:
		return "Completed"
	case TaskStatusFailed:
		return "Failed"
	case TaskStatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// terminal 判断状态是否为终止状态
func (s TaskStatus) terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCanceled
}

// Task 是工作池中执行的任务接口
type Task interface {
	// Execute 执行任务并返回结果或错误
	Execute(ctx context.Context) (interface{}, error)
}

// TaskFunc 是一个实现了Task接口的函数类型
type TaskFunc func(ctx context.Context) (interface{}, error)

// Execute 实现Task接口
func (f TaskFunc) Execute(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// TaskOption 是用于配置任务的函数选项
type TaskOption func(*taskConfig)

// taskConfig 包含任务的配置选项
type taskConfig struct {
	timeout time.Duration
}

// WithTimeout 设置任务的超时时间
func WithTimeout(timeout time.Duration) TaskOption {
	return func(tc *taskConfig) {
		tc.timeout = timeout
	}
}

// TaskHandle 表示已提交到工作池的任务，可用于检查状态和获取结果
type TaskHandle interface {
	// ID 返回任务的唯一标识符
	ID() string
	// Status 返回任务的当前状态
	Status() TaskStatus
	// Result 返回任务的结果，如果任务尚未完成则会阻塞
	Result() (interface{}, error)
	// Cancel 取消任务
	Cancel() error
	// Wait 等待任务完成
	Wait(ctx context.Context) error
}

// taskHandle 实现了TaskHandle接口，代表一个已提交的任务
type taskHandle struct {
	id         string
	task       Task
	config     taskConfig
	status     TaskStatus
	result     interface{}
	err        error
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	submitTime time.Time
	startTime  time.Time
	endTime    time.Time
	mu         sync.RWMutex
}

// newTaskHandle 创建一个新的任务句柄
func newTaskHandle(ctx context.Context, id string, task Task, options ...TaskOption) *taskHandle {
	var config taskConfig
	for _, option := range options {
		option(&config)
	}

	// 超时从任务开始执行时计算，这里只创建可取消的上下文
	taskCtx, cancel := context.WithCancel(ctx)

	return &taskHandle{
		id:         id,
		task:       task,
		config:     config,
		status:     TaskStatusPending,
		done:       make(chan struct{}),
		ctx:        taskCtx,
		cancel:     cancel,
		submitTime: time.Now(),
	}
}

// ID 返回任务的唯一标识符
func (h *taskHandle) ID() string {
	return h.id
}

// Status 返回任务的当前状态
func (h *taskHandle) Status() TaskStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Result 返回任务的结果，如果任务尚未完成则会阻塞
func (h *taskHandle) Result() (interface{}, error) {
	<-h.done
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.result, h.err
}

// Cancel 取消任务
// 排队中的任务不会再被执行，运行中的任务会收到上下文取消信号
func (h *taskHandle) Cancel() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status.terminal() {
		return fmt.Errorf("task already in terminal state: %s", h.status)
	}

	wasPending := h.status == TaskStatusPending
	h.status = TaskStatusCanceled
	h.cancel()

	// 排队中的任务直接结束；运行中的任务由worker在返回后关闭done
	if wasPending {
		h.err = ErrTaskCanceled
		h.endTime = time.Now()
		close(h.done)
	}

	return nil
}

// Wait 等待任务完成
func (h *taskHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start 将任务状态设置为运行中并返回执行用的上下文
// 任务已被取消时返回false
func (h *taskHandle) start() (context.Context, context.CancelFunc, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != TaskStatusPending {
		return nil, nil, false
	}

	h.status = TaskStatusRunning
	h.startTime = time.Now()

	if h.config.timeout > 0 {
		ctx, cancel := context.WithTimeout(h.ctx, h.config.timeout)
		return ctx, cancel, true
	}
	return h.ctx, func() {}, true
}

// finish 记录任务结果并返回最终状态
func (h *taskHandle) finish(result interface{}, err error) TaskStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endTime = time.Now()
	h.result = result
	h.err = err

	switch {
	case h.status == TaskStatusCanceled:
		// 执行期间调用了Cancel，保持取消状态
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		h.status = TaskStatusCanceled
	case err != nil:
		h.status = TaskStatusFailed
	default:
		h.status = TaskStatusCompleted
	}

	h.cancel()
	close(h.done)
	return h.status
}

// abandon 结束一个从未执行的任务，用于关闭超时后清理队列
func (h *taskHandle) abandon(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != TaskStatusPending {
		return false
	}

	h.status = TaskStatusCanceled
	h.err = err
	h.endTime = time.Now()
	h.cancel()
	close(h.done)
	return true
}

// waitTime 返回任务在队列中等待的时间
func (h *taskHandle) waitTime() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.startTime.IsZero() {
		return time.Since(h.submitTime)
	}
	return h.startTime.Sub(h.submitTime)
}

// executionTime 返回任务的执行时间
func (h *taskHandle) executionTime() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.startTime.IsZero() {
		return 0
	}

	if h.endTime.IsZero() {
		return time.Since(h.startTime)
	}

	return h.endTime.Sub(h.startTime)
}
