package workpool

import (
	"sync"
	"time"
)

// Metrics 包含工作池的运行时指标快照
type Metrics struct {
	// 任务相关指标
	TotalTasks     uint64        // 总提交任务数
	CompletedTasks uint64        // 已完成任务数
	FailedTasks    uint64        // 失败任务数
	CanceledTasks  uint64        // 取消任务数
	QueuedTasks    uint64        // 当前排队任务数
	AvgWaitTime    time.Duration // 平均等待时间
	AvgProcessTime time.Duration // 平均处理时间

	// 工作池状态
	ActiveWorkers int32 // 当前活跃工作协程数
	IdleWorkers   int32 // 当前空闲工作协程数
	TotalWorkers  int32 // 当前总工作协程数
}

// WorkerUtilization 计算工作协程的利用率 (0.0-1.0)
func (m Metrics) WorkerUtilization() float64 {
	if m.TotalWorkers == 0 {
		return 0.0
	}
	return float64(m.ActiveWorkers) / float64(m.TotalWorkers)
}

// TaskSuccessRate 计算任务成功率 (0.0-1.0)
func (m Metrics) TaskSuccessRate() float64 {
	total := m.CompletedTasks + m.FailedTasks
	if total == 0 {
		return 1.0
	}
	return float64(m.CompletedTasks) / float64(total)
}

// metricsRecorder 在工作协程之间共享，记录指标
type metricsRecorder struct {
	mu sync.Mutex
	m  Metrics

	totalWaitTime    time.Duration
	startedTasks     uint64
	totalProcessTime time.Duration
	processedTasks   uint64
}

// newMetricsRecorder 创建一个新的指标收集器
func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{}
}

// taskSubmitted 记录任务提交
func (r *metricsRecorder) taskSubmitted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.TotalTasks++
	r.m.QueuedTasks++
}

// taskStarted 记录任务开始执行
func (r *metricsRecorder) taskStarted(waitTime time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dequeued()
	r.startedTasks++
	r.totalWaitTime += waitTime
	r.m.AvgWaitTime = r.totalWaitTime / time.Duration(r.startedTasks)

	r.m.IdleWorkers--
	r.m.ActiveWorkers++
}

// taskCompleted 记录任务完成
func (r *metricsRecorder) taskCompleted(processingTime time.Duration, status TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch status {
	case TaskStatusCompleted:
		r.m.CompletedTasks++
	case TaskStatusCanceled:
		r.m.CanceledTasks++
	default:
		r.m.FailedTasks++
	}

	r.processedTasks++
	r.totalProcessTime += processingTime
	r.m.AvgProcessTime = r.totalProcessTime / time.Duration(r.processedTasks)

	r.m.ActiveWorkers--
	r.m.IdleWorkers++
}

// taskSkipped 记录出队时已被取消的任务
func (r *metricsRecorder) taskSkipped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dequeued()
	r.m.CanceledTasks++
}

// workerStarted 记录工作协程启动
func (r *metricsRecorder) workerStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.TotalWorkers++
	r.m.IdleWorkers++
}

// workerStopped 记录工作协程退出，退出时工作协程一定处于空闲状态
func (r *metricsRecorder) workerStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.TotalWorkers--
	r.m.IdleWorkers--
}

// 调用方必须持有锁
func (r *metricsRecorder) dequeued() {
	if r.m.QueuedTasks > 0 {
		r.m.QueuedTasks--
	}
}

// Snapshot 返回当前指标的快照
func (r *metricsRecorder) Snapshot() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m
}
