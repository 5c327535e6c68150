package queue

import "time"

// Stats 表示队列的统计信息
type Stats struct {
	// 创建时间
	CreatedAt time.Time

	// 当前元素数量
	Size int

	// 历史最大元素数量
	PeakSize int

	// 入队操作次数
	Pushed uint64

	// 出队操作次数
	Popped uint64

	// 出队时因队列为空而阻塞的次数
	BlockedPops uint64

	// 停止之后仍然发生的入队次数
	LatePushes uint64

	// 队列是否已停止
	Stopped bool
}

// IsEmpty 返回队列是否为空
func (s Stats) IsEmpty() bool {
	return s.Size == 0
}

// Drained 返回队列是否已经停止且没有剩余元素
// 此时所有消费者的Pop都会立即返回false
func (s Stats) Drained() bool {
	return s.Stopped && s.Size == 0
}

// InFlight 返回入队但尚未出队的元素数量
func (s Stats) InFlight() uint64 {
	if s.Popped > s.Pushed {
		return 0
	}
	return s.Pushed - s.Popped
}
