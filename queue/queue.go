package queue

// Queue 定义并发队列的基本操作接口
// 泛型参数T代表队列中存储的元素类型
type Queue[T any] interface {
	// Push 将元素添加到队列尾部，总是返回true
	// 队列停止后仍然可以入队
	Push(item T) bool

	// Pop 从队列头部移除并返回元素
	// 队列为空且未停止时阻塞等待
	// 队列为空且已停止时返回零值和false
	Pop() (T, bool)

	// Stop 将队列切换到停止状态并唤醒所有等待者
	// 重复调用没有额外效果
	Stop()

	// Size 返回队列当前元素数量
	Size() int

	// IsEmpty 检查队列是否为空
	IsEmpty() bool
}

var _ Queue[int] = (*ConcurrentQueue[int])(nil)
