package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConcurrentQueue 是一个无界的线程安全阻塞FIFO队列
//
// 元素缓冲区和停止标志由同一把互斥锁保护，出队等待使用绑定在这把锁上的条件变量。
// 队列只有两个状态：运行中和已停止。Stop之后的Pop会先取完剩余元素，
// 然后返回零值和false，这是消费者循环的退出条件。
type ConcurrentQueue[T any] struct {
	// 队列选项
	opts *Options

	// 内部数据存储，使用环形缓冲区
	data []T

	// 队列头部索引
	head int

	// 队列尾部索引
	tail int

	// 当前队列大小
	size int

	// 队列是否已停止，只会从false变为true
	stopped bool

	// 保护data、head、tail、size、stopped和stats的互斥锁
	mu sync.Mutex

	// 队列非空或已停止条件变量
	notEmpty *sync.Cond

	// 事件发射器
	events *EventEmitter

	// 统计信息
	stats Stats
}

// New 创建一个新的空队列，处于运行状态
func New[T any](options ...Option) *ConcurrentQueue[T] {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(opts)
	}

	capacity := opts.InitialCapacity
	if capacity <= 0 {
		capacity = defaultInitialCapacity
	}

	q := &ConcurrentQueue[T]{
		opts:  opts,
		data:  make([]T, capacity),
		stats: Stats{CreatedAt: time.Now()},
	}

	q.notEmpty = sync.NewCond(&q.mu)
	q.events = NewEventEmitter(opts.EventListeners)

	return q
}

// Push 将元素添加到队列尾部，然后唤醒一个等待的消费者
// 总是返回true，停止后的入队同样会被接受
func (q *ConcurrentQueue[T]) Push(item T) bool {
	q.mu.Lock()

	if q.size == len(q.data) {
		q.expand()
	}

	q.data[q.tail] = item
	q.tail = (q.tail + 1) % len(q.data)
	q.size++

	q.stats.Pushed++
	if q.size > q.stats.PeakSize {
		q.stats.PeakSize = q.size
	}

	late := q.stopped
	if late {
		q.stats.LatePushes++
	}
	size := q.size

	q.mu.Unlock()
	q.notEmpty.Signal()

	if q.events.hasListeners() {
		if late {
			q.events.Emit(Event{Type: EventLatePush, Item: item, Size: size})
		}
		q.events.Emit(Event{Type: EventPush, Item: item, Size: size})
	}

	return true
}

// Pop 从队列头部取出元素
// 队列为空且未停止时阻塞，直到有元素入队或队列停止。
// 只要还有元素就返回元素，即使队列已经停止；队列为空且已停止时返回零值和false。
func (q *ConcurrentQueue[T]) Pop() (T, bool) {
	q.mu.Lock()

	if q.size == 0 && !q.stopped {
		q.stats.BlockedPops++
	}

	// 每次被唤醒都要重新检查条件，可能是虚假唤醒或者元素已被其他消费者取走
	for q.size == 0 && !q.stopped {
		q.notEmpty.Wait()
	}

	if q.size == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}

	item, size := q.take()
	q.mu.Unlock()

	q.emitPop(item, size)
	return item, true
}

// PopContext 与Pop相同，但在ctx结束时停止等待
// 返回值中的bool表示是否取到元素；队列停止且为空时错误为nil，
// 上下文结束时返回包装了ctx.Err()的ErrOperationCancelled。
// 等待期间如果有元素到达，优先返回元素。
func (q *ConcurrentQueue[T]) PopContext(ctx context.Context) (T, bool, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrOperationCancelled, err)
	}

	q.mu.Lock()

	if q.size == 0 && !q.stopped {
		q.stats.BlockedPops++

		// 上下文结束时在锁内广播，保证等待者不会错过唤醒
		release := context.AfterFunc(ctx, func() {
			q.mu.Lock()
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		defer release()

		for q.size == 0 && !q.stopped && ctx.Err() == nil {
			q.notEmpty.Wait()
		}
	}

	if q.size > 0 {
		item, size := q.take()
		q.mu.Unlock()
		q.emitPop(item, size)
		return item, true, nil
	}

	stopped := q.stopped
	q.mu.Unlock()

	if stopped {
		return zero, false, nil
	}
	return zero, false, fmt.Errorf("%w: %w", ErrOperationCancelled, ctx.Err())
}

// TryPop 尝试从队列头部取出元素，但不阻塞
// 队列为空时立即返回零值和false
func (q *ConcurrentQueue[T]) TryPop() (T, bool) {
	q.mu.Lock()

	if q.size == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}

	item, size := q.take()
	q.mu.Unlock()

	q.emitPop(item, size)
	return item, true
}

// Peek 查看队列头部元素但不移除
func (q *ConcurrentQueue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}

	return q.data[q.head], true
}

// Drain 一次性取出队列中的所有元素，按FIFO顺序返回
// 不会阻塞，队列为空时返回nil
func (q *ConcurrentQueue[T]) Drain() []T {
	q.mu.Lock()

	if q.size == 0 {
		q.mu.Unlock()
		return nil
	}

	items := make([]T, 0, q.size)
	for q.size > 0 {
		item, _ := q.take()
		items = append(items, item)
	}
	q.mu.Unlock()

	if q.events.hasListeners() {
		for i, item := range items {
			q.events.Emit(Event{Type: EventPop, Item: item, Size: len(items) - i - 1})
		}
		q.events.Emit(Event{Type: EventEmpty, Size: 0})
	}

	return items
}

// Stop 停止队列并唤醒所有阻塞在Pop上的消费者
// 多次调用与一次调用效果相同
func (q *ConcurrentQueue[T]) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	size := q.size
	q.mu.Unlock()

	// 所有等待者都需要观察到状态变化，所以必须广播
	q.notEmpty.Broadcast()

	q.events.Emit(Event{Type: EventStop, Size: size})
}

// AddListener 在队列创建后添加事件监听器
// 只影响之后发生的事件
func (q *ConcurrentQueue[T]) AddListener(listener EventListener) {
	q.events.AddListener(listener)
}

// Stopped 检查队列是否已停止
func (q *ConcurrentQueue[T]) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// Size 返回队列当前元素数量
// 返回值只是快照，不能用于同步决策
func (q *ConcurrentQueue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// IsEmpty 检查队列是否为空
func (q *ConcurrentQueue[T]) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size == 0
}

// Stats 返回队列的统计信息
func (q *ConcurrentQueue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	statsCopy := q.stats
	statsCopy.Size = q.size
	statsCopy.Stopped = q.stopped
	return statsCopy
}

// 内部方法 - 取出头部元素，调用方必须持有锁且队列非空
func (q *ConcurrentQueue[T]) take() (T, int) {
	var zero T

	item := q.data[q.head]
	q.data[q.head] = zero // 清空引用，帮助GC
	q.head = (q.head + 1) % len(q.data)
	q.size--

	q.stats.Popped++
	return item, q.size
}

// 内部方法 - 出队后发送事件
func (q *ConcurrentQueue[T]) emitPop(item T, size int) {
	if !q.events.hasListeners() {
		return
	}
	q.events.Emit(Event{Type: EventPop, Item: item, Size: size})
	if size == 0 {
		q.events.Emit(Event{Type: EventEmpty, Size: 0})
	}
}

// 内部方法 - 扩展缓冲区容量，调用方必须持有锁
func (q *ConcurrentQueue[T]) expand() {
	oldCapacity := len(q.data)
	newData := make([]T, oldCapacity*2) // 翻倍扩容

	// 按逻辑顺序复制元素，头部移到索引0
	for i := 0; i < q.size; i++ {
		newData[i] = q.data[(q.head+i)%oldCapacity]
	}

	q.head = 0
	q.tail = q.size
	q.data = newData
}
