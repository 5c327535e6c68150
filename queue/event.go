package queue

import "sync"

// EventType 表示队列事件的类型
type EventType int

const (
	// EventPush 元素入队事件
	EventPush EventType = iota

	// EventPop 元素出队事件
	EventPop

	// EventEmpty 出队后队列变空事件
	EventEmpty

	// EventStop 队列停止事件，只会发出一次
	EventStop

	// EventLatePush 队列停止后仍有元素入队
	EventLatePush
)

// String 返回事件类型的字符串表示
func (t EventType) String() string {
	switch t {
	case EventPush:
		return "push"
	case EventPop:
		return "pop"
	case EventEmpty:
		return "empty"
	case EventStop:
		return "stop"
	case EventLatePush:
		return "late-push"
	default:
		return "unknown"
	}
}

// Event 表示队列中发生的事件
type Event struct {
	// 事件类型
	Type EventType

	// 事件发生后队列中的元素数量
	Size int

	// 与事件相关联的元素（如果有）
	Item interface{}
}

// EventListener 是接收队列事件的函数接口
// 监听器在队列锁之外被调用，可以安全地回调队列方法
type EventListener func(Event)

// EventEmitter 提供事件通知功能
type EventEmitter struct {
	mu        sync.RWMutex
	listeners []EventListener
}

// NewEventEmitter 创建一个新的事件发射器
func NewEventEmitter(listeners []EventListener) *EventEmitter {
	copied := make([]EventListener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			copied = append(copied, l)
		}
	}
	return &EventEmitter{
		listeners: copied,
	}
}

// AddListener 添加一个事件监听器
func (e *EventEmitter) AddListener(listener EventListener) {
	if listener == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Emit 发送事件给所有监听器
func (e *EventEmitter) Emit(evt Event) {
	e.mu.RLock()
	listeners := e.listeners
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(evt)
	}
}

// hasListeners 没有监听器时可以跳过事件构造
func (e *EventEmitter) hasListeners() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners) > 0
}
