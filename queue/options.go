package queue

// defaultInitialCapacity 是内部环形缓冲区的默认初始大小
const defaultInitialCapacity = 16

// Options 定义队列的配置选项
type Options struct {
	// 内部缓冲区的初始大小，队列本身无界，满了会自动扩容
	InitialCapacity int

	// 事件监听器列表
	EventListeners []EventListener
}

// Option 函数类型用于设置队列选项
type Option func(*Options)

// DefaultOptions 返回默认的队列选项
func DefaultOptions() *Options {
	return &Options{
		InitialCapacity: defaultInitialCapacity,
		EventListeners:  nil,
	}
}

// WithInitialCapacity 设置内部缓冲区的初始大小
func WithInitialCapacity(capacity int) Option {
	return func(o *Options) {
		if capacity <= 0 {
			capacity = defaultInitialCapacity
		}
		o.InitialCapacity = capacity
	}
}

// WithEventListener 添加事件监听器
func WithEventListener(listener EventListener) Option {
	return func(o *Options) {
		if listener == nil {
			return
		}
		o.EventListeners = append(o.EventListeners, listener)
	}
}
