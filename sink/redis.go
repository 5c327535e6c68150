package sink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrPushFailed 表示向 Redis 写入一批元素失败
var ErrPushFailed = errors.New("redis push failed")

var _ ListPusher = (*redis.Client)(nil)

// PushError 携带写入失败的那一批元素，调用方可以自行重试
type PushError struct {
	Key   string
	Items []string
	Err   error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("%v: key %q, %d items: %v", ErrPushFailed, e.Key, len(e.Items), e.Err)
}

// Unwrap 同时支持 errors.Is(err, ErrPushFailed) 和底层错误的匹配
func (e *PushError) Unwrap() []error {
	return []error{ErrPushFailed, e.Err}
}

// RedisConfig 定义 Redis 连接配置
type RedisConfig struct {
	// 连接设置
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// 连接池大小
	PoolSize int `yaml:"pool_size"`

	// 超时设置
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultRedisConfig 返回默认的 Redis 配置
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// NewRedisClient 创建 Redis 客户端并立即验证连接
func NewRedisClient(ctx context.Context, config *RedisConfig) (*redis.Client, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Username:     config.Username,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", config.Addr, err)
	}

	return client, nil
}

// ListPusher 是 RedisList 用到的 Redis 命令子集，*redis.Client 满足该接口
type ListPusher interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Source 是被排空的队列，queue.ConcurrentQueue[string] 满足该接口
type Source interface {
	PopContext(ctx context.Context) (string, bool, error)
	TryPop() (string, bool)
}

// RedisList 把队列中的元素按顺序追加到一个 Redis 列表中
type RedisList struct {
	client    ListPusher
	key       string
	batchSize int
	timeout   time.Duration

	pushed  atomic.Uint64
	batches atomic.Uint64
}

// Option 函数类型用于设置 RedisList 选项
type Option func(*RedisList)

// WithBatchSize 设置每次 RPUSH 最多携带的元素数量
func WithBatchSize(n int) Option {
	return func(s *RedisList) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithPushTimeout 设置单次 RPUSH 的超时时间，0表示只受调用方上下文控制
func WithPushTimeout(d time.Duration) Option {
	return func(s *RedisList) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// NewRedisList 创建一个写入指定键的 RedisList
func NewRedisList(client ListPusher, key string, opts ...Option) *RedisList {
	s := &RedisList{
		client:    client,
		key:       key,
		batchSize: 100,
		timeout:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key 返回目标列表的键
func (s *RedisList) Key() string {
	return s.key
}

// Pushed 返回已经成功写入的元素数量
func (s *RedisList) Pushed() uint64 {
	return s.pushed.Load()
}

// Batches 返回成功执行的 RPUSH 次数
func (s *RedisList) Batches() uint64 {
	return s.batches.Load()
}

// Drain 阻塞地从队列取元素写入 Redis，直到队列停止且为空
// 每批先阻塞等待一个元素，再非阻塞地取出当前可用的元素凑满一批。
// 返回本次写入的元素数量；写入失败时返回 *PushError，失败批次已从队列中取出，
// 由调用方决定重试或放回。
func (s *RedisList) Drain(ctx context.Context, src Source) (int, error) {
	total := 0
	batch := make([]string, 0, s.batchSize)

	for {
		first, ok, err := src.PopContext(ctx)
		if err != nil {
			return total, err
		}
		if !ok {
			return total, nil
		}

		batch = append(batch[:0], first)
		for len(batch) < s.batchSize {
			item, ok := src.TryPop()
			if !ok {
				break
			}
			batch = append(batch, item)
		}

		if err := s.push(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
}

// push 执行一次 RPUSH
func (s *RedisList) push(ctx context.Context, batch []string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	values := make([]interface{}, len(batch))
	for i, item := range batch {
		values[i] = item
	}

	if err := s.client.RPush(ctx, s.key, values...).Err(); err != nil {
		failed := make([]string, len(batch))
		copy(failed, batch)
		return &PushError{Key: s.key, Items: failed, Err: err}
	}

	s.pushed.Add(uint64(len(batch)))
	s.batches.Add(1)
	return nil
}
