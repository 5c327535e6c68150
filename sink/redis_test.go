package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fyerfyer/tsqueue/queue"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeList 在内存中模拟 RPUSH
type fakeList struct {
	mu      sync.Mutex
	lists   map[string][]string
	calls   int
	failOn  int
	failErr error
}

func newFakeList() *fakeList {
	return &fakeList{lists: make(map[string][]string)}
}

func (f *fakeList) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.failOn > 0 && f.calls == f.failOn {
		return redis.NewIntResult(0, f.failErr)
	}
	if err := ctx.Err(); err != nil {
		return redis.NewIntResult(0, err)
	}

	for _, v := range values {
		f.lists[key] = append(f.lists[key], v.(string))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeList) get(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func TestRedisList_DrainStoppedQueue(t *testing.T) {
	fake := newFakeList()
	s := NewRedisList(fake, "jobs", WithBatchSize(2))

	q := queue.New[string]()
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		q.Push(v)
	}
	q.Stop()

	n, err := s.Drain(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, fake.get("jobs"))
	assert.Equal(t, uint64(5), s.Pushed())
	assert.Equal(t, uint64(3), s.Batches())
	assert.Equal(t, "jobs", s.Key())
}

func TestRedisList_DrainFollowsProducer(t *testing.T) {
	fake := newFakeList()
	s := NewRedisList(fake, "events")

	q := queue.New[string]()
	go func() {
		for _, v := range []string{"x", "y", "z"} {
			q.Push(v)
			time.Sleep(10 * time.Millisecond)
		}
		q.Stop()
	}()

	n, err := s.Drain(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"x", "y", "z"}, fake.get("events"))
}

func TestRedisList_PushFailure(t *testing.T) {
	fake := newFakeList()
	fake.failOn = 2
	fake.failErr = errors.New("connection reset")

	s := NewRedisList(fake, "jobs", WithBatchSize(2))

	q := queue.New[string]()
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		q.Push(v)
	}
	q.Stop()

	n, err := s.Drain(context.Background(), q)
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPushFailed)
	assert.ErrorIs(t, err, fake.failErr)

	var pushErr *PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, []string{"c", "d"}, pushErr.Items)
	assert.Equal(t, "jobs", pushErr.Key)

	// 失败批次之后的元素仍留在队列中
	assert.Equal(t, []string{"e"}, q.Drain())
}

func TestRedisList_ContextCancel(t *testing.T) {
	s := NewRedisList(newFakeList(), "jobs")
	q := queue.New[string]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := s.Drain(ctx, q)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, queue.ErrOperationCancelled)
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Greater(t, cfg.DialTimeout, time.Duration(0))
}
