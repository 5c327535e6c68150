package pipeline

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fyerfyer/tsqueue/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_SingleWorkerKeepsOrder(t *testing.T) {
	ctx := context.Background()

	double := NewStage("double", Map(func(v int) int { return v * 2 }))
	out := double.Run(ctx, From(1, 2, 3, 4))

	got, err := Collect[int](ctx, out)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 8}, got)
	assert.True(t, out.Stopped())

	stats := double.Stats()
	assert.Equal(t, "double", stats.Name)
	assert.Equal(t, uint64(4), stats.Processed)
	assert.Zero(t, stats.Failed)
}

func TestStage_ChainedStagesPropagateStop(t *testing.T) {
	ctx := context.Background()

	in := queue.New[int]()
	square := NewStage("square", Map(func(v int) int { return v * v }), WithWorkers(4))
	format := NewStage("format", Map(strconv.Itoa), WithWorkers(2))

	out := format.Run(ctx, square.Run(ctx, in))

	var wg sync.WaitGroup
	for p := 0; p < 3; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in.Push(base + i)
			}
		}(p * 100)
	}
	wg.Wait()
	in.Stop()

	got, err := Collect[string](ctx, out)
	require.NoError(t, err)
	require.Len(t, got, 300)

	sort.Slice(got, func(i, j int) bool {
		a, _ := strconv.Atoi(got[i])
		b, _ := strconv.Atoi(got[j])
		return a < b
	})
	assert.Equal(t, "0", got[0])
	assert.Equal(t, strconv.Itoa(299*299), got[299])
}

func TestStage_ErrorsAreDroppedAndReported(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var reported []string

	evenOnly := NewStage("even", func(_ context.Context, v int) (int, error) {
		if v%2 != 0 {
			return 0, errors.New("odd value " + strconv.Itoa(v))
		}
		return v, nil
	}, WithErrorHandler(func(stage string, err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, stage+": "+err.Error())
	}))

	got, err := Collect[int](ctx, evenOnly.Run(ctx, From(1, 2, 3, 4, 5)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, got)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"even: odd value 1", "even: odd value 3", "even: odd value 5"}, reported)
	assert.Equal(t, uint64(3), evenOnly.Stats().Failed)
}

func TestStage_RateLimit(t *testing.T) {
	ctx := context.Background()

	// 突发1个，之后每秒50个：5个元素至少需要约80ms
	limited := NewStage("limited", Map(func(v int) int { return v }),
		WithWorkers(3), WithRateLimit(50, 1))

	start := time.Now()
	got, err := Collect[int](ctx, limited.Run(ctx, From(1, 2, 3, 4, 5)))
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
}

func TestStage_ContextCancelStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := queue.New[int]()
	stage := NewStage("idle", Map(func(v int) int { return v }), WithWorkers(2))
	out := stage.Run(ctx, in)

	in.Push(1)
	v, ok := out.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// 输入队列一直未停止，取消上下文后输出队列也必须停止
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, ok := out.Pop()
		assert.False(t, ok)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("output queue was not stopped after context cancel")
	}
}

func TestCollect_ContextDone(t *testing.T) {
	q := queue.New[int]()
	q.Push(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := Collect[int](ctx, q)
	assert.Equal(t, []int{1}, got)
	assert.ErrorIs(t, err, queue.ErrOperationCancelled)
}

func TestFrom(t *testing.T) {
	q := From("a", "b")
	assert.True(t, q.Stopped())
	assert.Equal(t, []string{"a", "b"}, q.Drain())

	empty := From[int]()
	_, ok := empty.Pop()
	assert.False(t, ok)
}
