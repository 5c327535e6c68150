package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentQueue_PushPopSingleGoroutine(t *testing.T) {
	q := New[int]()

	assert.True(t, q.Push(1))
	assert.True(t, q.Push(2))
	assert.True(t, q.Push(3))

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	assert.True(t, q.IsEmpty())
}

func TestConcurrentQueue_FIFOAcrossGrowth(t *testing.T) {
	// 初始容量很小，强制环形缓冲区在回绕之后扩容
	q := New[int](WithInitialCapacity(4))

	next := 0
	expected := 0

	// 先入队出队几次，让head离开索引0
	for i := 0; i < 3; i++ {
		q.Push(next)
		next++
	}
	for i := 0; i < 2; i++ {
		got, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, expected, got)
		expected++
	}

	for i := 0; i < 100; i++ {
		q.Push(next)
		next++
	}

	for expected < next {
		got, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, expected, got)
		expected++
	}
	assert.True(t, q.IsEmpty())
}

func TestConcurrentQueue_SizeAccounting(t *testing.T) {
	q := New[int]()
	assert.Equal(t, 0, q.Size())

	q.Push(10)
	q.Push(20)
	assert.Equal(t, 2, q.Size())

	_, _ = q.Pop()
	assert.Equal(t, 1, q.Size())

	_, _ = q.Pop()
	assert.Equal(t, 0, q.Size())
	assert.True(t, q.IsEmpty())
}

func TestConcurrentQueue_StopDrainsThenEmpties(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Push("b")
	q.Stop()

	got, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", got)

	got, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", got)

	got, ok = q.Pop()
	assert.False(t, ok)
	assert.Equal(t, "", got)

	// 停止且为空之后，每次Pop都立即返回
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestConcurrentQueue_StopWithProducer(t *testing.T) {
	q := New[int]()

	go func() {
		for i := 0; i < 5; i++ {
			q.Push(i)
			time.Sleep(10 * time.Millisecond)
		}
		q.Stop()
	}()

	var consumed []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			consumed = append(consumed, v)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not exit after Stop")
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, consumed)
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestConcurrentQueue_PopBlocksWhenEmpty(t *testing.T) {
	q := New[int]()

	result := make(chan int, 1)
	go func() {
		v, ok := q.Pop()
		if ok {
			result <- v
		}
		close(result)
	}()

	select {
	case <-result:
		t.Fatal("Pop returned on an empty running queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.Push(42)

	select {
	case v, ok := <-result:
		require.True(t, ok)
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}

	assert.Equal(t, 0, q.Size())
}

func TestConcurrentQueue_StopUnblocksPop(t *testing.T) {
	q := New[int]()

	var popCompleted atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Pop(); !ok {
			popCompleted.Store(true)
		}
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, popCompleted.Load(), "Pop should still be waiting")

	q.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not unblock Pop")
	}
	assert.True(t, popCompleted.Load())
}

func TestConcurrentQueue_StopWakesAllWaiters(t *testing.T) {
	q := New[int]()
	const waiters = 8

	var wg sync.WaitGroup
	var absent atomic.Int32
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := q.Pop(); !ok {
				absent.Add(1)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	q.Stop()

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("not all waiters were woken by Stop")
	}
	assert.Equal(t, int32(waiters), absent.Load())
}

func TestConcurrentQueue_StopIsIdempotent(t *testing.T) {
	var stops atomic.Int32
	q := New[int](WithEventListener(func(evt Event) {
		if evt.Type == EventStop {
			stops.Add(1)
		}
	}))

	q.Stop()
	q.Stop()
	q.Stop()

	assert.True(t, q.Stopped())
	assert.Equal(t, int32(1), stops.Load())
}

func TestConcurrentQueue_PushAfterStop(t *testing.T) {
	var late atomic.Int32
	q := New[int](WithEventListener(func(evt Event) {
		if evt.Type == EventLatePush {
			late.Add(1)
		}
	}))

	q.Stop()
	assert.True(t, q.Push(7), "Push after Stop is still accepted")

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = q.Pop()
	assert.False(t, ok)

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.LatePushes)
	assert.Equal(t, int32(1), late.Load())
}

func TestConcurrentQueue_MultiProducerMultiConsumer(t *testing.T) {
	q := New[int]()

	const producers = 3
	const consumers = 3
	const itemsPerProducer = 10

	var totalConsumed atomic.Int32

	var producerWg sync.WaitGroup
	for i := 0; i < producers; i++ {
		producerWg.Add(1)
		go func(id int) {
			defer producerWg.Done()
			for j := 0; j < itemsPerProducer; j++ {
				q.Push(id*100 + j)
			}
		}(i)
	}

	var consumerWg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if _, ok := q.Pop(); !ok {
					return
				}
				totalConsumed.Add(1)
			}
		}()
	}

	producerWg.Wait()
	q.Stop()
	consumerWg.Wait()

	assert.Equal(t, int32(producers*itemsPerProducer), totalConsumed.Load())
}

func TestConcurrentQueue_NoLossNoDuplicates(t *testing.T) {
	q := New[int](WithInitialCapacity(2))

	const producers = 8
	const consumers = 6
	const itemsPerProducer = 2000
	total := producers * itemsPerProducer

	var seen sync.Map
	var consumed atomic.Int64
	var duplicates atomic.Int64

	var consumerWg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					return
				}
				if _, loaded := seen.LoadOrStore(v, struct{}{}); loaded {
					duplicates.Add(1)
				}
				consumed.Add(1)
			}
		}()
	}

	var producerWg sync.WaitGroup
	for p := 0; p < producers; p++ {
		producerWg.Add(1)
		go func(base int) {
			defer producerWg.Done()
			for j := 0; j < itemsPerProducer; j++ {
				q.Push(base + j)
			}
		}(p * itemsPerProducer)
	}

	producerWg.Wait()
	q.Stop()
	consumerWg.Wait()

	assert.Equal(t, int64(total), consumed.Load())
	assert.Zero(t, duplicates.Load())

	stats := q.Stats()
	assert.Equal(t, uint64(total), stats.Pushed)
	assert.Equal(t, uint64(total), stats.Popped)
	assert.True(t, stats.Drained())
}

func TestConcurrentQueue_PerProducerOrderPreserved(t *testing.T) {
	q := New[[2]int]()

	const producers = 4
	const items = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < items; j++ {
				q.Push([2]int{id, j})
			}
		}(p)
	}
	wg.Wait()
	q.Stop()

	// 单个消费者看到的每个生产者的序列必须是递增的
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		require.Greater(t, v[1], last[v[0]])
		last[v[0]] = v[1]
	}
	for _, l := range last {
		assert.Equal(t, items-1, l)
	}
}

func TestConcurrentQueue_PopContextCancel(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, ok, err := q.PopContext(ctx)
		if ok {
			errCh <- errors.New("unexpected item")
			return
		}
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrOperationCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("PopContext did not return after cancel")
	}
}

func TestConcurrentQueue_PopContextDeadline(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok, err := q.PopContext(ctx)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrOperationCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestConcurrentQueue_PopContextAlreadyCancelled(t *testing.T) {
	q := New[int]()
	q.Push(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := q.PopContext(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrOperationCancelled)
	assert.Equal(t, 1, q.Size(), "a cancelled context must not consume items")
}

func TestConcurrentQueue_PopContextReceivesItemAndStop(t *testing.T) {
	q := New[int]()
	ctx := context.Background()

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Push(5)
	}()

	v, ok, err := q.PopContext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, v)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Stop()
	}()

	_, ok, err = q.PopContext(ctx)
	assert.NoError(t, err, "stop is not an error")
	assert.False(t, ok)
}

func TestConcurrentQueue_TryPopAndPeek(t *testing.T) {
	q := New[string]()

	_, ok := q.TryPop()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)

	q.Push("x")
	q.Push("y")

	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, 2, q.Size())

	v, ok = q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, 1, q.Size())
}

func TestConcurrentQueue_Drain(t *testing.T) {
	q := New[int]()
	assert.Nil(t, q.Drain())

	for i := 1; i <= 5; i++ {
		q.Push(i)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, q.Drain())
	assert.True(t, q.IsEmpty())
	assert.Equal(t, uint64(5), q.Stats().Popped)
}

func TestConcurrentQueue_Stats(t *testing.T) {
	q := New[int]()

	q.Push(1)
	q.Push(2)
	q.Push(3)
	_, _ = q.Pop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = q.Pop()
		_, _ = q.Pop()
		_, _ = q.Pop() // 队列为空，会阻塞直到Stop
	}()

	time.Sleep(50 * time.Millisecond)
	q.Stop()
	<-done

	stats := q.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, 3, stats.PeakSize)
	assert.Equal(t, uint64(3), stats.Pushed)
	assert.Equal(t, uint64(3), stats.Popped)
	assert.Equal(t, uint64(1), stats.BlockedPops)
	assert.Equal(t, uint64(0), stats.InFlight())
	assert.True(t, stats.Stopped)
	assert.True(t, stats.Drained())
	assert.False(t, stats.CreatedAt.IsZero())
}

func TestStats_MethodsOnSnapshot(t *testing.T) {
	q := New[string]()
	q.Push("a")

	// 直接在返回值上调用方法
	assert.False(t, q.Stats().IsEmpty())
	assert.False(t, q.Stats().Drained())
	assert.Equal(t, uint64(1), q.Stats().InFlight())

	q.Stop()
	assert.False(t, q.Stats().Drained())

	_, ok := q.Pop()
	require.True(t, ok)
	assert.True(t, q.Stats().IsEmpty())
	assert.True(t, q.Stats().Drained())
	assert.Zero(t, q.Stats().InFlight())
}

func TestConcurrentQueue_AddListener(t *testing.T) {
	q := New[int]()
	q.Push(1)

	var mu sync.Mutex
	var seen []EventType
	q.AddListener(func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, evt.Type)
	})
	q.AddListener(nil)

	_, ok := q.Pop()
	require.True(t, ok)
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventPop, EventEmpty, EventStop}, seen)
}

func TestConcurrentQueue_Events(t *testing.T) {
	var mu sync.Mutex
	counts := make(map[EventType]int)

	listener := func(evt Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[evt.Type]++
	}

	q := New[int](WithEventListener(listener))

	q.Push(1)
	q.Push(2)
	_, _ = q.Pop()
	_, _ = q.Pop()
	q.Stop()
	q.Push(3)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, counts[EventPush])
	assert.Equal(t, 2, counts[EventPop])
	assert.Equal(t, 1, counts[EventEmpty])
	assert.Equal(t, 1, counts[EventStop])
	assert.Equal(t, 1, counts[EventLatePush])
}

func TestConcurrentQueue_ListenerMayCallQueue(t *testing.T) {
	var q *ConcurrentQueue[int]
	var sizes []int

	q = New[int](WithEventListener(func(evt Event) {
		if evt.Type == EventPush {
			// 监听器在锁外执行，回调队列不会死锁
			sizes = append(sizes, q.Size())
		}
	}))

	q.Push(1)
	q.Push(2)
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "push", EventPush.String())
	assert.Equal(t, "late-push", EventLatePush.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
