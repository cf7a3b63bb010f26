package pumpexec

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type squareCallable struct {
	param int
}

func (m *squareCallable) Call(ctx context.Context) *GPResult {
	return &GPResult{Value: m.param * m.param}
}

func TestFixedGPool(t *testing.T) {
	pool := NewFixedGPool(context.Background(), 4, WithTaskQueueCap(10))
	assert.Equal(t, 10, pool.TaskQueueCap())

	futures := make([]Future, 0, 100)
	for i := 0; i < 100; i++ {
		f, err := pool.Submit(&squareCallable{param: i})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for i, f := range futures {
		result := f.Get()
		require.NoError(t, result.Err)
		assert.Equal(t, i*i, result.Value)
		assert.True(t, f.IsDone())
		// Get can be repeated
		assert.Same(t, result, f.Get())
	}

	assert.Panics(t, func() { pool.WaitTerminate() })
	pool.Shutdown()
	pool.Shutdown()
	assert.True(t, pool.IsShutdown())
	pool.WaitTerminate()

	_, err := pool.Submit(&squareCallable{param: 1})
	assert.ErrorIs(t, err, ErrPoolShutdown)
}

func TestFixedGPoolInvalidQueueCap(t *testing.T) {
	assert.PanicsWithValue(t, ErrInvalidTaskQueueCap, func() {
		NewFixedGPool(context.Background(), 1, WithTaskQueueCap(-1))
	})
}

func TestSingleGPoolKeepsOrder(t *testing.T) {
	pool := NewSingleGPool(context.Background())
	var mu sync.Mutex
	var order []int
	for i := 0; i < 20; i++ {
		i := i
		_, err := pool.Submit(CallableFunc(func(context.Context) *GPResult {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
		require.NoError(t, err)
	}
	pool.Shutdown()
	pool.WaitTerminate()

	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestFutureTaskPanicAndCancel(t *testing.T) {
	pool := NewFixedGPool(context.Background(), 1)
	defer func() {
		pool.Shutdown()
		pool.WaitTerminate()
	}()

	f, err := pool.Submit(CallableFunc(func(context.Context) *GPResult { panic("pool task blew up") }))
	require.NoError(t, err)
	var perr *PanicError
	require.ErrorAs(t, f.Get().Err, &perr)

	// hold the only worker so the next task is still queued when cancelled
	release := make(chan struct{})
	blocker, err := pool.Submit(CallableFunc(func(context.Context) *GPResult {
		<-release
		return &GPResult{Value: "blocker"}
	}))
	require.NoError(t, err)

	var called int32
	queued, err := pool.Submit(CallableFunc(func(context.Context) *GPResult {
		atomic.AddInt32(&called, 1)
		return nil
	}))
	require.NoError(t, err)
	assert.True(t, queued.Cancel())
	assert.True(t, queued.IsCancelled())
	close(release)

	assert.Equal(t, "blocker", blocker.Get().Value)
	assert.False(t, blocker.Cancel())
	assert.ErrorIs(t, queued.Get().Err, ErrTaskCanceled)
	assert.Zero(t, atomic.LoadInt32(&called))
}

func TestDynamicGPoolGrowsAndShrinks(t *testing.T) {
	pool := NewDynamicGPool(context.Background(), 1, 4,
		WithDynamicTaskQueueCap(1),
		WithDetectInterval(10*time.Millisecond),
		WithMeetCondNum(2),
	).(*DynamicGPool)
	assert.Equal(t, 1, pool.CurrentGCount())

	release := make(chan struct{})
	futures := make([]Future, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		f, err := pool.Submit(CallableFunc(func(context.Context) *GPResult {
			<-release
			return &GPResult{Value: i}
		}))
		require.NoError(t, err)
		futures = append(futures, f)
	}
	// four blocked tasks plus one queued need every worker
	assert.Equal(t, 4, pool.CurrentGCount())

	close(release)
	for i, f := range futures {
		assert.Equal(t, i, f.Get().Value)
	}

	assert.Eventually(t, func() bool {
		return pool.CurrentGCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	pool.WaitTerminate()
	assert.True(t, pool.IsShutdown())
	assert.Equal(t, 0, pool.CurrentGCount())
	// second call is a no-op
	pool.WaitTerminate()

	_, err := pool.Submit(&squareCallable{param: 2})
	assert.ErrorIs(t, err, ErrPoolShutdown)
}

func TestDynamicGPoolBounds(t *testing.T) {
	assert.Panics(t, func() {
		NewDynamicGPool(context.Background(), 3, 2)
	})
	pool := NewDynamicGPool(context.Background(), 0, 2).(*DynamicGPool)
	assert.Equal(t, 1, pool.CurrentGCount())
	assert.Equal(t, SIZE, pool.TaskQueueCap())
	pool.WaitTerminate()
}

func TestReorganize(t *testing.T) {
	busy := func(b bool) *Worker {
		w := NewWorker(nil)
		w.busyFlag.Set(b)
		return w
	}
	list := []*Worker{busy(false), busy(true), busy(false), busy(true), busy(true)}
	reorganize(list)

	seenIdle := false
	for _, w := range list {
		if !w.IsBusy() {
			seenIdle = true
			continue
		}
		assert.False(t, seenIdle, "busy worker after an idle one")
	}
}

func TestPoolContext(t *testing.T) {
	pool := NewFixedGPool(context.Background(), 2)
	sc := NewPoolContext(pool)
	assert.Same(t, pool, sc.Pool())

	done := make(chan any, 1)
	sc.Post(func(state any) { done <- state }, "posted")
	assert.Equal(t, "posted", <-done)

	ran := false
	require.NoError(t, sc.Send(func(any) { ran = true }, nil))
	assert.True(t, ran)

	var perr *PanicError
	require.ErrorAs(t, sc.Send(func(any) { panic("send blew up") }, nil), &perr)

	v, err := RunOn[int](sc, func(sc SynchronizationContext) *Task[int] {
		return Await(sc, Yield(sc), func(struct{}) *Task[int] { return Completed(9) })
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	pool.Shutdown()
	pool.WaitTerminate()
	assert.PanicsWithError(t, ErrPoolShutdown.Error(), func() {
		sc.Post(func(any) {}, nil)
	})
	assert.ErrorIs(t, sc.Send(func(any) {}, nil), ErrPoolShutdown)
}

func TestInlineContext(t *testing.T) {
	var sc SynchronizationContext = InlineContext{}
	caller := goid()
	var ranOn uint64
	v, err := RunOn[int](sc, func(sc SynchronizationContext) *Task[int] {
		ranOn = goid()
		return ContinueWith(Yield(sc), func(struct{}, error) (int, error) { return 5, nil })
	}).Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, caller, ranOn)
	assert.NoError(t, sc.Send(func(any) {}, nil))
}
