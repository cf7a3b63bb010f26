package pumpexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskWriteOnce(t *testing.T) {
	task := NewTask[int]()
	assert.False(t, task.IsDone())

	assert.True(t, task.SetResult(1))
	assert.False(t, task.SetResult(2))
	assert.False(t, task.SetError(errors.New("late")))
	assert.True(t, task.IsDone())

	v, err := task.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestTaskFailed(t *testing.T) {
	boom := errors.New("boom")
	v, err := Failed[string](boom).Get()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, v)

	v, err = Completed("ok").Get()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestTaskGetBlocksAcrossGoroutines(t *testing.T) {
	task := NewTask[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		task.SetResult(42)
	}()

	v, err := task.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done not closed after Get returned")
	}
}

func TestTaskGetContext(t *testing.T) {
	task := NewTask[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := task.GetContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// the wait was abandoned, the task was not
	assert.False(t, task.IsDone())

	task.SetResult(3)
	v, err := task.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestTaskOnCompleted(t *testing.T) {
	task := NewTask[int]()
	var order []string
	task.OnCompleted(func() { order = append(order, "first") })
	task.OnCompleted(func() { order = append(order, "second") })
	assert.Empty(t, order)

	task.SetResult(1)
	assert.Equal(t, []string{"first", "second"}, order)

	// already settled: runs right away
	task.OnCompleted(func() { order = append(order, "late") })
	assert.Equal(t, []string{"first", "second", "late"}, order)
}

func TestTaskOnCompletedRunsOnSettlingGoroutine(t *testing.T) {
	task := NewTask[int]()
	ran := make(chan uint64, 1)
	task.OnCompleted(func() { ran <- goid() })

	settler := make(chan uint64, 1)
	go func() {
		settler <- goid()
		task.SetResult(1)
	}()

	assert.Equal(t, <-settler, <-ran)
}
