package pumpexec

import (
	"context"
	"sync"
)

// Task is a write-once completion handle. Any number of goroutines may wait
// on it; continuations registered with OnCompleted run once it is settled.
type Task[T any] struct {
	mu            sync.Mutex
	done          chan struct{}
	completed     bool
	value         T
	err           error
	continuations []func()
}

func NewTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// Completed returns a task that already holds v.
func Completed[T any](v T) *Task[T] {
	t := NewTask[T]()
	t.SetResult(v)
	return t
}

// Failed returns a task that already holds err.
func Failed[T any](err error) *Task[T] {
	t := NewTask[T]()
	t.SetError(err)
	return t
}

// SetResult settles the task with v. It reports false if the task was
// already settled.
func (t *Task[T]) SetResult(v T) bool {
	return t.complete(v, nil)
}

// SetError settles the task with err. A nil err settles it with the zero value.
func (t *Task[T]) SetError(err error) bool {
	var zero T
	return t.complete(zero, err)
}

func (t *Task[T]) complete(v T, err error) bool {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		return false
	}
	t.value, t.err = v, err
	t.completed = true
	continuations := t.continuations
	t.continuations = nil
	close(t.done)
	t.mu.Unlock()

	for _, fn := range continuations {
		fn()
	}
	return true
}

// Done is closed once the task is settled.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

func (t *Task[T]) IsDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Get blocks until the task is settled.
func (t *Task[T]) Get() (T, error) {
	<-t.done
	return t.value, t.err
}

// GetContext is Get with a bound on the wait. Cancelling ctx abandons the
// wait only; the task itself keeps running.
func (t *Task[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnCompleted runs fn after the task is settled, on the goroutine that
// settles it. If the task is already settled fn runs immediately.
func (t *Task[T]) OnCompleted(fn func()) {
	t.mu.Lock()
	if !t.completed {
		t.continuations = append(t.continuations, fn)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	fn()
}
