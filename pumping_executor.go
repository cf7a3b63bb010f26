package pumpexec

import (
	"errors"
	"fmt"
	"runtime"

	slog "github.com/vearne/simplelog"
)

/*
   PumpingExecutor serializes every continuation onto one dedicated worker.
   The worker goroutine is locked to its OS thread for its whole life, installs
   the executor's SynchronizationContext, signals readiness and then drains the
   WorkQueue in FIFO order until the queue is closed and empty.
   Callbacks never overlap, so timings measured through it are deterministic.

   A callback that panics terminates the drain loop; nothing is isolated per
   item. Complete() then fails with the *PanicError, items still queued are
   never drained and further posts are rejected.
*/

type PumpingOption struct {
	name       string
	threadInit func() error
}

type pumpingOption func(*PumpingOption)

// WithName labels the executor in log output.
func WithName(name string) pumpingOption {
	return func(t *PumpingOption) {
		t.name = name
	}
}

// WithThreadInit runs fn on the worker before it reports ready. An error
// aborts construction.
func WithThreadInit(fn func() error) pumpingOption {
	return func(t *PumpingOption) {
		t.threadInit = fn
	}
}

type PumpingExecutor struct {
	name  string
	queue *WorkQueue
	ctx   *pumpingContext
	// settled when the worker goroutine has exited
	terminated *Task[struct{}]
}

// pumpingContext is what code running on the worker sees as its active
// context. It is only valid while installed.
type pumpingContext struct {
	exec      *PumpingExecutor
	installed *AtomicBool
}

func (c *pumpingContext) Post(cb Callback, state any) {
	c.exec.Post(cb, state)
}

func (c *pumpingContext) Send(cb Callback, state any) error {
	return c.exec.Send(cb, state)
}

// NewPumpingExecutor starts the worker and returns once it is pumping.
func NewPumpingExecutor(opts ...pumpingOption) (*PumpingExecutor, error) {
	defaultOpts := &PumpingOption{
		name: "pumping",
	}
	for _, opt := range opts {
		opt(defaultOpts)
	}

	e := &PumpingExecutor{
		name:       defaultOpts.name,
		queue:      NewWorkQueue(),
		terminated: NewTask[struct{}](),
	}
	e.ctx = &pumpingContext{exec: e, installed: NewAtomicBool(false)}

	ready := make(chan error, 1)
	go e.pump(defaultOpts.threadInit, ready)
	if err := <-ready; err != nil {
		return nil, fmt.Errorf("start worker of %s: %w", e.name, err)
	}
	slog.Debug("PumpingExecutor-%v ready", e.name)
	return e, nil
}

func (e *PumpingExecutor) pump(threadInit func() error, ready chan<- error) {
	// never unlocked: the thread is discarded with the goroutine instead of
	// going back to the scheduler
	runtime.LockOSThread()

	if threadInit != nil {
		if err := threadInit(); err != nil {
			e.queue.Close()
			e.terminated.SetError(err)
			ready <- err
			return
		}
	}

	e.ctx.installed.Set(true)
	ready <- nil

	defer func() {
		r := recover()
		if r != nil {
			// late pushes must fail instead of landing in a queue nobody drains
			e.queue.Close()
		}
		e.ctx.installed.Set(false)
		if r != nil {
			perr := newPanicError(r)
			slog.Error("PumpingExecutor-%v drain loop terminated: %v\n%s", e.name, perr, perr.Stack)
			e.terminated.SetError(perr)
			return
		}
		slog.Debug("PumpingExecutor-%v worker exiting", e.name)
		e.terminated.SetResult(struct{}{})
	}()

	for {
		item, ok := e.queue.PopBlocking()
		if !ok {
			return
		}
		item.Callback(item.State)
	}
}

// Context returns the SynchronizationContext installed on the worker.
func (e *PumpingExecutor) Context() SynchronizationContext {
	return e.ctx
}

// Post enqueues cb; it never blocks. Posting after Complete panics with
// ErrExecutorCompleted.
func (e *PumpingExecutor) Post(cb Callback, state any) {
	if err := e.TryPost(cb, state); err != nil {
		panic(err)
	}
}

// TryPost is Post returning the error instead of panicking.
func (e *PumpingExecutor) TryPost(cb Callback, state any) error {
	if !e.ctx.installed.IsTrue() {
		// the drain loop is gone, nothing would ever run cb
		return fmt.Errorf("%s: %w", e.name, ErrExecutorCompleted)
	}
	if err := e.queue.Push(WorkItem{Callback: cb, State: state}); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return fmt.Errorf("%s: %w", e.name, ErrExecutorCompleted)
		}
		return err
	}
	return nil
}

// Send always fails: blocking the caller until the single worker runs cb
// deadlocks whenever the caller is the worker itself.
func (e *PumpingExecutor) Send(Callback, any) error {
	return ErrNotSupported
}

// Complete stops accepting work and returns a task that settles once the
// worker has drained the queue and exited. Calling it again returns the
// same task.
func (e *PumpingExecutor) Complete() *Task[struct{}] {
	if !e.queue.IsClosed() {
		slog.Debug("PumpingExecutor-%v Complete(), pending:%v", e.name, e.queue.Len())
	}
	e.queue.Close()
	return e.terminated
}

// IsPumping reports whether the worker is still draining the queue.
func (e *PumpingExecutor) IsPumping() bool {
	return e.ctx.installed.IsTrue()
}

// QueueLength is the number of items waiting to be drained.
func (e *PumpingExecutor) QueueLength() int {
	return e.queue.Len()
}

// Run schedules factory on the worker of e. See RunOn.
func Run[T any](e *PumpingExecutor, factory func(SynchronizationContext) *Task[T]) *Task[T] {
	return RunOn[T](e.ctx, factory)
}
