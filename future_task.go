package pumpexec

import (
	"context"
)

// FutureTask is the unit a pool worker executes. Unlike the pumping
// executor, pools honour cancellation: a task cancelled before a worker
// picks it up settles with ErrTaskCanceled without calling its Callable.
type FutureTask struct {
	c           Callable
	done        chan struct{}
	result      *GPResult
	isDone      *AtomicBool
	isCancelled *AtomicBool
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewFutureTask(ctx context.Context, c Callable) *FutureTask {
	t := FutureTask{}
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.c = c
	t.done = make(chan struct{})
	t.isDone = NewAtomicBool(false)
	t.isCancelled = NewAtomicBool(false)
	return &t
}

// Get blocks until the task has run; it may be called any number of times.
func (f *FutureTask) Get() *GPResult {
	<-f.done
	return f.result
}

func (f *FutureTask) IsCancelled() bool {
	return f.isCancelled.IsTrue()
}

func (f *FutureTask) Cancel() bool {
	if f.IsDone() {
		return false
	}
	f.isCancelled.Set(true)
	f.cancel()
	return true
}

func (f *FutureTask) run() {
	defer f.cancel()
	if f.IsCancelled() || f.ctx.Err() != nil {
		f.finish(&GPResult{Err: ErrTaskCanceled})
		return
	}
	f.finish(f.call())
}

func (f *FutureTask) call() (r *GPResult) {
	defer func() {
		if p := recover(); p != nil {
			r = &GPResult{Err: newPanicError(p)}
		}
	}()
	r = f.c.Call(f.ctx)
	if r == nil {
		r = &GPResult{}
	}
	return r
}

func (f *FutureTask) finish(r *GPResult) {
	f.result = r
	f.isDone.Set(true)
	close(f.done)
}

func (f *FutureTask) IsDone() bool {
	return f.isDone.IsTrue()
}
