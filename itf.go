package pumpexec

import "context"

// Callback is a unit of continuation work. state is whatever the poster
// handed to Post.
type Callback func(state any)

// SynchronizationContext is the target that receives continuations for code
// running "on" it. It is passed around explicitly; nothing looks it up from
// goroutine-local state.
type SynchronizationContext interface {
	// Post schedules cb asynchronously and never blocks.
	Post(cb Callback, state any)
	// Send dispatches cb synchronously.
	Send(cb Callback, state any) error
}

type Callable interface {
	Call(ctx context.Context) *GPResult
}

// CallableFunc adapts a plain function to Callable.
type CallableFunc func(ctx context.Context) *GPResult

func (f CallableFunc) Call(ctx context.Context) *GPResult {
	return f(ctx)
}

type Future interface {
	Get() *GPResult
	IsCancelled() bool
	Cancel() bool
	IsDone() bool
}

type ExecutorService interface {
	// no longer accept new tasks
	Shutdown()
	Submit(task Callable) (Future, error)
	IsShutdown() bool
	// Wait for all the tasks to be completed
	WaitTerminate()
	TaskQueueCap() int
	TaskQueueLength() int
}
