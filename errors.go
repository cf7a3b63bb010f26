package pumpexec

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	ErrTaskCanceled        = errors.New("task has been canceled")
	ErrPoolShutdown        = errors.New("pool has been shutdown")
	ErrInvalidTaskQueueCap = errors.New("task queue capacity must not be negative")
	ErrQueueClosed         = errors.New("work queue is closed for additions")
	ErrExecutorCompleted   = errors.New("executor has been completed")
	ErrNotSupported        = errors.New("synchronous dispatch is not supported")
	ErrNilTask             = errors.New("task factory returned nil")
)

// PanicError carries a recovered panic value together with the stack of the
// goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(r any) *PanicError {
	buf := make([]byte, 64<<10)
	l := runtime.Stack(buf, false)
	return &PanicError{Value: r, Stack: buf[:l]}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
