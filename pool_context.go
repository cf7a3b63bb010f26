package pumpexec

import (
	"context"
)

// PoolContext is a SynchronizationContext backed by an ExecutorService.
// Continuations posted through it run on whichever pool worker is free, so
// unlike the pumping executor they may overlap and are not ordered.
// Pool channels are bounded: if every worker posts into a full channel at
// once, none of them is left to drain it.
type PoolContext struct {
	pool ExecutorService
}

func NewPoolContext(pool ExecutorService) *PoolContext {
	return &PoolContext{pool: pool}
}

// Post submits cb to the pool. It panics with ErrPoolShutdown once the pool
// has been shut down.
func (c *PoolContext) Post(cb Callback, state any) {
	_, err := c.pool.Submit(CallableFunc(func(context.Context) *GPResult {
		cb(state)
		return nil
	}))
	if err != nil {
		panic(err)
	}
}

// Send submits cb and waits for it. A panic in cb is returned as *PanicError.
// Calling Send from a pool worker can exhaust the pool.
func (c *PoolContext) Send(cb Callback, state any) error {
	f, err := c.pool.Submit(CallableFunc(func(context.Context) *GPResult {
		cb(state)
		return nil
	}))
	if err != nil {
		return err
	}
	return f.Get().Err
}

// Pool returns the backing ExecutorService.
func (c *PoolContext) Pool() ExecutorService {
	return c.pool
}

// InlineContext runs every callback immediately on the posting goroutine.
// It is the no-executor baseline.
type InlineContext struct{}

func (InlineContext) Post(cb Callback, state any) {
	cb(state)
}

func (InlineContext) Send(cb Callback, state any) error {
	cb(state)
	return nil
}
