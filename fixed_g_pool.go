package pumpexec

import (
	"context"
	"sync"

	slog "github.com/vearne/simplelog"
)

type FixedGPoolOption struct {
	taskQueueCap int
}

type option func(*FixedGPoolOption)

// Optional parameters
func WithTaskQueueCap(taskQueueCap int) option {
	return func(t *FixedGPoolOption) {
		t.taskQueueCap = taskQueueCap
	}
}

// FixedGPool is the general-purpose thread pool: Size goroutines consume a
// shared, bounded task channel with no ordering between them. Behind a
// PoolContext it is the baseline the pumping executor is measured against:
// continuations may resume on any worker and run in parallel, and every post
// pays for a FutureTask and a channel handoff.
type FixedGPool struct {
	wg sync.WaitGroup

	Size int
	// task queue
	TaskChan chan *FutureTask
	// guards TaskChan against being closed under a concurrent Submit
	submitMu   sync.RWMutex
	isShutdown *AtomicBool
	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

func NewFixedGPool(ctx context.Context, size int, opts ...option) ExecutorService {
	// check params
	if size <= 0 {
		size = 1
	}

	defaultOpts := &FixedGPoolOption{
		taskQueueCap: SIZE,
	}
	for _, opt := range opts {
		opt(defaultOpts)
	}

	if defaultOpts.taskQueueCap < 0 {
		panic(ErrInvalidTaskQueueCap)
	}

	pool := FixedGPool{}
	pool.Size = size
	pool.ctx, pool.cancel = context.WithCancel(ctx)
	pool.isShutdown = NewAtomicBool(false)
	pool.TaskChan = make(chan *FutureTask, defaultOpts.taskQueueCap)
	for i := 0; i < size; i++ {
		go pool.Consume()
	}
	slog.Debug("FixedGPool started, size:%v, taskQueueCap:%v", size, defaultOpts.taskQueueCap)
	return &pool
}

// Cancel cancels every task that has not started yet.
func (p *FixedGPool) Cancel() bool {
	p.cancel()
	return true
}

func (p *FixedGPool) TaskQueueCap() int {
	return cap(p.TaskChan)
}

func (p *FixedGPool) TaskQueueLength() int {
	return len(p.TaskChan)
}

func (p *FixedGPool) Consume() {
	for task := range p.TaskChan {
		task.run()
		p.wg.Done()
	}
}

// When submitting tasks, blocking may occur
func (p *FixedGPool) Submit(task Callable) (Future, error) {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.IsShutdown() {
		return nil, ErrPoolShutdown
	}
	p.wg.Add(1)
	t := NewFutureTask(p.ctx, task)
	p.TaskChan <- t
	return t, nil
}

func (p *FixedGPool) Shutdown() {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	if !p.isShutdown.CompareAndSet(false, true) {
		return
	}
	slog.Debug("FixedGPool-Shutdown()")
	close(p.TaskChan)
}

func (p *FixedGPool) IsShutdown() bool {
	return p.isShutdown.IsTrue()
}

func (p *FixedGPool) WaitTerminate() {
	if !p.IsShutdown() {
		panic("pool must shutdown first!")
	}
	p.wg.Wait()
}
