package pumpexec

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	slog "github.com/vearne/simplelog"
)

/*
   The number of worker in DynamicGPool changes dynamically. The minimum is Min and the maximum is Max.
   Expansion rules: If the TaskChan is full, try to add workers to execute the task.
   Shrinking rules:
   1. `Condition`: If the number of workers in a busy state is less than 1/4 of the total number of workers,
	   the condition is considered satisfied
   2. Perform `meetCondNum` consecutive checks, each with a `detectInterval` interval.
      If the conditions are met every time, the scaling is triggered.
   3. The scaling action stops idle workers until at most half of them remain, never going below Min
*/

type DynamicGPoolOption struct {
	taskQueueCap int
	// interval between checks
	detectInterval time.Duration
	// the number of times the shrinkage is performed to meet the conditions
	meetCondNum int
}

type dynamicOption func(*DynamicGPoolOption)

// Optional parameters
func WithDynamicTaskQueueCap(taskQueueCap int) dynamicOption {
	return func(t *DynamicGPoolOption) {
		t.taskQueueCap = taskQueueCap
	}
}

func WithDetectInterval(detectInterval time.Duration) dynamicOption {
	return func(t *DynamicGPoolOption) {
		t.detectInterval = detectInterval
	}
}

func WithMeetCondNum(meetCondNum int) dynamicOption {
	return func(t *DynamicGPoolOption) {
		t.meetCondNum = meetCondNum
	}
}

type DynamicGPool struct {
	wg sync.WaitGroup

	min int32
	max int32

	currGCount int32
	workerList []*Worker
	// rwMutex to protect workerList
	rwMutex sync.RWMutex

	// task queue
	TaskChan   chan *FutureTask
	submitMu   sync.RWMutex
	isShutdown *AtomicBool

	shrinkWorker  *ShrinkWorker
	terminateOnce sync.Once
	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDynamicGPool(ctx context.Context, min int, max int, opts ...dynamicOption) ExecutorService {
	// check params
	if min <= 0 {
		min = 1
	}

	if min > max {
		panic("min must be less than or equal to max")
	}

	defaultOpts := &DynamicGPoolOption{
		taskQueueCap:   SIZE,
		detectInterval: time.Minute,
		meetCondNum:    3,
	}
	for _, opt := range opts {
		opt(defaultOpts)
	}
	if defaultOpts.taskQueueCap < 0 {
		panic(ErrInvalidTaskQueueCap)
	}

	pool := DynamicGPool{}
	pool.ctx, pool.cancel = context.WithCancel(ctx)
	pool.isShutdown = NewAtomicBool(false)
	pool.TaskChan = make(chan *FutureTask, defaultOpts.taskQueueCap)
	pool.min = int32(min)
	pool.max = int32(max)

	pool.rwMutex.Lock()
	for i := 0; i < min; i++ {
		w := NewWorker(&pool)
		pool.workerList = append(pool.workerList, w)
		go w.Start()
	}
	atomic.StoreInt32(&pool.currGCount, pool.min)
	pool.rwMutex.Unlock()

	pool.shrinkWorker = NewShrinkWorker(&pool, defaultOpts.detectInterval, defaultOpts.meetCondNum)
	go pool.shrinkWorker.Start()

	slog.Debug("DynamicGPool started, min:%v, max:%v", min, max)
	return &pool
}

// Shutdown stops accepting tasks; tasks already submitted still run.
func (p *DynamicGPool) Shutdown() {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	if p.isShutdown.CompareAndSet(false, true) {
		slog.Debug("DynamicGPool-Shutdown()")
	}
}

// When submitting tasks, blocking may occur
func (p *DynamicGPool) Submit(task Callable) (Future, error) {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.IsShutdown() {
		return nil, ErrPoolShutdown
	}

	p.wg.Add(1)
	t := NewFutureTask(p.ctx, task)

	select {
	case p.TaskChan <- t:
	default:
		// If the TaskChan is full, try to add workers to execute the task
		p.grow()
		// blocking may occur
		p.TaskChan <- t
	}
	return t, nil
}

func (p *DynamicGPool) grow() {
	curr := atomic.LoadInt32(&p.currGCount)
	if curr >= p.max {
		return
	}
	newValue := atomic.AddInt32(&p.currGCount, 1)
	if newValue > p.max {
		// rollback
		atomic.AddInt32(&p.currGCount, -1)
		return
	}
	slog.Debug("DynamicGPool grow, workers:%v", newValue)
	p.rwMutex.Lock()
	w := NewWorker(p)
	p.workerList = append(p.workerList, w)
	p.rwMutex.Unlock()
	go w.Start()
}

func (p *DynamicGPool) IsShutdown() bool {
	return p.isShutdown.IsTrue()
}

func (p *DynamicGPool) CurrentGCount() int {
	return int(atomic.LoadInt32(&p.currGCount))
}

// WaitTerminate shuts the pool down if needed, waits for every submitted
// task and then stops all workers.
func (p *DynamicGPool) WaitTerminate() {
	if !p.IsShutdown() {
		p.Shutdown()
	}
	p.wg.Wait()

	p.terminateOnce.Do(func() {
		p.shrinkWorker.Stop()

		p.rwMutex.Lock()
		workers := p.workerList
		p.workerList = nil
		atomic.StoreInt32(&p.currGCount, 0)
		p.rwMutex.Unlock()

		for _, w := range workers {
			w.signalStop()
		}
		for _, w := range workers {
			w.wait()
		}
	})
}

func (p *DynamicGPool) TaskQueueCap() int {
	return cap(p.TaskChan)
}

func (p *DynamicGPool) TaskQueueLength() int {
	return len(p.TaskChan)
}

// Cancel cancels every task that has not started yet.
func (p *DynamicGPool) Cancel() bool {
	p.cancel()
	return true
}

type ShrinkWorker struct {
	ExitedFlag chan struct{}
	ExitChan   chan struct{}
	pool       *DynamicGPool
	// ----- shrink related --------
	// interval between checks
	detectInterval time.Duration
	// the number of times the shrinkage is performed to meet the conditions
	meetCondNum int
	// The current number of times the condition is met
	currMeetCond int
}

func NewShrinkWorker(pool *DynamicGPool, interval time.Duration, meetCondNum int) *ShrinkWorker {
	worker := ShrinkWorker{}
	worker.ExitedFlag = make(chan struct{})
	worker.ExitChan = make(chan struct{})
	worker.pool = pool
	worker.detectInterval = interval
	worker.meetCondNum = meetCondNum
	worker.currMeetCond = 0
	return &worker
}

func (w *ShrinkWorker) Start() {
	defer close(w.ExitedFlag)

	ticker := time.NewTicker(w.detectInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.ExitChan:
			slog.Debug("ShrinkWorker exiting.")
			return
		}
	}
}

// Shrinking rules:
//
//	Condition: If the number of workers in a busy state is less than 1/4 of the total number of workers,
//	try to reduce the number of workers by 1/2. Execute meetCondNum consecutive checks,
//	with detectInterval every time, and perform shrinking if the conditions are met each time.
func (w *ShrinkWorker) check() {
	w.pool.rwMutex.Lock()
	list := w.pool.workerList
	total := len(list)
	if total <= int(w.pool.min) {
		w.currMeetCond = 0
		w.pool.rwMutex.Unlock()
		return
	}

	busyCount := 0
	for _, worker := range list {
		if worker.IsBusy() {
			busyCount++
		}
	}
	slog.Debug("ShrinkWorker check, busyCount:%v, total:%v", busyCount, total)

	// < 1/4
	if float64(busyCount)/float64(total) < 0.25 {
		w.currMeetCond++
	} else {
		w.currMeetCond = 0
	}
	if w.currMeetCond < w.meetCondNum {
		w.pool.rwMutex.Unlock()
		return
	}
	w.currMeetCond = 0

	// Put busy workers at the head of the array and idle workers at the end
	reorganize(list)
	target := max(total/2, int(w.pool.min))
	stopped := make([]*Worker, 0, total-target)
	for i := total - 1; i >= target; i-- {
		if list[i].IsBusy() {
			break
		}
		list[i].signalStop()
		stopped = append(stopped, list[i])
		list[i] = nil
	}
	w.pool.workerList = list[:total-len(stopped)]
	atomic.AddInt32(&w.pool.currGCount, -int32(len(stopped)))
	w.pool.rwMutex.Unlock()

	// a stopping worker may be finishing a task that submits again, so wait
	// outside the lock
	for _, worker := range stopped {
		worker.wait()
	}
	slog.Debug("ShrinkWorker shrink, stopped:%v", len(stopped))
}

// Put busy workers at the head of the array and idle workers at the end
// [busy, busy, idle, idle, idle]
func reorganize(list []*Worker) {
	N := len(list)
	i, j := 0, len(list)-1
	for i < j {
		for i < N && list[i].IsBusy() {
			i++
		}
		for j >= 0 && !list[j].IsBusy() {
			j--
		}
		if i < j {
			list[i], list[j] = list[j], list[i]
		}
	}
}

func (w *ShrinkWorker) Stop() {
	close(w.ExitChan)
	<-w.ExitedFlag
}

type Worker struct {
	ExitedFlag chan struct{}
	ExitChan   chan struct{}
	pool       *DynamicGPool

	// is worker busy?
	busyFlag *AtomicBool
}

func NewWorker(pool *DynamicGPool) *Worker {
	worker := Worker{}
	worker.busyFlag = NewAtomicBool(false)
	worker.ExitedFlag = make(chan struct{})
	worker.ExitChan = make(chan struct{})
	worker.pool = pool
	return &worker
}

func (worker *Worker) IsBusy() bool {
	return worker.busyFlag.IsTrue()
}

func (worker *Worker) Start() {
	defer close(worker.ExitedFlag)
	for {
		select {
		case task := <-worker.pool.TaskChan:
			worker.busyFlag.Set(true)
			task.run()
			worker.busyFlag.Set(false)
			worker.pool.wg.Done()
		case <-worker.ExitChan:
			slog.Debug("worker exiting")
			return
		}
	}
}

func (worker *Worker) signalStop() {
	close(worker.ExitChan)
}

func (worker *Worker) wait() {
	<-worker.ExitedFlag
}
