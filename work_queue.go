package pumpexec

import (
	"sync"

	slog "github.com/vearne/simplelog"
)

// a queue that never runs empty is compacted once this many consumed slots
// pile up at the front
const compactThreshold = 1024

// WorkItem is one scheduled continuation. It is consumed exactly once.
type WorkItem struct {
	Callback Callback
	State    any
}

/*
   WorkQueue is an unbounded FIFO handoff between any number of producers and
   exactly one consumer.
   Push never blocks. PopBlocking parks the consumer on a condition variable
   until an item arrives or the queue is closed and empty.
   Close only forbids further pushes; items already queued are still handed out.
*/
type WorkQueue struct {
	guard sync.Mutex
	cond  *sync.Cond
	items []WorkItem
	head  int

	closed    bool
	consuming *AtomicBool
}

func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{
		items:     make([]WorkItem, 0, 64),
		consuming: NewAtomicBool(false),
	}
	q.cond = sync.NewCond(&q.guard)
	return q
}

// Push appends item to the tail. It fails with ErrQueueClosed after Close.
func (q *WorkQueue) Push(item WorkItem) error {
	q.guard.Lock()
	if q.closed {
		q.guard.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, item)
	q.guard.Unlock()
	q.cond.Signal()
	return nil
}

// PopBlocking returns the head item, or ok == false once the queue is closed
// and drained. Only one goroutine may consume at a time.
func (q *WorkQueue) PopBlocking() (item WorkItem, ok bool) {
	if !q.consuming.CompareAndSet(false, true) {
		panic("pumpexec: WorkQueue has more than one consumer")
	}
	defer q.consuming.Set(false)

	q.guard.Lock()
	defer q.guard.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}
	if q.head == len(q.items) {
		return WorkItem{}, false
	}

	item = q.items[q.head]
	// drop references so the callback and state can be collected
	q.items[q.head] = WorkItem{}
	q.head++
	if q.head == len(q.items) {
		// empty again, reuse the backing array from the start
		q.items = q.items[:0]
		q.head = 0
	} else if q.head >= compactThreshold && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return item, true
}

// Close is idempotent.
func (q *WorkQueue) Close() {
	q.guard.Lock()
	if q.closed {
		q.guard.Unlock()
		return
	}
	q.closed = true
	pending := len(q.items) - q.head
	q.guard.Unlock()

	slog.Debug("WorkQueue-Close(), pending:%v", pending)
	q.cond.Broadcast()
}

func (q *WorkQueue) IsClosed() bool {
	q.guard.Lock()
	defer q.guard.Unlock()
	return q.closed
}

func (q *WorkQueue) Len() int {
	q.guard.Lock()
	defer q.guard.Unlock()
	return len(q.items) - q.head
}
