package pumpexec

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// goid returns the id of the calling goroutine, parsed from its stack header
// "goroutine 18 [running]:".
func goid() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseUint(field, 10, 64)
	return id
}

// recordingContext queues posted callbacks until Drain is called.
type recordingContext struct {
	mu    sync.Mutex
	items []WorkItem
}

func (c *recordingContext) Post(cb Callback, state any) {
	c.mu.Lock()
	c.items = append(c.items, WorkItem{Callback: cb, State: state})
	c.mu.Unlock()
}

func (c *recordingContext) Send(Callback, any) error {
	return ErrNotSupported
}

func (c *recordingContext) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Drain runs queued callbacks, including ones they post, until none are left.
func (c *recordingContext) Drain() int {
	ran := 0
	for {
		c.mu.Lock()
		if len(c.items) == 0 {
			c.mu.Unlock()
			return ran
		}
		item := c.items[0]
		c.items = c.items[1:]
		c.mu.Unlock()
		item.Callback(item.State)
		ran++
	}
}
