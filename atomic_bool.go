package pumpexec

import "sync/atomic"

type AtomicBool struct {
	flag int32
}

func NewAtomicBool(value bool) *AtomicBool {
	b := &AtomicBool{}
	b.Set(value)
	return b
}

func (b *AtomicBool) Set(value bool) {
	var i int32
	if value {
		i = 1
	}
	atomic.StoreInt32(&b.flag, i)
}

// CompareAndSet flips the flag from old to value, reporting whether it did.
func (b *AtomicBool) CompareAndSet(old, value bool) bool {
	var o, n int32
	if old {
		o = 1
	}
	if value {
		n = 1
	}
	return atomic.CompareAndSwapInt32(&b.flag, o, n)
}

func (b *AtomicBool) IsTrue() bool {
	return atomic.LoadInt32(&b.flag) == 1
}
