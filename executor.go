package pumpexec

import "context"

// SIZE is the default capacity of a pool's task channel.
const SIZE = 1000

type GPResult struct {
	Value any
	Err   error
}

func NewSingleGPool(ctx context.Context, opts ...option) ExecutorService {
	return NewFixedGPool(ctx, 1, opts...)
}
