package bench

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vearne/pumpexec"
)

// ContentionResult describes producers posting concurrently into one
// pumping executor.
type ContentionResult struct {
	Producers int
	Posted    int64
	Executed  int64
	// Overlaps counts callbacks that started while another one was running.
	// The pumping executor guarantees it stays zero.
	Overlaps int64
	Elapsed  time.Duration
}

// Contention posts postsPerProducer callbacks from each of producers
// goroutines into a fresh pumping executor, completes it and reports how the
// callbacks were executed.
func Contention(ctx context.Context, producers, postsPerProducer int) (ContentionResult, error) {
	res := ContentionResult{Producers: producers}
	exec, err := pumpexec.NewPumpingExecutor(pumpexec.WithName("contention"))
	if err != nil {
		return res, err
	}

	var running int32
	cb := func(any) {
		if atomic.AddInt32(&running, 1) != 1 {
			atomic.AddInt64(&res.Overlaps, 1)
		}
		atomic.AddInt64(&res.Executed, 1)
		atomic.AddInt32(&running, -1)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < producers; p++ {
		g.Go(func() error {
			for i := 0; i < postsPerProducer; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := exec.TryPost(cb, nil); err != nil {
					return err
				}
				atomic.AddInt64(&res.Posted, 1)
			}
			return nil
		})
	}
	postErr := g.Wait()

	_, err = exec.Complete().Get()
	res.Elapsed = time.Since(start)
	if postErr != nil {
		return res, postErr
	}
	return res, err
}
