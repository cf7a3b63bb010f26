package main

import (
	"context"
	"fmt"
	"time"

	"github.com/vearne/pumpexec"
)

func square(i int) func(sc pumpexec.SynchronizationContext) *pumpexec.Task[int] {
	return func(sc pumpexec.SynchronizationContext) *pumpexec.Task[int] {
		return pumpexec.ContinueWith(pumpexec.Yield(sc), func(_ struct{}, err error) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return i * i, err
		})
	}
}

func main() {
	/*
	   options:
	   pumpexec.WithTaskQueueCap() : set capacity of task queue
	   Each run posts twice (run, yield); keep the capacity above that total
	   or workers posting into a full channel block each other.
	*/
	pool := pumpexec.NewFixedGPool(context.Background(), 10, pumpexec.WithTaskQueueCap(400))
	sc := pumpexec.NewPoolContext(pool)

	start := time.Now()
	tasks := make([]*pumpexec.Task[int], 0, 100)
	for i := 0; i < 100; i++ {
		tasks = append(tasks, pumpexec.RunOn(sc, square(i)))
	}
	for _, t := range tasks {
		fmt.Println(t.Get())
	}
	// ten workers overlap the sleeps
	fmt.Println("pool elapsed:", time.Since(start))

	pool.Shutdown()
	pool.WaitTerminate()

	e, err := pumpexec.NewPumpingExecutor()
	if err != nil {
		panic(err)
	}
	start = time.Now()
	tasks = tasks[:0]
	for i := 0; i < 100; i++ {
		tasks = append(tasks, pumpexec.Run(e, square(i)))
	}
	for _, t := range tasks {
		t.Get()
	}
	// one worker runs them back to back
	fmt.Println("pumping elapsed:", time.Since(start))
	e.Complete().Get()
}
