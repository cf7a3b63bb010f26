package main

import (
	"context"
	"fmt"
	"time"

	"github.com/vearne/pumpexec"
)

func main() {
	//pool := pumpexec.NewDynamicGPool(context.Background(), 5, 30)
	/*
	   options:
	   pumpexec.WithDynamicTaskQueueCap() : set capacity of task queue
	*/
	pool := pumpexec.NewDynamicGPool(context.Background(), 3, 10,
		pumpexec.WithDynamicTaskQueueCap(5),
		pumpexec.WithDetectInterval(time.Second),
		pumpexec.WithMeetCondNum(3),
	)
	sc := pumpexec.NewPoolContext(pool)

	tasks := make([]*pumpexec.Task[int], 0, 100)
	for i := 0; i < 100; i++ {
		i := i
		// the factory never posts again, so a full channel only makes the pool grow
		tasks = append(tasks, pumpexec.RunOn(sc, func(pumpexec.SynchronizationContext) *pumpexec.Task[int] {
			time.Sleep(20 * time.Millisecond)
			return pumpexec.Completed(i * i)
		}))
	}
	fmt.Println("workers under load:", pool.(*pumpexec.DynamicGPool).CurrentGCount())
	for _, t := range tasks {
		fmt.Println(t.Get())
	}

	time.Sleep(5 * time.Second)
	fmt.Println("workers after idling:", pool.(*pumpexec.DynamicGPool).CurrentGCount())

	pool.Shutdown() // Prohibit submission of new tasks
	pool.WaitTerminate()
}
