package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/vearne/pumpexec"
)

func main() {
	e, err := pumpexec.NewPumpingExecutor(pumpexec.WithName("demo"))
	if err != nil {
		log.Fatal(err)
	}

	v, err := pumpexec.Run(e, func(sc pumpexec.SynchronizationContext) *pumpexec.Task[int] {
		// suspend once; the rest resumes on the same worker
		return pumpexec.Await(sc, pumpexec.Yield(sc), func(struct{}) *pumpexec.Task[int] {
			return pumpexec.Completed(42)
		})
	}).Get()
	fmt.Println("run:", v, err)

	var wg sync.WaitGroup
	show := func(state any) {
		fmt.Println("callback", state)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.Post(show, "a")
	}()
	go func() {
		defer wg.Done()
		for _, s := range []string{"b", "c", "d"} {
			e.Post(show, s)
		}
	}()
	wg.Wait()

	if err := e.Send(show, "sync"); err != nil {
		fmt.Println("send:", err)
	}

	_, err = e.Complete().Get()
	fmt.Println("complete:", err)
}
