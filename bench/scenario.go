package bench

import (
	"github.com/vearne/pumpexec"
)

const (
	ScenarioDirect       = "direct"
	ScenarioAwait        = "await"
	ScenarioContinueWith = "continue-with"
)

// Scenario builds the deferred computation measured for iteration i. The
// computation must settle with i.
type Scenario struct {
	Name string
	Call func(sc pumpexec.SynchronizationContext, i int) *pumpexec.Task[int]
}

var scenarios = []Scenario{
	{Name: ScenarioDirect, Call: directCall},
	{Name: ScenarioAwait, Call: awaitCall},
	{Name: ScenarioContinueWith, Call: continueWithCall},
}

// directCall settles right away; it measures the cost of the run alone.
func directCall(_ pumpexec.SynchronizationContext, i int) *pumpexec.Task[int] {
	return pumpexec.Completed(i)
}

// awaitCall gives up its turn and resumes through a post into sc.
func awaitCall(sc pumpexec.SynchronizationContext, i int) *pumpexec.Task[int] {
	return pumpexec.Await(sc, pumpexec.Yield(sc), func(struct{}) *pumpexec.Task[int] {
		return pumpexec.Completed(i)
	})
}

// continueWithCall hangs the rest of the work on an already completed
// handle, so it runs inline without giving up the turn.
func continueWithCall(_ pumpexec.SynchronizationContext, i int) *pumpexec.Task[int] {
	return pumpexec.ContinueWith(pumpexec.Completed(i), func(v int, err error) (int, error) {
		return v, err
	})
}

func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names
}

func lookupScenario(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
