package bench

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	slog "github.com/vearne/simplelog"

	"github.com/vearne/pumpexec"
	"github.com/vearne/pumpexec/tracing"
)

// Runner executes every selected (backend, scenario) case of a Config.
type Runner struct {
	cfg Config
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run measures all cases sequentially. Backends are created and completed
// around their own cases so that no worker of one backend competes with the
// next.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	if err = r.cfg.Validate(); err != nil {
		return nil, err
	}
	if r.cfg.MaxProcs > 0 {
		prev := runtime.GOMAXPROCS(r.cfg.MaxProcs)
		defer runtime.GOMAXPROCS(prev)
	}

	report = &Report{
		RunID:    uuid.New().String(),
		Started:  time.Now(),
		MaxProcs: runtime.GOMAXPROCS(0),
		PoolKind: r.cfg.Pool.Kind,
	}
	ctx, span := tracing.StartSpan(ctx, "bench.Run")
	span.WithAttributes(map[string]string{"run.id": report.RunID})
	defer func() { tracing.EndSpan(span, err) }()

	slog.Info("bench run %v started, GOMAXPROCS:%v", report.RunID, report.MaxProcs)

	for _, backendName := range selected(r.cfg.Backends, BackendNames()) {
		results, berr := r.runBackend(ctx, backendName)
		report.Results = append(report.Results, results...)
		if berr != nil {
			return report, berr
		}
	}

	if r.cfg.Producers > 0 {
		res, cerr := Contention(ctx, r.cfg.Producers, r.cfg.PostsPerProducer)
		if cerr != nil {
			return report, fmt.Errorf("contention: %w", cerr)
		}
		report.Contention = &res
	}

	report.Elapsed = time.Since(report.Started)
	slog.Info("bench run %v finished in %v", report.RunID, report.Elapsed)
	return report, nil
}

func (r *Runner) runBackend(ctx context.Context, name string) (results []Result, err error) {
	backend, err := NewBackend(ctx, name, r.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close backend %s: %w", backend.Name(), cerr)
		}
	}()

	for _, scenarioName := range selected(r.cfg.Scenarios, ScenarioNames()) {
		scenario, _ := lookupScenario(scenarioName)
		res, merr := r.measure(ctx, backend, scenario)
		if merr != nil {
			return results, fmt.Errorf("%s/%s: %w", backend.Name(), scenario.Name, merr)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) measure(ctx context.Context, backend Backend, scenario Scenario) (res Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "bench.case")
	span.WithAttributes(map[string]string{"backend": backend.Name(), "scenario": scenario.Name}).
		WithInt64("iterations", int64(r.cfg.Iterations))
	defer func() { tracing.EndSpan(span, err) }()

	sc := backend.Context()
	call := func(i int) error {
		v, err := pumpexec.RunOn(sc, func(sc pumpexec.SynchronizationContext) *pumpexec.Task[int] {
			return scenario.Call(sc, i)
		}).GetContext(ctx)
		if err != nil {
			return err
		}
		if v != i {
			return fmt.Errorf("iteration %d settled with %d", i, v)
		}
		return nil
	}

	for i := 0; i < r.cfg.Warmup; i++ {
		if err = call(i); err != nil {
			return res, err
		}
	}

	res = Result{
		Backend:    backend.Name(),
		Scenario:   scenario.Name,
		Iterations: r.cfg.Iterations,
		Rounds:     r.cfg.Rounds,
		MinNsPerOp: math.MaxFloat64,
	}
	var total time.Duration
	var mallocs, bytes uint64
	var before, after runtime.MemStats
	for round := 0; round < r.cfg.Rounds; round++ {
		runtime.GC()
		runtime.ReadMemStats(&before)
		start := time.Now()
		for i := 0; i < r.cfg.Iterations; i++ {
			if err = call(i); err != nil {
				return res, err
			}
		}
		elapsed := time.Since(start)
		runtime.ReadMemStats(&after)

		total += elapsed
		mallocs += after.Mallocs - before.Mallocs
		bytes += after.TotalAlloc - before.TotalAlloc
		res.MinNsPerOp = math.Min(res.MinNsPerOp, nsPerOp(elapsed, r.cfg.Iterations))
	}

	ops := float64(r.cfg.Iterations * r.cfg.Rounds)
	res.Elapsed = total
	res.MeanNsPerOp = float64(total.Nanoseconds()) / ops
	res.AllocsPerOp = float64(mallocs) / ops
	res.BytesPerOp = float64(bytes) / ops
	slog.Debug("case %v/%v: %.1f ns/op", res.Backend, res.Scenario, res.MeanNsPerOp)
	return res, nil
}

func nsPerOp(d time.Duration, n int) float64 {
	return float64(d.Nanoseconds()) / float64(n)
}

// selected returns want, or all when want is empty.
func selected(want, all []string) []string {
	if len(want) == 0 {
		return all
	}
	return want
}
