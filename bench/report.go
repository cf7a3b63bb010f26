package bench

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Result is one measured (backend, scenario) case.
type Result struct {
	Backend     string
	Scenario    string
	Iterations  int
	Rounds      int
	Elapsed     time.Duration
	MinNsPerOp  float64
	MeanNsPerOp float64
	AllocsPerOp float64
	BytesPerOp  float64
}

type Report struct {
	RunID      string
	Started    time.Time
	Elapsed    time.Duration
	MaxProcs   int
	PoolKind   string
	Results    []Result
	Contention *ContentionResult
}

// Find returns the result of backend/scenario, if measured.
func (r *Report) Find(backend, scenario string) (Result, bool) {
	for _, res := range r.Results {
		if res.Backend == backend && res.Scenario == scenario {
			return res, true
		}
	}
	return Result{}, false
}

// WriteTo prints the report as an aligned table.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "run %s  GOMAXPROCS=%d  pool=%s  elapsed=%v\n\n", r.RunID, r.MaxProcs, r.PoolKind, r.Elapsed)

	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "backend\tscenario\titerations\trounds\tmin ns/op\tmean ns/op\tallocs/op\tB/op\t")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%.1f\t%.2f\t%.1f\t\n",
			res.Backend, res.Scenario, res.Iterations, res.Rounds,
			res.MinNsPerOp, res.MeanNsPerOp, res.AllocsPerOp, res.BytesPerOp)
	}
	if err := tw.Flush(); err != nil {
		return cw.n, err
	}

	if c := r.Contention; c != nil {
		fmt.Fprintf(cw, "\ncontention: producers=%d posted=%d executed=%d overlaps=%d elapsed=%v\n",
			c.Producers, c.Posted, c.Executed, c.Overlaps, c.Elapsed)
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
