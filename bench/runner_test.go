package bench

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vearne/pumpexec"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Iterations = 200
	cfg.Warmup = 20
	cfg.Rounds = 2
	cfg.Pool.Size = 4
	cfg.Pool.Min = 1
	cfg.Pool.Max = 4
	cfg.Producers = 3
	cfg.PostsPerProducer = 500
	return cfg
}

// postCounter counts posts and runs them inline.
type postCounter struct {
	posts int
}

func (c *postCounter) Post(cb pumpexec.Callback, state any) {
	c.posts++
	cb(state)
}

func (c *postCounter) Send(cb pumpexec.Callback, state any) error {
	cb(state)
	return nil
}

func TestScenarios(t *testing.T) {
	assert.Equal(t, []string{ScenarioDirect, ScenarioAwait, ScenarioContinueWith}, ScenarioNames())

	cases := []struct {
		name  string
		posts int
	}{
		{ScenarioDirect, 0},
		{ScenarioAwait, 1},
		{ScenarioContinueWith, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scenario, ok := lookupScenario(tc.name)
			require.True(t, ok)

			sc := &postCounter{}
			task := scenario.Call(sc, 7)
			require.True(t, task.IsDone())
			v, err := task.Get()
			require.NoError(t, err)
			assert.Equal(t, 7, v)
			assert.Equal(t, tc.posts, sc.posts)
		})
	}
}

func TestRunnerAllCases(t *testing.T) {
	for _, kind := range []string{PoolFixed, PoolDynamic} {
		t.Run(kind, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Pool.Kind = kind

			report, err := NewRunner(cfg).Run(context.Background())
			require.NoError(t, err)
			assert.NotEmpty(t, report.RunID)
			assert.Len(t, report.Results, len(BackendNames())*len(ScenarioNames()))

			for _, backend := range []string{BackendInline, BackendPumping, BackendPool + "/" + kind} {
				for _, scenario := range ScenarioNames() {
					res, ok := report.Find(backend, scenario)
					require.True(t, ok, "%s/%s missing", backend, scenario)
					assert.Equal(t, cfg.Iterations, res.Iterations)
					assert.Greater(t, res.MeanNsPerOp, 0.0)
					assert.LessOrEqual(t, res.MinNsPerOp, res.MeanNsPerOp)
				}
			}

			require.NotNil(t, report.Contention)
			assert.Equal(t, int64(1500), report.Contention.Posted)
			assert.Equal(t, report.Contention.Posted, report.Contention.Executed)
			assert.Zero(t, report.Contention.Overlaps)
		})
	}
}

func TestRunnerSelection(t *testing.T) {
	cfg := smallConfig()
	cfg.Backends = []string{BackendPumping}
	cfg.Scenarios = []string{ScenarioContinueWith}
	cfg.Producers = 0

	report, err := NewRunner(cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, BackendPumping, report.Results[0].Backend)
	assert.Equal(t, ScenarioContinueWith, report.Results[0].Scenario)
	assert.Nil(t, report.Contention)
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Iterations = 0
	_, err := NewRunner(cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestReportWriteTo(t *testing.T) {
	report := &Report{
		RunID:    "run-1",
		MaxProcs: 4,
		PoolKind: PoolFixed,
		Results: []Result{
			{Backend: BackendPumping, Scenario: ScenarioAwait, Iterations: 10, Rounds: 1, MinNsPerOp: 120, MeanNsPerOp: 130.5},
		},
		Contention: &ContentionResult{Producers: 2, Posted: 4, Executed: 4},
	}

	var buf bytes.Buffer
	n, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "mean ns/op")
	assert.Contains(t, out, "130.5")
	assert.Contains(t, out, "overlaps=0")
}

func TestContention(t *testing.T) {
	res, err := Contention(context.Background(), 8, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), res.Executed)
	assert.Zero(t, res.Overlaps)
}

func TestContentionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Contention(ctx, 2, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
