package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	PoolFixed   = "fixed"
	PoolDynamic = "dynamic"
)

// Config drives a benchmark run.
type Config struct {
	// Iterations is the number of calls per measured round.
	Iterations int `yaml:"iterations"`
	// Warmup calls are made before the first round and not measured.
	Warmup int `yaml:"warmup"`
	Rounds int `yaml:"rounds"`

	// Backends and Scenarios select what is measured; empty means all.
	Backends  []string `yaml:"backends"`
	Scenarios []string `yaml:"scenarios"`

	Pool PoolConfig `yaml:"pool"`

	// MaxProcs sets GOMAXPROCS when positive.
	MaxProcs int `yaml:"maxProcs"`

	// Producers and PostsPerProducer size the contention case; zero
	// producers skips it.
	Producers        int `yaml:"producers"`
	PostsPerProducer int `yaml:"postsPerProducer"`

	// TraceFile receives OpenTelemetry spans when set; "-" means stdout.
	TraceFile string `yaml:"traceFile"`
}

type PoolConfig struct {
	Kind         string `yaml:"kind"`
	Size         int    `yaml:"size"`
	Min          int    `yaml:"min"`
	Max          int    `yaml:"max"`
	TaskQueueCap int    `yaml:"taskQueueCap"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	procs := runtime.NumCPU()
	return Config{
		Iterations: 100000,
		Warmup:     10000,
		Rounds:     5,
		Pool: PoolConfig{
			Kind:         PoolFixed,
			Size:         procs,
			Min:          1,
			Max:          procs,
			TaskQueueCap: 1000,
		},
		Producers:        4,
		PostsPerProducer: 10000,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be run.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	for _, name := range c.Backends {
		if !slices.Contains(BackendNames(), name) {
			return fmt.Errorf("unknown backend %q", name)
		}
	}
	for _, name := range c.Scenarios {
		if !slices.Contains(ScenarioNames(), name) {
			return fmt.Errorf("unknown scenario %q", name)
		}
	}
	switch c.Pool.Kind {
	case PoolFixed:
		if c.Pool.Size <= 0 {
			return fmt.Errorf("pool.size must be positive, got %d", c.Pool.Size)
		}
	case PoolDynamic:
		if c.Pool.Min <= 0 || c.Pool.Min > c.Pool.Max {
			return fmt.Errorf("pool.min must be in [1, pool.max], got min=%d max=%d", c.Pool.Min, c.Pool.Max)
		}
	default:
		return fmt.Errorf("unknown pool.kind %q", c.Pool.Kind)
	}
	if c.Pool.TaskQueueCap < 0 {
		return fmt.Errorf("pool.taskQueueCap must not be negative, got %d", c.Pool.TaskQueueCap)
	}
	if c.Producers < 0 || c.PostsPerProducer < 0 {
		return fmt.Errorf("producers and postsPerProducer must not be negative")
	}
	return nil
}
