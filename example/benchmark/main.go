package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	slog "github.com/vearne/simplelog"

	"github.com/vearne/pumpexec/bench"
	"github.com/vearne/pumpexec/tracing"
)

/*
	go run ./example/benchmark
	go run ./example/benchmark -config bench.yaml -backends pumping,pool -trace spans.json
*/
func main() {
	configPath := flag.String("config", "", "YAML benchmark config; defaults are used when empty")
	backends := flag.String("backends", "", "comma separated backends to measure (inline,pumping,pool)")
	traceFile := flag.String("trace", "", "write OpenTelemetry spans to this file, - for stdout")
	flag.Parse()

	cfg := bench.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = bench.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *backends != "" {
		cfg.Backends = strings.Split(*backends, ",")
	}
	if *traceFile != "" {
		cfg.TraceFile = *traceFile
	}

	if cfg.TraceFile != "" {
		out := cfg.TraceFile
		if out == "-" {
			out = ""
		}
		if err := tracing.Init("pumpexec-bench", "0.1.0", out); err != nil {
			log.Fatalf("failed to init tracing: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	report, err := bench.NewRunner(cfg).Run(ctx)
	stop()
	if report != nil {
		if _, werr := report.WriteTo(os.Stdout); werr != nil {
			slog.Error("write report: %v", werr)
		}
	}

	// flush spans before a possible os.Exit
	if serr := tracing.Shutdown(context.Background()); serr != nil {
		slog.Warn("tracing shutdown: %v", serr)
	}
	if err != nil {
		slog.Error("benchmark failed: %v", err)
		os.Exit(1)
	}
}
