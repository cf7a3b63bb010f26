// Package tracing wraps OpenTelemetry so the benchmark harness can record one
// span per measured case without importing the SDK directly. Until Init is
// called the global no-op provider is used and spans cost next to nothing.
package tracing
