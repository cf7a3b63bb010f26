// Package bench measures per-call overhead of the two composition styles
// (Await, ContinueWith) on three backends: inline, the single-thread pumping
// executor and a general-purpose goroutine pool.
package bench
