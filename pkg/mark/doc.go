// Package mark is a micro-benchmark harness.
//
// A Runner declares a fixed, ordered set of steps. Cases registered on the
// runner implement every step, and optionally an initializer whose return
// values become the arguments of each step invocation. Run measures every
// step of every case RunCount times, recording wall clock seconds,
// high-resolution seconds and heap bytes before and after each call.
// Summarize reduces the raw samples to fastest, slowest, average and total
// deltas, ranked by the Euclidean norm of the three dimensions.
//
// All execution is sequential on the calling goroutine.
package mark
