// Package scheduler dispatches external CAD-tool processes with bounded
// per-kind concurrency, per-job deadlines and cooperative cancellation.
//
// Each job kind has its own worker cap because checker jobs and simulation
// jobs compete for distinct external-tool licenses; they never share a
// single global limit. Cancellation and timeout follow the same sequence: a
// cooperative termination signal, a grace period, then a forced kill.
package scheduler
