// Package scheduler decides which steps of a compiled plan graph may start.
//
// A step is ready once every one of its graph predecessors has completed.
// The scheduler only tracks readiness; running the step is the caller's job.
package scheduler
