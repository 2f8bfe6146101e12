// Package syncx provides the worker pool backing go-conc's internal
// concurrency.
//
// Pool runs submitted tasks on a fixed set of goroutines fed by a signal
// queue, so the queue's admission policy doubles as the pool's
// backpressure policy. Task panics are contained per task and logged;
// a panicking task never takes its worker down.
package syncx
