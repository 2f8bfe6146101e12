package syncx

import "errors"

// Pool errors
var (
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
	ErrPoolStopped        = errors.New("worker pool is stopped")
	ErrPoolAlreadyStopped = errors.New("worker pool already stopped")
	ErrTaskDropped        = errors.New("task dropped by queue policy")
)
