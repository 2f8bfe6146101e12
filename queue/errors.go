package queue

import "errors"

var (
	// ErrShutdown indicates the queue has been shut down. Blocked callers
	// receive it at shutdown; later offers and takes receive it
	// immediately.
	ErrShutdown = errors.New("queue is shut down")
)
