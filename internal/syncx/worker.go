package syncx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/a2y-d5l/go-conc/queue"
)

// Pool runs submitted tasks on a fixed set of worker goroutines fed by a
// shared task queue. The queue's admission policy decides what happens
// when tasks arrive faster than the workers drain them: a blocking queue
// suspends Submit, a sliding queue evicts the oldest queued task, and a
// dropping queue rejects the new one.
type Pool struct {
	workers int
	tasks   *queue.Queue[func()]
	logger  *slog.Logger
	wg      sync.WaitGroup

	started atomic.Bool
	stopped atomic.Bool

	submitted atomic.Uint64
	completed atomic.Uint64
	dropped   atomic.Uint64
	panicked  atomic.Uint64
}

// PoolConfig holds configuration for creating a pool.
type PoolConfig struct {
	// Workers is the number of worker goroutines. Defaults to 1.
	Workers int

	// Capacity bounds the task queue for bounded policies. Defaults to
	// 100. Ignored when Policy is PolicyUnbounded.
	Capacity int

	// Policy selects the queue admission policy. The zero value is
	// PolicyUnbounded.
	Policy queue.Policy

	// Logger receives recovered task panics. Defaults to slog.Default().
	Logger *slog.Logger
}

// PoolMetrics is a point-in-time snapshot of pool counters.
type PoolMetrics struct {
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksDropped   uint64
	TasksPanicked  uint64
	QueueDepth     int
}

// poolRecorder counts sliding-policy evictions against the pool's
// dropped counter. Rejections are counted by Submit itself.
type poolRecorder struct {
	p *Pool
}

func (r poolRecorder) RecordOffer(bool)  {}
func (r poolRecorder) RecordTake(int)    {}
func (r poolRecorder) RecordDepth(int)   {}
func (r poolRecorder) RecordShutdown()   {}
func (r poolRecorder) RecordEvict(n int) { r.p.dropped.Add(uint64(n)) }

// NewPool creates a new pool with the given configuration. Workers are
// not spawned until Start.
func NewPool(config PoolConfig) *Pool {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.Capacity <= 0 {
		config.Capacity = 100
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	p := &Pool{
		workers: config.Workers,
		logger:  config.Logger,
	}
	p.tasks = queue.New[func()](config.Policy, config.Capacity, queue.WithRecorder(poolRecorder{p}))
	return p
}

// Start spawns the worker goroutines. Tasks submitted before Start sit
// in the queue until a worker picks them up.
func (p *Pool) Start() error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrPoolAlreadyStarted
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

// Submit hands a task to the pool. Under a blocking policy a full queue
// suspends the caller until a worker frees space; under a dropping
// policy the task is rejected with ErrTaskDropped.
func (p *Pool) Submit(task func()) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	p.submitted.Add(1)

	admitted, err := p.tasks.Offer(task)
	if err != nil {
		return ErrPoolStopped
	}
	if !admitted {
		p.dropped.Add(1)
		return ErrTaskDropped
	}
	return nil
}

// SubmitContext is Submit bounded by ctx. A task abandoned while
// suspended on a full blocking queue returns ctx.Err().
func (p *Pool) SubmitContext(ctx context.Context, task func()) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	p.submitted.Add(1)

	admitted, err := p.tasks.OfferContext(ctx, task)
	switch {
	case err == queue.ErrShutdown:
		return ErrPoolStopped
	case err != nil:
		return err
	case !admitted:
		p.dropped.Add(1)
		return ErrTaskDropped
	}
	return nil
}

// Stop shuts the pool down: queued tasks are discarded, workers finish
// their in-flight task and exit. Stop waits for the workers up to ctx.
func (p *Pool) Stop(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return ErrPoolAlreadyStopped
	}

	p.tasks.Shutdown()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Metrics returns a snapshot of the pool counters.
func (p *Pool) Metrics() PoolMetrics {
	return PoolMetrics{
		TasksSubmitted: p.submitted.Load(),
		TasksCompleted: p.completed.Load(),
		TasksDropped:   p.dropped.Load(),
		TasksPanicked:  p.panicked.Load(),
		QueueDepth:     p.tasks.Size(),
	}
}

// QueueDepth returns the current number of queued tasks.
func (p *Pool) QueueDepth() int {
	return p.tasks.Size()
}

// IsStarted returns true if the pool has been started.
func (p *Pool) IsStarted() bool {
	return p.started.Load()
}

// IsStopped returns true if the pool has been stopped.
func (p *Pool) IsStopped() bool {
	return p.stopped.Load()
}

// worker is the main worker loop. It drains the task queue until
// shutdown releases it.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		task, err := p.tasks.Take()
		if err != nil {
			return
		}
		p.invoke(task)
	}
}

// invoke runs one task, containing any panic so the worker survives.
func (p *Pool) invoke(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			p.logger.Error("task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	task()
	p.completed.Add(1)
}
