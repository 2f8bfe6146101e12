package queue

// Recorder receives queue events for metrics. Implementations must be
// safe for concurrent use; calls may happen under the queue's lock and
// must not call back into the queue.
type Recorder interface {
	// RecordOffer counts one offer; admitted reports whether the element
	// entered the queue (or was handed to a consumer directly).
	RecordOffer(admitted bool)
	// RecordTake counts n elements removed by a consumer.
	RecordTake(n int)
	// RecordEvict counts n elements evicted by the sliding policy.
	RecordEvict(n int)
	// RecordDepth reports the queue depth after a mutation.
	RecordDepth(depth int)
	// RecordShutdown marks the queue shut down.
	RecordShutdown()
}

// Option configures a queue.
type Option func(*config)

type config struct {
	rec Recorder
}

func defaultConfig() config {
	return config{}
}

// WithRecorder attaches a metrics recorder to the queue.
func WithRecorder(r Recorder) Option {
	return func(c *config) { c.rec = r }
}
