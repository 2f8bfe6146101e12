// Package observability provides structured logging and in-memory
// metrics for the library's moving parts: queues, cells, worker pools,
// and the NATS bridge.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// LogFormat represents the output format for logs.
type LogFormat int

const (
	// JSON format outputs structured JSON logs
	JSON LogFormat = iota
	// Text format outputs human-readable text logs
	Text
)

// Logger is the logging contract used throughout the library.
type Logger interface {
	Debug(msg string, fields ...slog.Attr)
	Info(msg string, fields ...slog.Attr)
	Warn(msg string, fields ...slog.Attr)
	Error(msg string, fields ...slog.Attr)
	With(fields ...slog.Attr) Logger
	Log(ctx context.Context, level slog.Level, msg string, fields ...slog.Attr)
	// Slog exposes the underlying slog logger for components that take
	// a *slog.Logger directly. Sampling does not apply to it.
	Slog() *slog.Logger
}

// LoggerConfig holds configuration for creating a logger.
type LoggerConfig struct {
	Level    slog.Level
	Format   LogFormat
	Output   io.Writer
	Sampling *SamplingConfig
}

// SamplingConfig controls log sampling for high-throughput paths.
// Warnings and errors always pass regardless of sampling.
type SamplingConfig struct {
	Enabled      bool
	Rate         float64 // 0.0-1.0, fraction of logs to keep
	MaxPerSecond int     // maximum logs per second, 0 for no cap
}

// defaultLogger is the package-level logger instance.
var defaultLogger Logger = NewLogger(LoggerConfig{
	Level:  slog.LevelInfo,
	Format: Text,
	Output: os.Stderr,
})

// SetDefaultLogger sets the package-level default logger.
func SetDefaultLogger(logger Logger) {
	defaultLogger = logger
}

// Default returns the package-level default logger.
func Default() Logger {
	return defaultLogger
}

// Convenience functions using the default logger.

func Debug(msg string, fields ...slog.Attr) {
	defaultLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...slog.Attr) {
	defaultLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...slog.Attr) {
	defaultLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...slog.Attr) {
	defaultLogger.Error(msg, fields...)
}

// logger implements the Logger interface.
type logger struct {
	slogger  *slog.Logger
	sampling *sampler
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(config LoggerConfig) Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: config.Level,
	}

	var handler slog.Handler
	switch config.Format {
	case JSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	var s *sampler
	if config.Sampling != nil && config.Sampling.Enabled {
		s = newSampler(config.Sampling)
	}

	return &logger{
		slogger:  slog.New(handler),
		sampling: s,
	}
}

func (l *logger) Debug(msg string, fields ...slog.Attr) {
	l.log(slog.LevelDebug, msg, fields...)
}

func (l *logger) Info(msg string, fields ...slog.Attr) {
	l.log(slog.LevelInfo, msg, fields...)
}

func (l *logger) Warn(msg string, fields ...slog.Attr) {
	l.log(slog.LevelWarn, msg, fields...)
}

func (l *logger) Error(msg string, fields ...slog.Attr) {
	l.log(slog.LevelError, msg, fields...)
}

// With returns a logger that stamps the given fields on every entry.
func (l *logger) With(fields ...slog.Attr) Logger {
	args := make([]any, len(fields))
	for i, attr := range fields {
		args[i] = attr
	}
	return &logger{
		slogger:  l.slogger.With(args...),
		sampling: l.sampling,
	}
}

// Log logs a message at the specified level, honoring sampling.
func (l *logger) Log(ctx context.Context, level slog.Level, msg string, fields ...slog.Attr) {
	if l.sampling != nil && !l.sampling.shouldLog(level) {
		return
	}
	l.slogger.LogAttrs(ctx, level, msg, fields...)
}

func (l *logger) Slog() *slog.Logger {
	return l.slogger
}

func (l *logger) log(level slog.Level, msg string, fields ...slog.Attr) {
	l.Log(context.Background(), level, msg, fields...)
}

// sampler throttles low-severity logs. Warnings and errors bypass it.
type sampler struct {
	config   *SamplingConfig
	counter  atomic.Uint64
	lastSec  atomic.Int64
	secCount atomic.Uint64
}

func newSampler(config *SamplingConfig) *sampler {
	return &sampler{config: config}
}

func (s *sampler) shouldLog(level slog.Level) bool {
	if level >= slog.LevelWarn {
		return true
	}

	if s.config.MaxPerSecond > 0 {
		now := time.Now().Unix()
		lastSec := s.lastSec.Load()
		if now != lastSec {
			if s.lastSec.CompareAndSwap(lastSec, now) {
				s.secCount.Store(1)
			}
		} else if int(s.secCount.Add(1)) > s.config.MaxPerSecond {
			return false
		}
	}

	if s.config.Rate < 1.0 {
		count := s.counter.Add(1)
		if float64(count%100)/100.0 >= s.config.Rate {
			return false
		}
	}

	return true
}

// Field helpers for consistent keys across the library.

// QueueField names the queue an entry concerns.
func QueueField(name string) slog.Attr {
	return slog.String("queue", name)
}

// PolicyField records a queue's admission policy.
func PolicyField(policy string) slog.Attr {
	return slog.String("policy", policy)
}

// QueueDepth records the number of queued elements.
func QueueDepth(depth int) slog.Attr {
	return slog.Int("queue_depth", depth)
}

// QueueCapacity records a queue's configured capacity.
func QueueCapacity(capacity int) slog.Attr {
	return slog.Int("queue_capacity", capacity)
}

// SubjectField names the NATS subject an entry concerns.
func SubjectField(subject string) slog.Attr {
	return slog.String("subject", subject)
}

// MessageID records the per-message correlation id.
func MessageID(id string) slog.Attr {
	return slog.String("message_id", id)
}

// KeyField names the cache key an entry concerns.
func KeyField(key string) slog.Attr {
	return slog.String("key", key)
}

// OperationField names the operation being performed.
func OperationField(op string) slog.Attr {
	return slog.String("operation", op)
}

// DurationField records an elapsed time.
func DurationField(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// ErrorField records an error.
func ErrorField(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// WorkerCount records the size of a worker set.
func WorkerCount(count int) slog.Attr {
	return slog.Int("worker_count", count)
}

// DeliveredCount records how many elements were delivered.
func DeliveredCount(n int64) slog.Attr {
	return slog.Int64("delivered", n)
}

// DroppedCount records how many elements were dropped.
func DroppedCount(n int64) slog.Attr {
	return slog.Int64("dropped", n)
}

// EvictedCount records how many elements were evicted.
func EvictedCount(n int64) slog.Attr {
	return slog.Int64("evicted", n)
}
