// Package observability provides structured logging and metrics collection
// for go-conc, covering queue, cell, cache, and bridge activity.
//
// # Structured Logging
//
// The observability package provides a production-ready structured logging
// solution built on Go's standard slog package:
//
//	logger := observability.NewLogger(observability.LoggerConfig{
//		Level:  slog.LevelInfo,
//		Format: observability.JSON,
//		Output: os.Stdout,
//	})
//
//	logger.Info("element admitted",
//		observability.QueueField("jobs"),
//		observability.QueueDepth(queue.Size()),
//	)
//
// # High-Volume Sampling
//
// For hot paths such as per-element queue logging, sampling can prevent
// log overload. Warnings and errors always bypass sampling:
//
//	logger := observability.NewLogger(observability.LoggerConfig{
//		Level:  slog.LevelInfo,
//		Format: observability.JSON,
//		Output: os.Stdout,
//		Sampling: &observability.SamplingConfig{
//			Enabled:      true,
//			Rate:         0.1, // Sample 10% of messages
//			MaxPerSecond: 100, // Limit to 100 logs per second
//		},
//	})
//
// # Metrics
//
// InMemoryMetricsCollector accumulates counters, gauges, and histograms.
// Recorder types translate component events into metric series: QueueMetrics
// satisfies the queue package's Recorder interface and is attached with
// queue.WithRecorder, while CellMetrics and BridgeMetrics are called
// directly by code that owns cells or bridges:
//
//	collector := observability.NewInMemoryMetricsCollector()
//	recorder := observability.NewQueueMetrics(collector, "jobs", "blocking")
//	q := queue.NewBlocking[Job](64, queue.WithRecorder(recorder))
package observability
