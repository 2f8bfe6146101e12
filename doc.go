// Package conc provides single-assignment result cells, policy-driven
// concurrent queues, and a NATS bridge that moves queue traffic across
// process boundaries.
//
// The package is organized into focused subpackages:
//
//   - github.com/a2y-d5l/go-conc/outcome       - Success/failure/defect result values
//   - github.com/a2y-d5l/go-conc/cell          - Single-assignment cells with blocking await
//   - github.com/a2y-d5l/go-conc/cache         - Keyed single-flight memoization over cells
//   - github.com/a2y-d5l/go-conc/queue         - Queues with unbounded, blocking, sliding, and dropping policies
//   - github.com/a2y-d5l/go-conc/bridge        - Embedded NATS transport for queues and handlers
//   - github.com/a2y-d5l/go-conc/observability - Structured logging and in-memory metrics
//
// The root package re-exports the common types so simple programs only
// need a single import.
//
// Example usage:
//
//	c := conc.NewCell[error, string]()
//	go func() { c.Succeed("ready") }()
//	if v, ok := c.Await().Value(); ok {
//		log.Println(v)
//	}
//
//	q := conc.NewQueue[int](conc.PolicySliding, 128)
//	q.Offer(1)
//	v, err := q.Take()
package conc
