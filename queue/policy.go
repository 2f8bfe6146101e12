package queue

// Policy selects what Offer does once a bounded queue is at capacity.
type Policy int

const (
	// PolicyUnbounded imposes no capacity; Offer always admits immediately.
	PolicyUnbounded Policy = iota
	// PolicyBlocking suspends producers while the queue is full.
	PolicyBlocking
	// PolicySliding evicts the oldest element to make room for the new one.
	PolicySliding
	// PolicyDropping discards the new element when the queue is full.
	PolicyDropping
)

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyUnbounded:
		return "unbounded"
	case PolicyBlocking:
		return "blocking"
	case PolicySliding:
		return "sliding"
	case PolicyDropping:
		return "dropping"
	default:
		return "unknown"
	}
}
