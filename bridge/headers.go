package bridge

// Standard header keys stamped on every forwarded message.
const (
	HeaderContentType = "content-type"
	HeaderMessageID   = "message-id"
	HeaderTimestamp   = "timestamp"
)
