package testutil

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-conc/bridge"
)

// ConnSource defines the minimal interface needed for test helpers.
type ConnSource interface {
	Conn() *nats.Conn
}

// Echo relays every message on from to to as a vanilla NATS client,
// bypassing the typed codecs entirely. It stands in for a foreign
// service that knows nothing about this module.
func Echo(s ConnSource, from, to bridge.Subject) (*nats.Subscription, error) {
	nc := s.Conn()
	sub, err := nc.Subscribe(string(from), func(msg *nats.Msg) {
		_ = nc.Publish(string(to), msg.Data)
	})
	if err != nil {
		return nil, err
	}
	if err := nc.FlushTimeout(2 * time.Second); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	return sub, nil
}

// Transform is Echo with a payload rewrite in the middle. Messages the
// rewrite rejects are dropped.
func Transform(s ConnSource, from, to bridge.Subject, fn func([]byte) ([]byte, error)) (*nats.Subscription, error) {
	nc := s.Conn()
	sub, err := nc.Subscribe(string(from), func(msg *nats.Msg) {
		out, err := fn(msg.Data)
		if err != nil {
			return
		}
		_ = nc.Publish(string(to), out)
	})
	if err != nil {
		return nil, err
	}
	if err := nc.FlushTimeout(2 * time.Second); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}
	return sub, nil
}

// RewriteJSON decodes a JSON payload into a map, applies fn, and encodes
// the result, for Transform pipelines that patch individual fields.
func RewriteJSON(fn func(map[string]any)) func([]byte) ([]byte, error) {
	return func(data []byte) ([]byte, error) {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		fn(m)
		return json.Marshal(m)
	}
}
