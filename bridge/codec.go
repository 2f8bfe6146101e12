package bridge

import "encoding/json"

// Codec is a pluggable encoder/decoder for queue elements on the wire
// (default JSON).
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
	ContentType() string
}

// jsonCodec implements Codec using the stdlib encoding/json.
type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v T) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func (jsonCodec[T]) ContentType() string { return "application/json" }

// JSONCodec returns the default JSON codec for T.
func JSONCodec[T any]() Codec[T] { return jsonCodec[T]{} }
