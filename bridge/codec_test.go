package bridge

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data structures for codec testing
type codecTestUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type codecTestOrder struct {
	OrderID   string    `json:"order_id"`
	UserID    int       `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// --------------------- JSON Codec Tests ---------------------

func TestJSONCodec_Roundtrip(t *testing.T) {
	t.Run("simple struct", func(t *testing.T) {
		codec := JSONCodec[codecTestUser]()
		user := codecTestUser{ID: 123, Name: "John Doe", Email: "john@example.com"}

		data, err := codec.Encode(user)
		require.NoError(t, err)
		assert.True(t, json.Valid(data))

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, user, decoded)
	})

	t.Run("struct with time", func(t *testing.T) {
		codec := JSONCodec[codecTestOrder]()
		order := codecTestOrder{
			OrderID:   "ORD-001",
			UserID:    123,
			Amount:    99.99,
			CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		}

		data, err := codec.Encode(order)
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, order, decoded)
	})

	t.Run("slice", func(t *testing.T) {
		codec := JSONCodec[[]string]()

		data, err := codec.Encode([]string{"a", "b", "c"})
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, decoded)
	})

	t.Run("map", func(t *testing.T) {
		codec := JSONCodec[map[string]int]()

		data, err := codec.Encode(map[string]int{"a": 1, "b": 2})
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"a": 1, "b": 2}, decoded)
	})

	t.Run("scalar", func(t *testing.T) {
		codec := JSONCodec[int]()

		data, err := codec.Encode(42)
		require.NoError(t, err)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, 42, decoded)
	})
}

func TestJSONCodec_ContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSONCodec[codecTestUser]().ContentType())
}

func TestJSONCodec_Errors(t *testing.T) {
	t.Run("decode invalid JSON", func(t *testing.T) {
		codec := JSONCodec[codecTestUser]()
		_, err := codec.Decode([]byte(`{"incomplete": `))
		assert.Error(t, err)
	})

	t.Run("decode type mismatch", func(t *testing.T) {
		codec := JSONCodec[int]()
		_, err := codec.Decode([]byte(`"string value"`))
		assert.Error(t, err)
	})

	t.Run("encode unsupported type", func(t *testing.T) {
		codec := JSONCodec[chan int]()
		ch := make(chan int)
		defer close(ch)
		_, err := codec.Encode(ch)
		assert.Error(t, err)
	})
}

// --------------------- Custom Codec Tests ---------------------

// mockCodec exercises the Codec interface with injectable failures.
type mockCodec struct {
	encodeErr error
	decodeErr error
}

func (m mockCodec) Encode(v string) ([]byte, error) {
	if m.encodeErr != nil {
		return nil, m.encodeErr
	}
	return []byte("mock:" + v), nil
}

func (m mockCodec) Decode(data []byte) (string, error) {
	if m.decodeErr != nil {
		return "", m.decodeErr
	}
	return "decoded:" + string(data), nil
}

func (m mockCodec) ContentType() string { return "application/mock" }

func TestCustomCodec_Implementation(t *testing.T) {
	t.Run("basic functionality", func(t *testing.T) {
		var codec Codec[string] = mockCodec{}

		data, err := codec.Encode("payload")
		require.NoError(t, err)
		assert.Equal(t, "mock:payload", string(data))

		decoded, err := codec.Decode([]byte("raw"))
		require.NoError(t, err)
		assert.Equal(t, "decoded:raw", decoded)

		assert.Equal(t, "application/mock", codec.ContentType())
	})

	t.Run("with errors", func(t *testing.T) {
		encodeErr := errors.New("encode error")
		decodeErr := errors.New("decode error")
		var codec Codec[string] = mockCodec{encodeErr: encodeErr, decodeErr: decodeErr}

		_, err := codec.Encode("payload")
		assert.Equal(t, encodeErr, err)

		_, err = codec.Decode([]byte("raw"))
		assert.Equal(t, decodeErr, err)
	})
}

// --------------------- Performance Tests ---------------------

func BenchmarkJSONCodec_Encode(b *testing.B) {
	codec := JSONCodec[codecTestUser]()
	user := codecTestUser{ID: 123, Name: "John Doe", Email: "john@example.com"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Encode(user); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJSONCodec_Decode(b *testing.B) {
	codec := JSONCodec[codecTestUser]()
	data, _ := codec.Encode(codecTestUser{ID: 123, Name: "John Doe", Email: "john@example.com"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}
