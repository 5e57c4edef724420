package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()

	assert.Len(t, a, 8)
	assert.Len(t, b, 8)
	assert.NotEqual(t, a, b)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abcd1234")

	id, ok := RequestIDFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "abcd1234", id)
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	_, ok := RequestIDFrom(context.Background())
	assert.False(t, ok)
}

func TestRequestIDHandlerInjectsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&requestIDHandler{inner: slog.NewJSONHandler(&buf, nil)})
	ctx := WithRequestID(context.Background(), "abcd1234")

	logger.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abcd1234", record["request_id"])
}

func TestRequestIDHandlerSkipsAttributeWithoutID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&requestIDHandler{inner: slog.NewJSONHandler(&buf, nil)})

	logger.InfoContext(context.Background(), "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, "request_id")
}
