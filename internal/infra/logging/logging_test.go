//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1")
	With(ctx, &base).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "trace-1", TraceID(ctx))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "+201012345678", Redact("+201012345678", true))
	assert.Equal(t, "+201...78", Redact("+201012345678", false))
	assert.Equal(t, "***", Redact("short", false))
}
