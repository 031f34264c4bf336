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

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	buf.Reset()
	return entry
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(zerolog.New(&buf), "tracker")

	logger.Info().Msg("collection updated")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "tracker", entry["component"])
	assert.Equal(t, "collection updated", entry["message"])
	assert.NotContains(t, entry, "item_id")
}

func TestComponent_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(zerolog.New(&buf), "server")

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithItemID(ctx, "42")
	ctx = WithCommand(ctx, "serve")

	logger.Info().Ctx(ctx).Msg("request")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "42", entry["item_id"])
	assert.Equal(t, "serve", entry["command"])
}

func TestComponent_RespectsParentLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(zerolog.New(&buf).Level(zerolog.WarnLevel), "jobs")

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Equal(t, "jobs", decodeLine(t, &buf)["component"])
}
