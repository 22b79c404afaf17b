package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDIsAttached(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	ctx := WithRequestID(context.Background(), "req-42")
	InfoLog(ctx, "saved worksheet %s", "ws-1")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "saved worksheet ws-1", line["message"])
	assert.Equal(t, "req-42", line["request_id"])
}

func TestSetLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	SetLevel("warn")
	DebugLog(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	WarnLog(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")

	SetLevel("nonsense")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestRequestIDMissing(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
