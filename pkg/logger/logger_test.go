package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithContext_AddsKnownKeys(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug)
	t.Cleanup(func() { SetOutput(os.Stdout, slog.LevelInfo) })

	ctx := With(context.Background(), RequestIDKey, "req-1")
	ctx = With(ctx, ResidentIDKey, int64(42))
	ctx = With(ctx, FormIDKey, "form-9")

	InfoContext(ctx, "pass submitted", "variant", "visitor")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "req-1", line["request_id"])
	require.EqualValues(t, 42, line["resident_id"])
	require.Equal(t, "form-9", line["form_id"])
	require.Equal(t, "visitor", line["variant"])
	require.NotContains(t, line, "service")
}
