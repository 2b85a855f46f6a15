package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "bad JSON: %s", buf.String())
	return entry
}

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("authflow", "1.2.3", Options{Writer: &buf})
	logger.Info("hello")

	entry := decode(t, &buf)
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "authflow", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.NotContains(t, entry, "trace_id")
}

func TestSetupTextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("authflow", "dev", Options{Format: "text", Level: "warn", Writer: &buf})
	logger.Info("dropped")
	assert.Empty(t, buf.String())
	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "service=authflow")
}

func TestTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("authflow", "dev", Options{Writer: &buf})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	logger.With("flow", "login").InfoContext(ctx, "traced")

	entry := decode(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.Equal(t, "login", entry["flow"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestLogErrorOops(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("authflow", "dev", Options{Writer: &buf})
	err := oops.Code("TRANSIENT_DISPATCH_ERROR").With("flow", "login").Wrap(errors.New("smtp down"))
	LogError(context.Background(), logger, "verification dispatch failed", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "TRANSIENT_DISPATCH_ERROR", entry["code"])
	assert.Contains(t, entry["error"], "smtp down")
}

func TestLogErrorPlainAndNil(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("authflow", "dev", Options{Writer: &buf})
	LogError(context.Background(), logger, "nothing", nil)
	assert.Empty(t, buf.String())

	LogErrorLevel(context.Background(), logger, slog.LevelWarn, "plain", errors.New("boom"))
	entry := decode(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}
