package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_BelowLevelIsDropped(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)
	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestSlogLogger_WithAndContextFields(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := WithFields(context.Background(), "request_id", "req_1")
	ctx = WithFields(ctx, "origin", "https://a.example")

	log.With("module", "connect").Info(ctx, "hello", "k", "v")

	assert.Contains(t, buf.String(), "module=connect request_id=req_1 origin=https://a.example k=v")
}

func TestZerologLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))
	ctx := WithFields(context.Background(), "request_id", "req_2")

	log.Info(ctx, "hello")
	assert.Contains(t, buf.String(), `"request_id":"req_2"`)
}
