package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestZerologLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	log.With("module", "relay").Info(ctx, "connect", "origin", "https://a", "dangling")
	log.Debug(ctx, "dbg")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"module":"relay"`)
	assert.Contains(t, out, `"origin":"https://a"`)
	assert.Contains(t, out, `"message":"connect"`)
	assert.NotContains(t, out, "dangling")
	assert.Contains(t, out, `"level":"debug"`)
}

func TestNew_SelectsFormat(t *testing.T) {
	var buf bytes.Buffer
	New(FormatJSON, &buf).Info(context.Background(), "hi")
	assert.Contains(t, buf.String(), `"msg":"hi"`)

	buf.Reset()
	New(FormatZerolog, &buf).Warn(context.Background(), "hi")
	assert.Contains(t, buf.String(), `"level":"warn"`)

	buf.Reset()
	New("", &buf).Error(context.Background(), "hi")
	assert.Contains(t, buf.String(), "level=ERROR")

	Nop().Info(context.Background(), "nothing")
}
