package logsink_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/Alia5/padbridge/emit"
	"github.com/Alia5/padbridge/normalize"
	"github.com/Alia5/padbridge/sink/logsink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := logsink.New(slog.New(slog.NewTextHandler(&buf, nil)), slog.LevelInfo)

	require.NoError(t, emit.Emit(normalize.Event{
		Buttons:  normalize.CapCross | normalize.CapOptions,
		Triggers: [2]uint16{12, 255},
		Sticks:   [2]normalize.Vec2{{X: -1, Y: 0.5}, {}},
	}, s))
	require.NoError(t, emit.Emit(normalize.Event{}, s))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "n=1 buttons=cross|options l2=12 r2=255 left.x=-1 left.y=0.5 right.x=0 right.y=0")
	assert.Contains(t, lines[1], "n=2 buttons=none")
	assert.Equal(t, uint64(2), s.Frames())
}

func TestLogSinkLevel(t *testing.T) {
	var buf bytes.Buffer
	s := logsink.New(slog.New(slog.NewTextHandler(&buf, nil)), slog.LevelDebug)
	require.NoError(t, s.Commit())
	assert.Empty(t, buf.String())
	assert.Equal(t, uint64(1), s.Frames())
}
