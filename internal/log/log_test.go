package log

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "trace", want: LevelTrace},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerSplitsStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, closers, err := setupLogger("trace", "", &stdout, &stderr)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Log(t.Context(), LevelTrace, "garbage frame")
	logger.Info("connected")
	logger.Error("sink failed")

	assert.Contains(t, stdout.String(), "level=TRACE msg=\"garbage frame\"")
	assert.Contains(t, stdout.String(), "msg=connected")
	assert.NotContains(t, stdout.String(), "sink failed")
	assert.Contains(t, stderr.String(), "msg=\"sink failed\"")
	assert.NotContains(t, stderr.String(), "connected")
}

func TestSetupLoggerLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, _, err := setupLogger("info", "", &stdout, &stderr)
	require.NoError(t, err)

	logger.Debug("hidden")
	assert.Empty(t, stdout.String())

	_, _, err = setupLogger("nope", "", &stdout, &stderr)
	assert.Error(t, err)
}

func TestSetupLoggerFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "padbridge.log")
	logger, closers, err := setupLogger("debug", path, &stdout, &stderr)
	require.NoError(t, err)
	require.Len(t, closers, 1)
	defer closers[0].Close()

	logger.Debug("to file")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "to file")
}

func TestRawLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2024, 3, 9, 14, 5, 6, 123456000, time.Local)
	r := &rawLogger{w: &buf, mu: &sync.Mutex{}, now: func() time.Time { return ts }}

	r.Log(RX, []byte{0xc8, 0x00, 0x1f})
	r.Log(TX, nil)
	assert.Equal(t, "2024/03/09 14:05:06.123456 RX 3 bytes, hex: c8 00 1f\n", buf.String())

	line, err := ParseRawLine(buf.String())
	require.NoError(t, err)
	assert.Equal(t, RX, line.Dir)
	assert.Equal(t, []byte{0xc8, 0x00, 0x1f}, line.Data)
	assert.True(t, ts.Equal(line.Time))
}

func TestRawLoggerWithSource(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.Local)
	r := &rawLogger{w: &buf, mu: &sync.Mutex{}, now: func() time.Time { return ts }}

	WithSource(r, "AA:BB:CC:DD:EE:01").Log(RX, []byte{0xc8})
	WithSource(r, "pad two").Log(TX, []byte{0x01, 0x02})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024/03/09 14:05:06.000000 RX AA:BB:CC:DD:EE:01 1 bytes, hex: c8", lines[0])

	tests := []struct {
		line   string
		dir    Direction
		source string
		data   []byte
	}{
		{line: lines[0], dir: RX, source: "AA:BB:CC:DD:EE:01", data: []byte{0xc8}},
		{line: lines[1], dir: TX, source: "pad_two", data: []byte{0x01, 0x02}},
	}
	for _, tt := range tests {
		got, err := ParseRawLine(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.dir, got.Dir)
		assert.Equal(t, tt.source, got.Source)
		assert.Equal(t, tt.data, got.Data)
	}
}

func TestWithSourceForeignLogger(t *testing.T) {
	var other RawLogger = nopRaw{}
	assert.Equal(t, other, WithSource(other, "x"))
}

type nopRaw struct{}

func (nopRaw) Log(Direction, []byte) {}

func TestRawLoggerNilWriter(t *testing.T) {
	assert.NotPanics(t, func() { NewRaw(nil).Log(TX, []byte{1}) })
}

func TestParseRawLineErrors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		notRaw bool
	}{
		{name: "plain hex", line: "c8 00 01", notRaw: true},
		{name: "bad time", line: "yesterday noon RX 1 bytes, hex: 01", notRaw: true},
		{name: "bad direction", line: "2024/03/09 14:05:06.000000 XX 1 bytes, hex: 01", notRaw: true},
		{name: "bad hex", line: "2024/03/09 14:05:06.000000 RX 1 bytes, hex: zz"},
		{name: "too many fields", line: "2024/03/09 14:05:06.000000 RX a b 1 bytes, hex: 01", notRaw: true},
		{name: "length mismatch", line: "2024/03/09 14:05:06.000000 TX 2 bytes, hex: 01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRawLine(tt.line)
			require.Error(t, err)
			assert.Equal(t, tt.notRaw, errors.Is(err, ErrNotRawLine))
		})
	}
}
