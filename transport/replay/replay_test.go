package replay

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const capture = `# gamesir capture
2024/03/09 14:05:06.000000 RX 3 bytes, hex: c8 00 01
2024/03/09 14:05:06.000100 TX 2 bytes, hex: 00 00

2024/03/09 14:05:06.020000 RX 2 bytes, hex: c9 ff
c8:00:02
0xc80003
  c8 00 04
`

func collect(t *testing.T, s *Source) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		f, err := s.Next(t.Context())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, f)
	}
}

func TestReplayFormats(t *testing.T) {
	s := New(strings.NewReader(capture), Options{})
	assert.Equal(t, [][]byte{
		{0xc8, 0x00, 0x01},
		{0xc9, 0xff},
		{0xc8, 0x00, 0x02},
		{0xc8, 0x00, 0x03},
		{0xc8, 0x00, 0x04},
	}, collect(t, s))
	assert.NoError(t, s.Close())
}

func TestReplayPacing(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []time.Duration
	}{
		{name: "none", opts: Options{Pacing: PaceNone}},
		{name: "fixed", opts: Options{Pacing: PaceFixed, Interval: 5 * time.Millisecond}, want: []time.Duration{
			5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond,
		}},
		{name: "capture", opts: Options{Pacing: PaceCapture}, want: []time.Duration{20 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(strings.NewReader(capture), tt.opts)
			var slept []time.Duration
			s.sleep = func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			}
			assert.Len(t, collect(t, s), 5)
			assert.Equal(t, tt.want, slept)
		})
	}
}

func TestReplayBadLine(t *testing.T) {
	s := New(strings.NewReader("c8 00\nnot hex at all\n"), Options{})
	_, err := s.Next(t.Context())
	require.NoError(t, err)
	_, err = s.Next(t.Context())
	assert.ErrorContains(t, err, "line 2")
}

const twoControllers = `2024/03/09 14:05:06.000000 RX AA:BB:CC:DD:EE:01 2 bytes, hex: c8 01
2024/03/09 14:05:06.001000 TX AA:BB:CC:DD:EE:01 1 bytes, hex: 00
2024/03/09 14:05:06.002000 RX AA:BB:CC:DD:EE:02 2 bytes, hex: c8 02
2024/03/09 14:05:06.003000 RX AA:BB:CC:DD:EE:01 2 bytes, hex: c8 03
c8 04
`

func TestReplaySelectSource(t *testing.T) {
	tests := []struct {
		source string
		want   [][]byte
	}{
		{source: "AA:BB:CC:DD:EE:01", want: [][]byte{{0xc8, 0x01}, {0xc8, 0x03}}},
		{source: "AA:BB:CC:DD:EE:02", want: [][]byte{{0xc8, 0x02}}},
		{source: "AA:BB:CC:DD:EE:03"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			s := New(strings.NewReader(twoControllers), Options{Source: tt.source})
			assert.Equal(t, tt.want, collect(t, s))
		})
	}
}

func TestReplayMixedSources(t *testing.T) {
	s := New(strings.NewReader(twoControllers), Options{})
	f, err := s.Next(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc8, 0x01}, f)

	_, err = s.Next(t.Context())
	require.ErrorIs(t, err, ErrMixedSources)
	assert.ErrorContains(t, err, "line 3")
}

func TestReplayCancelled(t *testing.T) {
	s := New(strings.NewReader("c8 00\nc8 01\n"), Options{Pacing: PaceFixed, Interval: time.Hour})
	_, err := s.Next(t.Context())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePacing(t *testing.T) {
	p, err := ParsePacing("Capture")
	require.NoError(t, err)
	assert.Equal(t, PaceCapture, p)
	p, err = ParsePacing("")
	require.NoError(t, err)
	assert.Equal(t, PaceNone, p)
	_, err = ParsePacing("warp")
	assert.Error(t, err)
}
