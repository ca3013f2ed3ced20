// Package replay feeds recorded frames back into a pipeline. It reads RX
// lines written by the raw logger and plain hex dumps, one frame per line.
//
// A capture taken while several controllers were running tags every line with
// the controller address. Frames of one controller form one session, so a
// replay either selects a source or the capture must hold a single one.
package replay

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Alia5/padbridge/internal/log"
)

// Pacing controls the delay between frames.
type Pacing string

const (
	// PaceNone delivers frames as fast as they are read.
	PaceNone Pacing = "none"
	// PaceCapture reproduces the gaps between raw log timestamps.
	PaceCapture Pacing = "capture"
	// PaceFixed waits a fixed interval before every frame after the first.
	PaceFixed Pacing = "fixed"
)

func ParsePacing(s string) (Pacing, error) {
	switch p := Pacing(strings.ToLower(s)); p {
	case PaceNone, PaceCapture, PaceFixed:
		return p, nil
	case "":
		return PaceNone, nil
	}
	return "", fmt.Errorf("unknown pacing %q", s)
}

// ErrMixedSources is returned when a capture holds frames of several
// controllers and Options.Source does not pick one.
var ErrMixedSources = errors.New("capture mixes frames from several controllers")

type Options struct {
	Pacing   Pacing
	Interval time.Duration
	// Source keeps only RX lines tagged with this controller address.
	// Untagged lines are dropped when it is set.
	Source string
}

// Source implements bridge.Source over a capture.
type Source struct {
	sc     *bufio.Scanner
	closer io.Closer
	opts   Options

	line   int
	prevTS time.Time
	first  bool
	source string

	sleep func(ctx context.Context, d time.Duration) error
}

func New(r io.Reader, o Options) *Source {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	s := &Source{sc: sc, opts: o, first: true, sleep: sleepCtx}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open reads the capture at path.
func Open(path string, o Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return New(f, o), nil
}

// Next returns the next frame. Blank lines, '#' comments and TX lines are
// skipped. io.EOF marks the end of the capture.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	for s.sc.Scan() {
		s.line++
		rec, ok, err := parseLine(s.sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		if !ok {
			continue
		}
		if s.opts.Source != "" {
			if rec.source != s.opts.Source {
				continue
			}
		} else if rec.source != "" {
			if s.source == "" {
				s.source = rec.source
			} else if rec.source != s.source {
				return nil, fmt.Errorf("line %d: %w (%s and %s), select one", s.line, ErrMixedSources, s.source, rec.source)
			}
		}
		frame, ts := rec.data, rec.ts
		if err := s.pace(ctx, ts); err != nil {
			return nil, err
		}
		return frame, nil
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *Source) pace(ctx context.Context, ts time.Time) error {
	first := s.first
	s.first = false
	var d time.Duration
	switch s.opts.Pacing {
	case PaceFixed:
		if !first {
			d = s.opts.Interval
		}
	case PaceCapture:
		if !ts.IsZero() && !s.prevTS.IsZero() {
			d = ts.Sub(s.prevTS)
		}
		if !ts.IsZero() {
			s.prevTS = ts
		}
	}
	if d > 0 {
		return s.sleep(ctx, d)
	}
	return ctx.Err()
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

type record struct {
	data   []byte
	ts     time.Time
	source string
}

// parseLine returns the frame on line, if any. Timestamp and source are only
// known when the line came from the raw logger.
func parseLine(line string) (record, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return record{}, false, nil
	}
	raw, err := log.ParseRawLine(line)
	if err == nil {
		if raw.Dir != log.RX {
			return record{}, false, nil
		}
		return record{data: raw.Data, ts: raw.Time, source: raw.Source}, true, nil
	}
	if !errors.Is(err, log.ErrNotRawLine) {
		return record{}, false, err
	}
	hexStr := strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(line)
	hexStr = strings.TrimPrefix(strings.ToLower(hexStr), "0x")
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return record{}, false, fmt.Errorf("not a raw log line or hex dump: %w", err)
	}
	return record{data: b}, true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
