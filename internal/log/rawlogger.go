package log

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RawTimeLayout is the timestamp format of raw log lines.
const RawTimeLayout = "2006/01/02 15:04:05.000000"

// Direction tags a raw line with where the bytes went.
type Direction string

const (
	// RX is a frame received from the controller.
	RX Direction = "RX"
	// TX is a report written to the virtual device.
	TX Direction = "TX"
)

var ErrNotRawLine = errors.New("not a raw log line")

// RawLogger writes one hex dump line per frame.
type RawLogger interface {
	Log(dir Direction, data []byte)
}

type rawLogger struct {
	w      io.Writer
	mu     *sync.Mutex
	now    func() time.Time
	source string
}

// NewRaw creates a RawLogger writing to w. A nil w yields a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, mu: &sync.Mutex{}, now: time.Now}
}

// WithSource returns a logger sharing r's output that tags every line with
// source, typically a controller address. Spaces in source become '_'.
// Loggers not created by NewRaw are returned unchanged.
func WithSource(r RawLogger, source string) RawLogger {
	rl, ok := r.(*rawLogger)
	if !ok {
		return r
	}
	return &rawLogger{w: rl.w, mu: rl.mu, now: rl.now, source: strings.ReplaceAll(source, " ", "_")}
}

func (r *rawLogger) Log(dir Direction, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}
	line := FormatRawLine(r.now(), r.source, dir, data)
	r.mu.Lock()
	_, _ = io.WriteString(r.w, line+"\n")
	r.mu.Unlock()
}

// FormatRawLine renders one raw log line without the trailing newline. An
// empty source is left out.
func FormatRawLine(ts time.Time, source string, dir Direction, data []byte) string {
	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}
	if source != "" {
		return fmt.Sprintf("%s %s %s %d bytes, hex: %s", ts.Format(RawTimeLayout), dir, source, len(data), hexbuf.String())
	}
	return fmt.Sprintf("%s %s %d bytes, hex: %s", ts.Format(RawTimeLayout), dir, len(data), hexbuf.String())
}

// RawLine is one parsed raw log entry. Source is empty for untagged lines.
type RawLine struct {
	Time   time.Time
	Dir    Direction
	Source string
	Data   []byte
}

// ParseRawLine parses a line produced by FormatRawLine. Lines of any other
// shape return ErrNotRawLine.
func ParseRawLine(line string) (RawLine, error) {
	line = strings.TrimSpace(line)
	head, hexPart, ok := strings.Cut(line, " bytes, hex: ")
	if !ok {
		return RawLine{}, ErrNotRawLine
	}
	fields := strings.Fields(head)
	var source string
	switch len(fields) {
	case 4:
	case 5:
		source = fields[3]
		fields = append(fields[:3], fields[4])
	default:
		return RawLine{}, ErrNotRawLine
	}
	ts, err := time.ParseInLocation(RawTimeLayout, fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return RawLine{}, fmt.Errorf("%w: %v", ErrNotRawLine, err)
	}
	dir := Direction(fields[2])
	if dir != RX && dir != TX {
		return RawLine{}, fmt.Errorf("%w: direction %q", ErrNotRawLine, fields[2])
	}
	n, err := strconv.Atoi(fields[3])
	if err != nil {
		return RawLine{}, fmt.Errorf("%w: length %q", ErrNotRawLine, fields[3])
	}
	data, err := hex.DecodeString(strings.ReplaceAll(hexPart, " ", ""))
	if err != nil {
		return RawLine{}, fmt.Errorf("decode hex: %w", err)
	}
	if len(data) != n {
		return RawLine{}, fmt.Errorf("raw line says %d bytes, got %d", n, len(data))
	}
	return RawLine{Time: ts, Dir: dir, Source: source, Data: data}, nil
}
