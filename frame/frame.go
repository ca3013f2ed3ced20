// Package frame validates raw notification payloads before they reach the decoder.
package frame

import (
	"errors"
	"fmt"

	"github.com/Alia5/padbridge/profile"
)

var (
	// ErrMalformed is returned for frames shorter than the profile's minimum length.
	ErrMalformed = errors.New("malformed frame")
	// ErrGarbage is returned for frames whose first byte is a profile sentinel.
	ErrGarbage = errors.New("garbage frame")
)

// Frame is a payload that passed validation against a profile. Only
// Validate creates non-empty frames. The bytes are borrowed from the
// transport and must not be retained past the current ingest call.
type Frame struct {
	b []byte
}

// Validate accepts raw if it is at least p.MinLength bytes long and does
// not start with one of p's sentinel bytes. It has no side effects.
func Validate(raw []byte, p *profile.Profile) (Frame, error) {
	if len(raw) < p.MinLength {
		return Frame{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformed, len(raw), p.MinLength)
	}
	if p.IsSentinel(raw[0]) {
		return Frame{}, ErrGarbage
	}
	return Frame{b: raw}, nil
}

// At returns byte i of the frame.
func (f Frame) At(i int) byte { return f.b[i] }

func (f Frame) Len() int { return len(f.b) }

// Bytes returns the underlying payload.
func (f Frame) Bytes() []byte { return f.b }

// Reason names the rejection kind of a Validate error, for logs and counters.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrGarbage):
		return "garbage"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}
