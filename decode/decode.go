// Package decode turns validated frames into controller state using the
// tables of a device profile.
package decode

import (
	"math"

	"github.com/Alia5/padbridge/frame"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/profile"
)

// Decoder is bound to one profile. It holds no state between frames.
type Decoder struct {
	p *profile.Profile
}

// New returns a decoder for p. p must have passed Validate.
func New(p *profile.Profile) *Decoder {
	return &Decoder{p: p}
}

func (d *Decoder) Profile() *profile.Profile { return d.p }

// Decode maps every field of f. It cannot fail: Validate guarantees f is
// at least MinLength bytes and profile validation keeps every index below it.
func (d *Decoder) Decode(f frame.Frame) input.State {
	var s input.State
	for _, b := range d.p.Buttons {
		if f.At(b.Byte)&b.Mask != 0 {
			s.Buttons = s.Buttons.With(b.Button)
		}
	}
	for i, t := range d.p.Triggers {
		s.Triggers[i] = f.At(t.Byte)
	}
	for i, st := range d.p.Sticks {
		s.Sticks[i] = input.Axis{
			X: Axis(f, st.X),
			Y: Axis(f, st.Y),
		}
	}
	return s
}

// Axis reconstructs a single axis value: the masked bits of every piece are
// shifted into place and concatenated, then the offset is applied. Results
// outside int32 saturate at its bounds.
func Axis(f frame.Frame, a profile.AxisBinding) int32 {
	var raw int64
	for _, pc := range a.Pieces {
		v := int64(f.At(pc.Byte) & pc.Mask)
		if pc.Shift >= 0 {
			raw |= v << uint(pc.Shift)
		} else {
			raw |= v >> uint(-pc.Shift)
		}
	}
	v := raw + int64(a.Offset)
	if a.Invert {
		v = -v
	}
	return int32(min(max(v, math.MinInt32), math.MaxInt32))
}
