// Package profile describes the byte layout of a supported controller model.
//
// A Profile is pure data: decoding, validation and normalization are table
// driven from it, so supporting another controller means supplying another
// Profile rather than new decode logic. Profiles are loaded once at startup
// and must not be modified afterwards.
package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Alia5/padbridge/input"
)

// BitPiece selects the bits of one frame byte and moves them into place.
// A positive Shift moves left, a negative Shift moves right.
type BitPiece struct {
	Byte  int
	Mask  uint8
	Shift int
}

// AxisBinding reconstructs one stick axis by OR-ing its pieces together
// and adding Offset. Invert negates the result afterwards.
type AxisBinding struct {
	Pieces []BitPiece
	Offset int32
	Invert bool
}

type StickBinding struct {
	X, Y AxisBinding
}

type TriggerBinding struct {
	Byte int
}

// ButtonBinding asserts Button when frame[Byte]&Mask != 0.
type ButtonBinding struct {
	Byte   int
	Mask   uint8
	Button input.Button
}

// Range is the raw stick range after offset; Min must equal -Max.
type Range struct {
	Min, Max int32
}

type Profile struct {
	Name        string
	Description string

	// Characteristic is the GATT characteristic UUID that carries state frames.
	Characteristic string

	MinLength int
	Sentinels []byte

	Buttons  []ButtonBinding
	Triggers [2]TriggerBinding
	Sticks   [2]StickBinding
	Range    Range
}

const (
	minShift = -7
	maxShift = 23
)

// Span returns the smallest and largest value the binding can produce,
// offset and inversion included.
func (a AxisBinding) Span() (lo, hi int64) {
	var raw int64
	for _, pc := range a.Pieces {
		v := int64(pc.Mask)
		if pc.Shift >= 0 {
			raw |= v << uint(pc.Shift)
		} else {
			raw |= v >> uint(-pc.Shift)
		}
	}
	lo, hi = int64(a.Offset), raw+int64(a.Offset)
	if a.Invert {
		lo, hi = -hi, -lo
	}
	return lo, hi
}

// IsSentinel reports whether b is one of the profile's garbage marker bytes.
func (p *Profile) IsSentinel(b byte) bool {
	return slices.Contains(p.Sentinels, b)
}

// Validate checks that every table entry lies inside the guaranteed frame
// span so that decoding a frame of MinLength bytes can never fail.
func (p *Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	if p.MinLength <= 0 {
		errs = append(errs, fmt.Errorf("minLength must be positive, got %d", p.MinLength))
	}

	checkByte := func(what string, idx int) {
		if idx < 0 || idx >= p.MinLength {
			errs = append(errs, fmt.Errorf("%s: byte %d outside frame of %d bytes", what, idx, p.MinLength))
		}
	}

	seen := map[input.Button]bool{}
	for i, b := range p.Buttons {
		what := fmt.Sprintf("button %d (%s)", i, b.Button)
		if !b.Button.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown button", what))
		}
		if seen[b.Button] {
			errs = append(errs, fmt.Errorf("%s: bound more than once", what))
		}
		seen[b.Button] = true
		if b.Mask == 0 {
			errs = append(errs, fmt.Errorf("%s: mask is zero", what))
		}
		checkByte(what, b.Byte)
	}

	for i, t := range p.Triggers {
		checkByte(fmt.Sprintf("trigger %s", input.Trigger(i)), t.Byte)
	}

	for i, s := range p.Sticks {
		for j, a := range []AxisBinding{s.X, s.Y} {
			what := fmt.Sprintf("stick %s %s", input.Stick(i), [2]string{"x", "y"}[j])
			if len(a.Pieces) == 0 {
				errs = append(errs, fmt.Errorf("%s: no bit pieces", what))
			}
			for _, pc := range a.Pieces {
				checkByte(what, pc.Byte)
				if pc.Mask == 0 {
					errs = append(errs, fmt.Errorf("%s: mask is zero", what))
				}
				if pc.Shift < minShift || pc.Shift > maxShift {
					errs = append(errs, fmt.Errorf("%s: shift %d outside [%d, %d]", what, pc.Shift, minShift, maxShift))
				}
			}
			if lo, hi := a.Span(); lo < math.MinInt32 || hi > math.MaxInt32 {
				errs = append(errs, fmt.Errorf("%s: offset %d gives values [%d, %d] outside int32", what, a.Offset, lo, hi))
			}
		}
	}

	if p.Range.Max <= 0 || p.Range.Min != -p.Range.Max {
		errs = append(errs, fmt.Errorf("range [%d, %d] must be symmetric around zero", p.Range.Min, p.Range.Max))
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile %q: %w", p.Name, errors.Join(errs...))
	}
	return nil
}
