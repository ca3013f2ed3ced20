package normalize

import (
	"strings"

	"github.com/Alia5/padbridge/input"
)

// Capability is the output-facing button bitmask. Bit positions follow the
// DualShock 4 button word and are fixed regardless of the pad's wire layout.
type Capability uint32

const (
	CapDPadUp    Capability = 1 << 0
	CapDPadDown  Capability = 1 << 1
	CapDPadLeft  Capability = 1 << 2
	CapDPadRight Capability = 1 << 3

	CapSquare        Capability = 1 << 4
	CapCross         Capability = 1 << 5
	CapCircle        Capability = 1 << 6
	CapTriangle      Capability = 1 << 7
	CapShoulderLeft  Capability = 1 << 8
	CapShoulderRight Capability = 1 << 9
	CapTriggerLeft   Capability = 1 << 10
	CapTriggerRight  Capability = 1 << 11
	CapShare         Capability = 1 << 12
	CapOptions       Capability = 1 << 13
	CapThumbLeft     Capability = 1 << 14
	CapThumbRight    Capability = 1 << 15

	CapPS       Capability = 1 << 16
	CapTouchpad Capability = 1 << 17
)

var capabilityBits = [input.NumButtons]Capability{
	input.ButtonCross:         CapCross,
	input.ButtonCircle:        CapCircle,
	input.ButtonSquare:        CapSquare,
	input.ButtonTriangle:      CapTriangle,
	input.ButtonShare:         CapShare,
	input.ButtonOptions:       CapOptions,
	input.ButtonShoulderLeft:  CapShoulderLeft,
	input.ButtonShoulderRight: CapShoulderRight,
	input.ButtonTriggerLeft:   CapTriggerLeft,
	input.ButtonTriggerRight:  CapTriggerRight,
	input.ButtonThumbLeft:     CapThumbLeft,
	input.ButtonThumbRight:    CapThumbRight,
	input.ButtonPS:            CapPS,
	input.ButtonTouchpad:      CapTouchpad,
	input.ButtonDPadUp:        CapDPadUp,
	input.ButtonDPadDown:      CapDPadDown,
	input.ButtonDPadLeft:      CapDPadLeft,
	input.ButtonDPadRight:     CapDPadRight,
}

// CapabilityOf returns the bit assigned to b, or 0 for an unknown button.
func CapabilityOf(b input.Button) Capability {
	if !b.Valid() {
		return 0
	}
	return capabilityBits[b]
}

// Capabilities packs a decoded button set into the output bitmask.
func Capabilities(s input.ButtonSet) Capability {
	var c Capability
	for b := input.Button(0); b < input.NumButtons; b++ {
		if s.Has(b) {
			c |= capabilityBits[b]
		}
	}
	return c
}

func (c Capability) Has(b input.Button) bool {
	bit := CapabilityOf(b)
	return bit != 0 && c&bit != 0
}

// Buttons lists the asserted buttons in identifier order.
func (c Capability) Buttons() []input.Button {
	var out []input.Button
	for b := input.Button(0); b < input.NumButtons; b++ {
		if c&capabilityBits[b] != 0 {
			out = append(out, b)
		}
	}
	return out
}

func (c Capability) String() string {
	bs := c.Buttons()
	if len(bs) == 0 {
		return "none"
	}
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.String()
	}
	return strings.Join(names, "|")
}
