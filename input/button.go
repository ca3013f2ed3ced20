// Package input defines the decoded controller state shared by every stage
// of the bridge: button identifiers, trigger and stick indices and the
// ControllerState snapshot itself.
package input

import (
	"fmt"
	"strings"
)

// Button identifies one digital input independent of any wire layout.
type Button uint8

const (
	ButtonCross Button = iota
	ButtonCircle
	ButtonSquare
	ButtonTriangle
	ButtonShare
	ButtonOptions
	ButtonShoulderLeft
	ButtonShoulderRight
	ButtonTriggerLeft
	ButtonTriggerRight
	ButtonThumbLeft
	ButtonThumbRight
	ButtonPS
	ButtonTouchpad
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight

	NumButtons
)

var buttonNames = [NumButtons]string{
	ButtonCross:         "cross",
	ButtonCircle:        "circle",
	ButtonSquare:        "square",
	ButtonTriangle:      "triangle",
	ButtonShare:         "share",
	ButtonOptions:       "options",
	ButtonShoulderLeft:  "shoulder-left",
	ButtonShoulderRight: "shoulder-right",
	ButtonTriggerLeft:   "trigger-left",
	ButtonTriggerRight:  "trigger-right",
	ButtonThumbLeft:     "thumb-left",
	ButtonThumbRight:    "thumb-right",
	ButtonPS:            "ps",
	ButtonTouchpad:      "touchpad",
	ButtonDPadUp:        "dpad-up",
	ButtonDPadDown:      "dpad-down",
	ButtonDPadLeft:      "dpad-left",
	ButtonDPadRight:     "dpad-right",
}

func (b Button) String() string {
	if b < NumButtons {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// Valid reports whether b is a known button identifier.
func (b Button) Valid() bool { return b < NumButtons }

// ParseButton resolves a button name as used in profile files.
// Matching is case-insensitive and accepts '_' in place of '-'.
func ParseButton(name string) (Button, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, bn := range buttonNames {
		if bn == n {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// ButtonSet is the set of asserted buttons, one bit per Button.
type ButtonSet uint32

func (s ButtonSet) Has(b Button) bool { return s&(1<<b) != 0 }

func (s ButtonSet) With(b Button) ButtonSet { return s | 1<<b }

func (s ButtonSet) Without(b Button) ButtonSet { return s &^ (1 << b) }

// Buttons lists the asserted buttons in identifier order.
func (s ButtonSet) Buttons() []Button {
	var out []Button
	for b := Button(0); b < NumButtons; b++ {
		if s.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

func (s ButtonSet) String() string {
	bs := s.Buttons()
	if len(bs) == 0 {
		return "none"
	}
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.String()
	}
	return strings.Join(names, "|")
}
