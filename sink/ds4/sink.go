// Package ds4 renders emitted events as DualShock 4 reports on a VIIPER
// device stream.
package ds4

import (
	"math"

	"github.com/Alia5/padbridge/device/dualshock4"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/internal/log"
	"github.com/Alia5/padbridge/normalize"
)

// StateWriter sends one encoded report per Write. *apiclient.DeviceStream satisfies it.
type StateWriter interface {
	Write(p []byte) (int, error)
}

type mapping struct {
	button uint16
	dpad   uint8
}

var buttonMap = [input.NumButtons]mapping{
	input.ButtonCross:         {button: dualshock4.ButtonCross},
	input.ButtonCircle:        {button: dualshock4.ButtonCircle},
	input.ButtonSquare:        {button: dualshock4.ButtonSquare},
	input.ButtonTriangle:      {button: dualshock4.ButtonTriangle},
	input.ButtonShare:         {button: dualshock4.ButtonShare},
	input.ButtonOptions:       {button: dualshock4.ButtonOptions},
	input.ButtonShoulderLeft:  {button: dualshock4.ButtonL1},
	input.ButtonShoulderRight: {button: dualshock4.ButtonR1},
	input.ButtonTriggerLeft:   {button: dualshock4.ButtonL2},
	input.ButtonTriggerRight:  {button: dualshock4.ButtonR2},
	input.ButtonThumbLeft:     {button: dualshock4.ButtonL3},
	input.ButtonThumbRight:    {button: dualshock4.ButtonR3},
	input.ButtonPS:            {button: dualshock4.ButtonPS},
	input.ButtonTouchpad:      {button: dualshock4.ButtonTouchpadClick},
	input.ButtonDPadUp:        {dpad: dualshock4.DPadUp},
	input.ButtonDPadDown:      {dpad: dualshock4.DPadDown},
	input.ButtonDPadLeft:      {dpad: dualshock4.DPadLeft},
	input.ButtonDPadRight:     {dpad: dualshock4.DPadRight},
}

// Sink accumulates directives into one InputState and writes it on Commit.
// Buttons not pressed since the previous Commit are released.
type Sink struct {
	w          StateWriter
	rawLogger  log.RawLogger
	triggerMax uint16

	state dualshock4.InputState
}

// NewSink writes to w. triggerMax is the magnitude of a fully pressed
// trigger in incoming directives; zero means 255.
func NewSink(w StateWriter, triggerMax uint16, rawLogger log.RawLogger) *Sink {
	if triggerMax == 0 {
		triggerMax = normalize.DefaultTriggerMax
	}
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	return &Sink{w: w, rawLogger: rawLogger, triggerMax: triggerMax, state: dualshock4.NewInputState()}
}

func (s *Sink) PressButton(b input.Button) error {
	if !b.Valid() {
		return nil
	}
	m := buttonMap[b]
	s.state.Buttons |= m.button
	s.state.DPad |= m.dpad
	return nil
}

func (s *Sink) SetTrigger(t input.Trigger, magnitude uint16) error {
	v := TriggerByte(magnitude, s.triggerMax)
	if t == input.TriggerLeft {
		s.state.L2 = v
	} else {
		s.state.R2 = v
	}
	return nil
}

func (s *Sink) SetStick(st input.Stick, v normalize.Vec2) error {
	x, y := StickByte(v.X), StickByte(v.Y)
	if st == input.StickLeft {
		s.state.LX, s.state.LY = x, y
	} else {
		s.state.RX, s.state.RY = x, y
	}
	return nil
}

func (s *Sink) Commit() error {
	b, err := s.state.MarshalBinary()
	if err != nil {
		return err
	}
	s.rawLogger.Log(log.TX, b)
	_, err = s.w.Write(b)
	s.state.Buttons, s.state.DPad = 0, 0
	return err
}

// State returns the report being assembled.
func (s *Sink) State() dualshock4.InputState { return s.state }

// StickByte maps [-1, 1] to the signed report range, clamping outside it.
func StickByte(v float64) int8 {
	r := math.Round(v * 127)
	switch {
	case math.IsNaN(r):
		return 0
	case r > 127:
		return 127
	case r < -128:
		return -128
	}
	return int8(r)
}

// TriggerByte rescales a magnitude in [0, max] to [0, 255].
func TriggerByte(magnitude, max uint16) uint8 {
	if max == 0 {
		return 0
	}
	if magnitude >= max {
		return 255
	}
	return uint8((uint32(magnitude)*255 + uint32(max)/2) / uint32(max))
}
