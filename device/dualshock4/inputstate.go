// Package dualshock4 encodes the messages exchanged with a VIIPER
// dualshock4 device stream.
package dualshock4

import (
	"encoding/binary"
	"fmt"
	"io"
)

// InputState is one client to device report. Sticks are signed with 0 at
// rest; positive Y points down as on the physical pad.
type InputState struct {
	LX, LY  int8
	RX, RY  int8
	Buttons uint16
	DPad    uint8
	L2, R2  uint8

	Touch1X, Touch1Y uint16
	Touch1Active     bool
	Touch2X, Touch2Y uint16
	Touch2Active     bool

	GyroX, GyroY, GyroZ    int16
	AccelX, AccelY, AccelZ int16
}

// NewInputState returns a neutral report with gravity on the Z axis.
func NewInputState() InputState {
	return InputState{AccelZ: DefaultAccelZ}
}

func (s *InputState) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, InputStateSize)
	b = append(b, byte(s.LX), byte(s.LY), byte(s.RX), byte(s.RY))
	b = binary.LittleEndian.AppendUint16(b, s.Buttons)
	b = append(b, s.DPad, s.L2, s.R2)
	b = appendTouch(b, s.Touch1X, s.Touch1Y, s.Touch1Active)
	b = appendTouch(b, s.Touch2X, s.Touch2Y, s.Touch2Active)
	for _, v := range [...]int16{s.GyroX, s.GyroY, s.GyroZ, s.AccelX, s.AccelY, s.AccelZ} {
		b = binary.LittleEndian.AppendUint16(b, uint16(v))
	}
	return b, nil
}

func appendTouch(b []byte, x, y uint16, active bool) []byte {
	b = binary.LittleEndian.AppendUint16(b, x)
	b = binary.LittleEndian.AppendUint16(b, y)
	if active {
		return append(b, 1)
	}
	return append(b, 0)
}

func (s *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < InputStateSize {
		return io.ErrUnexpectedEOF
	}
	le := binary.LittleEndian
	s.LX, s.LY, s.RX, s.RY = int8(data[0]), int8(data[1]), int8(data[2]), int8(data[3])
	s.Buttons = le.Uint16(data[4:])
	s.DPad, s.L2, s.R2 = data[6], data[7], data[8]
	s.Touch1X, s.Touch1Y, s.Touch1Active = le.Uint16(data[9:]), le.Uint16(data[11:]), data[13] != 0
	s.Touch2X, s.Touch2Y, s.Touch2Active = le.Uint16(data[14:]), le.Uint16(data[16:]), data[18] != 0
	motion := [...]*int16{&s.GyroX, &s.GyroY, &s.GyroZ, &s.AccelX, &s.AccelY, &s.AccelZ}
	for i, p := range motion {
		*p = int16(le.Uint16(data[19+2*i:]))
	}
	return nil
}

// OutputState is the feedback the host sends to the pad.
type OutputState struct {
	RumbleSmall uint8
	RumbleLarge uint8
	LedRed      uint8
	LedGreen    uint8
	LedBlue     uint8
	// Flash times are in units of 2.5ms.
	FlashOn  uint8
	FlashOff uint8
}

func (f *OutputState) MarshalBinary() ([]byte, error) {
	return []byte{f.RumbleSmall, f.RumbleLarge, f.LedRed, f.LedGreen, f.LedBlue, f.FlashOn, f.FlashOff}, nil
}

func (f *OutputState) UnmarshalBinary(data []byte) error {
	if len(data) < OutputStateSize {
		return io.ErrUnexpectedEOF
	}
	*f = OutputState{
		RumbleSmall: data[0],
		RumbleLarge: data[1],
		LedRed:      data[2],
		LedGreen:    data[3],
		LedBlue:     data[4],
		FlashOn:     data[5],
		FlashOff:    data[6],
	}
	return nil
}

func (f OutputState) String() string {
	return fmt.Sprintf("rumble=%d/%d led=#%02x%02x%02x flash=%d/%d",
		f.RumbleSmall, f.RumbleLarge, f.LedRed, f.LedGreen, f.LedBlue, f.FlashOn, f.FlashOff)
}
