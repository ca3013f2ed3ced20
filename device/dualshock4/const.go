package dualshock4

// DeviceType is the VIIPER device type name.
const DeviceType = "dualshock4"

const (
	DefaultVID = 0x054C
	DefaultPID = 0x05C4
)

// Button bits of InputState.Buttons.
const (
	ButtonSquare   uint16 = 0x0010
	ButtonCross    uint16 = 0x0020
	ButtonCircle   uint16 = 0x0040
	ButtonTriangle uint16 = 0x0080
	ButtonL1       uint16 = 0x0100
	ButtonR1       uint16 = 0x0200
	ButtonL2       uint16 = 0x0400
	ButtonR2       uint16 = 0x0800
	ButtonShare    uint16 = 0x1000
	ButtonOptions  uint16 = 0x2000
	ButtonL3       uint16 = 0x4000
	ButtonR3       uint16 = 0x8000

	ButtonPS            uint16 = 0x0001
	ButtonTouchpadClick uint16 = 0x0002
)

// Bits of InputState.DPad. Opposite directions may both be set; the
// server resolves them to a hat value.
const (
	DPadUp    uint8 = 0x01
	DPadDown  uint8 = 0x02
	DPadLeft  uint8 = 0x04
	DPadRight uint8 = 0x08
)

// AccelCountsPerMS2 is the fixed-point scale of the accelerometer fields.
const AccelCountsPerMS2 = 512.0

// DefaultAccelZ is a pad lying flat: -9.81 m/s² in fixed point.
const DefaultAccelZ int16 = -5023

// Wire sizes of the stream messages.
const (
	InputStateSize  = 31
	OutputStateSize = 7
)
