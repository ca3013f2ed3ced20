package profile

import "github.com/Alia5/padbridge/input"

// GamesirT1d is the layout of the Gamesir T1d state characteristic.
//
// Frames are 20 bytes. Byte 0 reads 0xC9 when the pad sends a glitched
// frame. Sticks are packed 10-bit values centred on 512, spread over bytes
// 2..6. These shifts were taken from one hardware revision and are not known
// to hold for others.
var GamesirT1d = &Profile{
	Name:           "gamesir-t1d",
	Description:    "Gamesir T1d (BLE)",
	Characteristic: "00008651-0000-1000-8000-00805f9b34fb",
	MinLength:      20,
	Sentinels:      []byte{0xC9},
	Buttons: []ButtonBinding{
		{Byte: 9, Mask: 0x01, Button: input.ButtonCross},
		{Byte: 9, Mask: 0x02, Button: input.ButtonCircle},
		{Byte: 9, Mask: 0x08, Button: input.ButtonSquare},
		{Byte: 9, Mask: 0x10, Button: input.ButtonTriangle},
		{Byte: 9, Mask: 0x40, Button: input.ButtonShoulderLeft},
		{Byte: 9, Mask: 0x80, Button: input.ButtonShoulderRight},
		{Byte: 10, Mask: 0x04, Button: input.ButtonShare},
		{Byte: 10, Mask: 0x08, Button: input.ButtonOptions},
	},
	Triggers: [2]TriggerBinding{
		input.TriggerLeft:  {Byte: 7},
		input.TriggerRight: {Byte: 8},
	},
	Sticks: [2]StickBinding{
		input.StickLeft: {
			X: AxisBinding{Offset: -512, Pieces: []BitPiece{
				{Byte: 2, Mask: 0xFF, Shift: 2},
				{Byte: 3, Mask: 0xC0, Shift: -6},
			}},
			Y: AxisBinding{Offset: -512, Pieces: []BitPiece{
				{Byte: 3, Mask: 0x3F, Shift: 4},
				{Byte: 4, Mask: 0xF0, Shift: -4},
			}},
		},
		input.StickRight: {
			X: AxisBinding{Offset: -512, Pieces: []BitPiece{
				{Byte: 4, Mask: 0x0F, Shift: 6},
				{Byte: 5, Mask: 0xFC, Shift: -2},
			}},
			Y: AxisBinding{Offset: -512, Pieces: []BitPiece{
				{Byte: 5, Mask: 0x03, Shift: 8},
				{Byte: 6, Mask: 0xFF, Shift: 0},
			}},
		},
	},
	Range: Range{Min: -512, Max: 512},
}

func init() {
	Register(GamesirT1d)
}
