package normalize_test

import (
	"math"
	"testing"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/normalize"
	"github.com/Alia5/padbridge/profile"
	"github.com/stretchr/testify/assert"
)

func TestAxis(t *testing.T) {
	r := profile.Range{Min: -512, Max: 512}

	tests := []struct {
		name string
		in   int32
		want float64
	}{
		{name: "min", in: -512, want: -1.0},
		{name: "max", in: 512, want: 1.0},
		{name: "centre", in: 0, want: 0},
		{name: "half", in: 256, want: 0.5},
		{name: "max decodable", in: 511, want: 511.0 / 512.0},
		{name: "overshoot high", in: 2000, want: 1.0},
		{name: "overshoot low", in: math.MinInt32, want: -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Axis(tt.in, r))
		})
	}

	assert.Equal(t, 0.0, normalize.Axis(5, profile.Range{}), "degenerate range")
}

func TestTrigger(t *testing.T) {
	assert.Equal(t, uint16(0), normalize.Trigger(0, 255))
	assert.Equal(t, uint16(200), normalize.Trigger(200, 255))
	assert.Equal(t, uint16(1023), normalize.Trigger(255, 1023))
	assert.Equal(t, uint16(0), normalize.Trigger(0, 1023))
	assert.Equal(t, uint16(50), normalize.Trigger(255, 50))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, normalize.CapCross, normalize.Capabilities(input.ButtonSet(0).With(input.ButtonCross)))
	assert.Equal(t, normalize.Capability(0x20), normalize.CapCross)

	set := input.ButtonSet(0).
		With(input.ButtonSquare).
		With(input.ButtonShare).
		With(input.ButtonDPadLeft)
	c := normalize.Capabilities(set)
	assert.Equal(t, normalize.CapSquare|normalize.CapShare|normalize.CapDPadLeft, c)
	assert.Equal(t, set.Buttons(), c.Buttons())
	assert.True(t, c.Has(input.ButtonShare))
	assert.False(t, c.Has(input.ButtonOptions))
	assert.False(t, c.Has(input.NumButtons))
	assert.Equal(t, "square|share|dpad-left", c.String())
	assert.Equal(t, "none", normalize.Capability(0).String())
}

func TestCapabilityBitsAreUnique(t *testing.T) {
	var all normalize.Capability
	for b := input.Button(0); b < input.NumButtons; b++ {
		bit := normalize.CapabilityOf(b)
		assert.NotZero(t, bit, b.String())
		assert.Zero(t, all&bit, "%s shares a bit", b)
		all |= bit
	}
	assert.Zero(t, normalize.CapabilityOf(input.NumButtons))
}

func TestNormalize(t *testing.T) {
	n := normalize.New(profile.Range{Min: -512, Max: 512}, normalize.Options{})
	ev := n.Normalize(input.State{
		Buttons:  input.ButtonSet(0).With(input.ButtonTriangle),
		Triggers: [2]uint8{255, 17},
		Sticks:   [2]input.Axis{{X: -512, Y: 512}, {X: 256, Y: 0}},
	})

	assert.Equal(t, normalize.Event{
		Buttons:    normalize.CapTriangle,
		Triggers:   [2]uint16{255, 17},
		Sticks:     [2]normalize.Vec2{{X: -1, Y: 1}, {X: 0.5, Y: 0}},
		TriggerMax: 255,
	}, ev)
	assert.Contains(t, ev.String(), "buttons=triangle L2=255 R2=17")
}

func TestNormalizeTriggerThreshold(t *testing.T) {
	n := normalize.New(profile.Range{Min: -512, Max: 512}, normalize.Options{TriggerThreshold: 100, TriggerMax: 1000})

	ev := n.Normalize(input.State{Triggers: [2]uint8{99, 100}})
	assert.Equal(t, normalize.CapTriggerRight, ev.Buttons)
	assert.Equal(t, uint16(1000), ev.TriggerMax)
	assert.Equal(t, [2]uint16{388, 392}, ev.Triggers)

	ev = n.Normalize(input.State{Triggers: [2]uint8{255, 0}})
	assert.Equal(t, normalize.CapTriggerLeft, ev.Buttons)
}
