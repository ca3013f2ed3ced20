// Package normalize converts decoded controller state into the
// output-facing event: a capability bitmask, scaled triggers and sticks in
// the range [-1, 1].
package normalize

import (
	"fmt"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/profile"
)

// DefaultTriggerMax keeps trigger magnitudes unchanged.
const DefaultTriggerMax = 255

type Vec2 struct {
	X, Y float64
}

// Event is one normalized frame handed to the emitter. It is a value type;
// copies share nothing.
type Event struct {
	Buttons  Capability
	Triggers [2]uint16
	Sticks   [2]Vec2

	// TriggerMax is the magnitude a fully pressed trigger maps to.
	TriggerMax uint16
}

func (e Event) String() string {
	return fmt.Sprintf("buttons=%s L2=%d R2=%d L=(%.3f, %.3f) R=(%.3f, %.3f)",
		e.Buttons,
		e.Triggers[input.TriggerLeft], e.Triggers[input.TriggerRight],
		e.Sticks[input.StickLeft].X, e.Sticks[input.StickLeft].Y,
		e.Sticks[input.StickRight].X, e.Sticks[input.StickRight].Y,
	)
}

type Options struct {
	// TriggerMax is the output value of a raw 255 trigger. Zero means DefaultTriggerMax.
	TriggerMax uint16
	// TriggerThreshold asserts the digital trigger buttons once the raw
	// trigger reaches it. Zero disables.
	TriggerThreshold uint8
}

type Normalizer struct {
	rng  profile.Range
	opts Options
}

func New(r profile.Range, o Options) *Normalizer {
	if o.TriggerMax == 0 {
		o.TriggerMax = DefaultTriggerMax
	}
	return &Normalizer{rng: r, opts: o}
}

func (n *Normalizer) Normalize(s input.State) Event {
	ev := Event{
		Buttons:    Capabilities(s.Buttons),
		TriggerMax: n.opts.TriggerMax,
	}
	for i, raw := range s.Triggers {
		ev.Triggers[i] = Trigger(raw, n.opts.TriggerMax)
		if n.opts.TriggerThreshold > 0 && raw >= n.opts.TriggerThreshold {
			ev.Buttons |= [2]Capability{CapTriggerLeft, CapTriggerRight}[i]
		}
	}
	for i, a := range s.Sticks {
		ev.Sticks[i] = Vec2{X: Axis(a.X, n.rng), Y: Axis(a.Y, n.rng)}
	}
	return ev
}

// Axis maps v to v/r.Max, clamped to [-1, 1].
func Axis(v int32, r profile.Range) float64 {
	if r.Max <= 0 {
		return 0
	}
	f := float64(v) / float64(r.Max)
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}

// Trigger rescales a raw 0..255 magnitude to 0..max.
func Trigger(raw uint8, max uint16) uint16 {
	if max == DefaultTriggerMax {
		return uint16(raw)
	}
	return uint16(uint32(raw) * uint32(max) / 255)
}
