package input

import "fmt"

// Trigger indexes the two analog triggers.
type Trigger int

const (
	TriggerLeft Trigger = iota
	TriggerRight
)

func (t Trigger) String() string {
	if t == TriggerLeft {
		return "left"
	}
	return "right"
}

// Stick indexes the two analog sticks.
type Stick int

const (
	StickLeft Stick = iota
	StickRight
)

func (s Stick) String() string {
	if s == StickLeft {
		return "left"
	}
	return "right"
}

// Axis is one raw stick position in the profile's declared range.
type Axis struct {
	X, Y int32
}

// State is one fully decoded controller snapshot.
// It is comparable with == and two states are equal only if every field is.
type State struct {
	Buttons  ButtonSet
	Triggers [2]uint8
	Sticks   [2]Axis
}

func (s State) String() string {
	return fmt.Sprintf("buttons=%s L2=%d R2=%d LX=%d LY=%d RX=%d RY=%d",
		s.Buttons,
		s.Triggers[TriggerLeft], s.Triggers[TriggerRight],
		s.Sticks[StickLeft].X, s.Sticks[StickLeft].Y,
		s.Sticks[StickRight].X, s.Sticks[StickRight].Y,
	)
}
