// Package emit hands normalized events to an output sink.
package emit

import (
	"fmt"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/normalize"
)

// Sink is the virtual device side of the bridge. Directives issued between
// two Commit calls describe one complete input frame; the sink releases any
// button that was not pressed in that frame.
type Sink interface {
	PressButton(b input.Button) error
	SetTrigger(t input.Trigger, magnitude uint16) error
	SetStick(s input.Stick, v normalize.Vec2) error
	Commit() error
}

// Observer is notified after an event has been committed to the sink.
type Observer func(ev normalize.Event)

// Error reports a sink failure. It ends the session that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Emitter struct {
	sink      Sink
	observers []Observer
}

func New(sink Sink, observers ...Observer) *Emitter {
	return &Emitter{sink: sink, observers: observers}
}

// Emit describes ev to the sink and commits it. The first failing directive
// aborts the frame; nothing is retried.
func (e *Emitter) Emit(ev normalize.Event) error {
	if err := Emit(ev, e.sink); err != nil {
		return err
	}
	for _, o := range e.observers {
		o(ev)
	}
	return nil
}

func Emit(ev normalize.Event, sink Sink) error {
	for _, b := range ev.Buttons.Buttons() {
		if err := sink.PressButton(b); err != nil {
			return &Error{Op: "press " + b.String(), Err: err}
		}
	}
	for _, t := range []input.Trigger{input.TriggerLeft, input.TriggerRight} {
		if err := sink.SetTrigger(t, ev.Triggers[t]); err != nil {
			return &Error{Op: "trigger " + t.String(), Err: err}
		}
	}
	for _, s := range []input.Stick{input.StickLeft, input.StickRight} {
		if err := sink.SetStick(s, ev.Sticks[s]); err != nil {
			return &Error{Op: "stick " + s.String(), Err: err}
		}
	}
	if err := sink.Commit(); err != nil {
		return &Error{Op: "commit", Err: err}
	}
	return nil
}
