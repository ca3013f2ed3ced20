package emit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Alia5/padbridge/emit"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls  []string
	failOn string
	err    error
}

func (s *recordingSink) record(call string) error {
	s.calls = append(s.calls, call)
	if s.failOn != "" && call == s.failOn {
		return s.err
	}
	return nil
}

func (s *recordingSink) PressButton(b input.Button) error {
	return s.record("press " + b.String())
}

func (s *recordingSink) SetTrigger(t input.Trigger, m uint16) error {
	return s.record(fmt.Sprintf("trigger %s %d", t, m))
}

func (s *recordingSink) SetStick(st input.Stick, v normalize.Vec2) error {
	return s.record(fmt.Sprintf("stick %s %.2f %.2f", st, v.X, v.Y))
}

func (s *recordingSink) Commit() error {
	return s.record("commit")
}

func testEvent() normalize.Event {
	return normalize.Event{
		Buttons:    normalize.CapCross | normalize.CapShoulderRight,
		Triggers:   [2]uint16{0, 128},
		Sticks:     [2]normalize.Vec2{{X: -1, Y: 0.5}, {X: 0, Y: 0}},
		TriggerMax: 255,
	}
}

func TestEmitDirectiveOrder(t *testing.T) {
	sink := &recordingSink{}
	require.NoError(t, emit.Emit(testEvent(), sink))

	assert.Equal(t, []string{
		"press cross",
		"press shoulder-right",
		"trigger left 0",
		"trigger right 128",
		"stick left -1.00 0.50",
		"stick right 0.00 0.00",
		"commit",
	}, sink.calls)
}

func TestEmitNoButtons(t *testing.T) {
	sink := &recordingSink{}
	require.NoError(t, emit.Emit(normalize.Event{}, sink))
	assert.Equal(t, "trigger left 0", sink.calls[0])
	assert.Equal(t, "commit", sink.calls[len(sink.calls)-1])
}

func TestEmitErrors(t *testing.T) {
	disconnected := errors.New("device disconnected")

	tests := []struct {
		name      string
		failOn    string
		wantOp    string
		wantCalls int
	}{
		{name: "press", failOn: "press cross", wantOp: "press cross", wantCalls: 1},
		{name: "trigger", failOn: "trigger right 128", wantOp: "trigger right", wantCalls: 4},
		{name: "stick", failOn: "stick left -1.00 0.50", wantOp: "stick left", wantCalls: 5},
		{name: "commit", failOn: "commit", wantOp: "commit", wantCalls: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{failOn: tt.failOn, err: disconnected}
			observed := 0
			e := emit.New(sink, func(normalize.Event) { observed++ })

			err := e.Emit(testEvent())
			require.Error(t, err)

			var emitErr *emit.Error
			require.ErrorAs(t, err, &emitErr)
			assert.Equal(t, tt.wantOp, emitErr.Op)
			assert.ErrorIs(t, err, disconnected)
			assert.Len(t, sink.calls, tt.wantCalls, "no retry after failure")
			assert.Zero(t, observed, "observers only see committed events")
		})
	}
}

func TestEmitterObservers(t *testing.T) {
	sink := &recordingSink{}
	var seen []normalize.Event
	var order []string
	e := emit.New(sink,
		func(ev normalize.Event) { seen = append(seen, ev); order = append(order, "first") },
		func(normalize.Event) { order = append(order, "second") },
	)

	ev := testEvent()
	require.NoError(t, e.Emit(ev))
	require.NoError(t, e.Emit(ev))

	assert.Equal(t, []normalize.Event{ev, ev}, seen)
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestErrorMessage(t *testing.T) {
	err := &emit.Error{Op: "commit", Err: errors.New("broken pipe")}
	assert.Equal(t, "emit commit: broken pipe", err.Error())
}
