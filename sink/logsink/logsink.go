// Package logsink is an output sink that logs every committed frame
// instead of driving a virtual device.
package logsink

import (
	"context"
	"log/slog"

	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/normalize"
)

type Sink struct {
	logger *slog.Logger
	level  slog.Level

	pressed  input.ButtonSet
	triggers [2]uint16
	sticks   [2]normalize.Vec2
	frames   uint64
}

func New(logger *slog.Logger, level slog.Level) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger, level: level}
}

func (s *Sink) PressButton(b input.Button) error {
	s.pressed = s.pressed.With(b)
	return nil
}

func (s *Sink) SetTrigger(t input.Trigger, magnitude uint16) error {
	s.triggers[t] = magnitude
	return nil
}

func (s *Sink) SetStick(st input.Stick, v normalize.Vec2) error {
	s.sticks[st] = v
	return nil
}

func (s *Sink) Commit() error {
	s.frames++
	s.logger.Log(context.Background(), s.level, "frame",
		"n", s.frames,
		"buttons", s.pressed,
		"l2", s.triggers[input.TriggerLeft],
		"r2", s.triggers[input.TriggerRight],
		slog.Group("left", "x", s.sticks[input.StickLeft].X, "y", s.sticks[input.StickLeft].Y),
		slog.Group("right", "x", s.sticks[input.StickRight].X, "y", s.sticks[input.StickRight].Y),
	)
	s.pressed = 0
	return nil
}

// Frames is the number of committed frames.
func (s *Sink) Frames() uint64 { return s.frames }

func (s *Sink) Close() error { return nil }
