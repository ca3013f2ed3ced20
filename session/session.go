// Package session holds the per-connection baseline used for change detection.
package session

import "github.com/Alia5/padbridge/input"

// Session remembers the last emitted controller state of one connection.
// It is owned by a single processing loop and is not safe for concurrent use;
// every controller gets its own Session.
type Session struct {
	last input.State
	has  bool
}

func New() *Session {
	return &Session{}
}

// Observe returns st and true if st differs from the stored baseline in any
// field, or if there is no baseline yet. The baseline is replaced in the same
// step. Identical states return false and leave the session untouched.
func (s *Session) Observe(st input.State) (input.State, bool) {
	if s.has && s.last == st {
		return input.State{}, false
	}
	s.last = st
	s.has = true
	return st, true
}

// Last returns the current baseline, if any.
func (s *Session) Last() (input.State, bool) {
	return s.last, s.has
}

// Reset drops the baseline, so the next observed state is emitted.
func (s *Session) Reset() {
	s.last = input.State{}
	s.has = false
}
