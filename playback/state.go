// Package playback runs one phrase at a time: it fetches the phrase audio,
// builds the mora timing table and drives the highlight cursor while the
// audio plays.
package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrStopped is the cause recorded when a session is stopped by its owner.
	ErrStopped = errors.New("playback stopped")
	// ErrSuperseded is the cause recorded when a newer phrase replaced the session.
	ErrSuperseded = errors.New("session superseded")
	// ErrClosed is returned by a Conductor after Close.
	ErrClosed = errors.New("conductor closed")
)

// State is a playback session state.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Stopped
	Ended
	Error
)

var stateNames = [...]string{
	Idle:    "idle",
	Loading: "loading",
	Playing: "playing",
	Stopped: "stopped",
	Ended:   "ended",
	Error:   "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the session can no longer change state.
func (s State) Terminal() bool {
	return s == Stopped || s == Ended || s == Error
}
