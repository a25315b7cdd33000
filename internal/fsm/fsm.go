// Package fsm holds the push-to-talk state table shared by the controller and IPC status.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateError     State = "error"
)

const (
	EventPress   Event = "press"
	EventRelease Event = "release"
	EventCancel  Event = "cancel"
	EventFail    Event = "fail"
	EventReset   Event = "reset"
)

// ErrInvalidTransition reports an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

type edge struct {
	from State
	on   Event
}

// Processing happens on the worker, so release and cancel both return to idle.
var table = map[edge]State{
	{StateIdle, EventPress}:        StateRecording,
	{StateRecording, EventRelease}: StateIdle,
	{StateRecording, EventCancel}:  StateIdle,
	{StateError, EventReset}:       StateIdle,
}

// Transition returns the state reached by applying event to current. Fail is
// accepted from every known state.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateRecording, StateError:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	if next, ok := table[edge{current, event}]; ok {
		return next, nil
	}
	return current, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, current, event)
}
