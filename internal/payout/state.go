// Package payout implements the single-transfer flow: destination entry with
// name enquiry, confirmation, PIN authorisation and the success receipt.
package payout

import (
	"errors"
	"fmt"
)

type State int

const (
	StateForm State = iota
	StateConfirm
	StatePin
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateForm:
		return "form"
	case StateConfirm:
		return "confirm"
	case StatePin:
		return "pin"
	case StateSuccess:
		return "success"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type EventKind int

const (
	EventContinue EventKind = iota
	EventBack
	EventPINVerified
	EventReset
)

func (e EventKind) String() string {
	switch e {
	case EventContinue:
		return "continue"
	case EventBack:
		return "back"
	case EventPINVerified:
		return "pin_verified"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var ErrInvalidTransition = errors.New("invalid payout transition")

// Pin has no backward edge; Success only leaves through Reset.
var stateTransitions = map[State]map[EventKind]State{
	StateForm: {
		EventContinue: StateConfirm,
	},
	StateConfirm: {
		EventBack:     StateForm,
		EventContinue: StatePin,
	},
	StatePin: {
		EventPINVerified: StateSuccess,
	},
	StateSuccess: {
		EventReset: StateForm,
	},
}

// Transition returns the state reached from s on e. Guards on form
// contents are applied by Flow before it asks for EventContinue.
func Transition(s State, e EventKind) (State, error) {
	edges, ok := stateTransitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown state %s", ErrInvalidTransition, s)
	}
	next, ok := edges[e]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}
