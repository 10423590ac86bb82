// Package onboarding implements the merchant onboarding wizard: three
// validated steps followed by a single submission to the MoneyBox backend.
package onboarding

import (
	"errors"
	"fmt"
)

type Step int

const (
	StepPersonal Step = iota
	StepBusiness
	StepDocuments
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepPersonal:
		return "personal"
	case StepBusiness:
		return "business"
	case StepDocuments:
		return "documents"
	case StepCompleted:
		return "completed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type Event int

const (
	EventNext Event = iota
	EventBack
	EventSubmitted
)

func (e Event) String() string {
	switch e {
	case EventNext:
		return "next"
	case EventBack:
		return "back"
	case EventSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var ErrInvalidTransition = errors.New("invalid onboarding transition")

// Documents only moves forward through a successful submission, and
// Completed has no outgoing edges.
var stepTransitions = map[Step]map[Event]Step{
	StepPersonal: {
		EventNext: StepBusiness,
		EventBack: StepPersonal,
	},
	StepBusiness: {
		EventNext: StepDocuments,
		EventBack: StepPersonal,
	},
	StepDocuments: {
		EventBack:      StepBusiness,
		EventSubmitted: StepCompleted,
	},
	StepCompleted: {},
}

// Transition returns the step reached from s on e. It does not validate
// form contents; callers gate EventNext on the step validator.
func Transition(s Step, e Event) (Step, error) {
	edges, ok := stepTransitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown step %s", ErrInvalidTransition, s)
	}
	next, ok := edges[e]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
	}
	return next, nil
}
