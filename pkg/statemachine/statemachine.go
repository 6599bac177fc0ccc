package statemachine

import (
	"context"
)

// State is a node of the machine.
type State interface {
	Name() string
}

// Event triggers a transition.
type Event interface {
	Name() string
}

// Guard vetoes a transition when it returns false.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action runs side effects of a transition. Returning an error prevents it.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Transition is one edge of the table.
type Transition struct {
	From   State
	To     State
	Event  Event
	Guards []Guard // all must pass
}

// StringState is a State named by its value.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is an Event named by its value.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }
