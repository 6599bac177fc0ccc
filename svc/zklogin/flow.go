package zklogin

import (
	"context"
	"errors"

	"github.com/dmitrymomot/zkbridge/pkg/oneshot"
	"github.com/dmitrymomot/zkbridge/pkg/statemachine"
)

// Flow events.
const (
	eventCallback       = statemachine.StringEvent("callback")
	eventExchanged      = statemachine.StringEvent("exchanged")
	eventReconciled     = statemachine.StringEvent("reconciled")
	eventSalted         = statemachine.StringEvent("salted")
	eventDelivered      = statemachine.StringEvent("delivered")
	eventConsumed       = statemachine.StringEvent("consumed")
	eventExchangeFailed = statemachine.StringEvent("exchange_failed")
	eventNoToken        = statemachine.StringEvent("no_token")
	eventInternalError  = statemachine.StringEvent("internal_error")
)

// flowTransitions is the login flow. A delivered session accepts another
// callback so a repeated consent replaces the envelope. Failed and consumed
// sessions accept nothing until Start resets them.
func flowTransitions() []statemachine.Option {
	edge := statemachine.WithTransition
	return []statemachine.Option{
		edge(StateStarted, StateCallbackReceived, eventCallback),
		edge(StateDelivered, StateCallbackReceived, eventCallback),
		edge(StateStarted, StateExchangeFailed, eventExchangeFailed),
		edge(StateDelivered, StateExchangeFailed, eventExchangeFailed),
		edge(StateStarted, StateInternalError, eventInternalError),

		edge(StateCallbackReceived, StateExchanged, eventExchanged),
		edge(StateCallbackReceived, StateExchangeFailed, eventExchangeFailed),
		edge(StateCallbackReceived, StateNoTokenReturned, eventNoToken),
		edge(StateCallbackReceived, StateInternalError, eventInternalError),

		edge(StateExchanged, StateReconciled, eventReconciled),
		edge(StateExchanged, StateNoTokenReturned, eventNoToken),
		edge(StateExchanged, StateInternalError, eventInternalError),

		edge(StateReconciled, StateSalted, eventSalted),
		edge(StateReconciled, StateInternalError, eventInternalError),

		edge(StateSalted, StateDelivered, eventDelivered),
		edge(StateSalted, StateInternalError, eventInternalError),

		edge(StateDelivered, StateConsumed, eventConsumed),
		edge(StateDelivered, StateInternalError, eventInternalError),
	}
}

// FlowTracker keeps the current flow state of every live session.
type FlowTracker struct {
	store oneshot.PeekStore[FlowState]
}

// NewFlowTracker returns a tracker over store. The store TTL bounds how long
// a finished session refuses further callbacks.
func NewFlowTracker(store oneshot.PeekStore[FlowState]) *FlowTracker {
	return &FlowTracker{store: store}
}

// State returns the recorded state of sessionID. ok is false when the
// session was never started or its record expired.
func (t *FlowTracker) State(ctx context.Context, sessionID string) (state FlowState, ok bool, err error) {
	state, err = t.store.Get(ctx, sessionID)
	switch {
	case err == nil:
		return state, true, nil
	case errors.Is(err, oneshot.ErrNotFound), errors.Is(err, oneshot.ErrEmptyKey):
		return "", false, nil
	}
	return "", false, errors.Join(ErrStorage, err)
}

func (t *FlowTracker) set(ctx context.Context, sessionID string, state FlowState) error {
	if err := t.store.Put(ctx, sessionID, state); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// flowSubject is the data handed to transition actions.
type flowSubject struct {
	sessionID string
	client    string
}

// flow is the state machine of one session for the duration of a request.
type flow struct {
	m       *statemachine.Machine
	subject flowSubject
}

func (f *flow) state() FlowState {
	return f.m.Current().(FlowState)
}

func (f *flow) fire(ctx context.Context, ev statemachine.Event) error {
	return f.m.Fire(ctx, ev, f.subject)
}
