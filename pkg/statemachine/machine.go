package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Definition is an immutable transition table with shared actions.
type Definition struct {
	table   map[string]map[string][]Transition
	actions []Action
}

// Option configures a Definition.
type Option func(*Definition) error

// WithTransition adds an edge. Several edges for one state and event are
// tried in the order they were added; the first whose guards pass wins.
func WithTransition(from, to State, event Event, guards ...Guard) Option {
	return func(d *Definition) error {
		if from == nil || to == nil || event == nil {
			return ErrInvalidTransition
		}
		byEvent, ok := d.table[from.Name()]
		if !ok {
			byEvent = make(map[string][]Transition)
			d.table[from.Name()] = byEvent
		}
		byEvent[event.Name()] = append(byEvent[event.Name()], Transition{From: from, To: to, Event: event, Guards: guards})
		return nil
	}
}

// WithAction registers an action run on every transition, in registration order.
func WithAction(a Action) Option {
	return func(d *Definition) error {
		if a != nil {
			d.actions = append(d.actions, a)
		}
		return nil
	}
}

// NewDefinition builds a transition table.
func NewDefinition(opts ...Option) (*Definition, error) {
	d := &Definition{table: make(map[string]map[string][]Transition)}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustDefinition is NewDefinition that panics on error.
func MustDefinition(opts ...Option) *Definition {
	d, err := NewDefinition(opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return d
}

// Accepts reports whether any edge leaves from on event, ignoring guards.
func (d *Definition) Accepts(from State, event Event) bool {
	if from == nil || event == nil {
		return false
	}
	return len(d.table[from.Name()][event.Name()]) > 0
}

// Machine returns a machine positioned at current.
func (d *Definition) Machine(current State) *Machine {
	return &Machine{def: d, current: current}
}

// Machine is a state cursor over a Definition. It is safe for concurrent use.
type Machine struct {
	def     *Definition
	mu      sync.Mutex
	current State
}

func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire applies event. data is handed to guards and actions.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrInvalidState
	}
	t, err := m.pick(ctx, event, data)
	if err != nil {
		return err
	}
	for _, action := range m.def.actions {
		if err := action(ctx, m.current, t.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}
	m.current = t.To
	return nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	_, err := m.pick(ctx, event, data)
	return err == nil
}

func (m *Machine) pick(ctx context.Context, event Event, data any) (Transition, error) {
	from, name := m.current.Name(), event.Name()
	candidates := m.def.table[from][name]
	if len(candidates) == 0 {
		return Transition{}, &ErrNoTransitionAvailable{StateName: from, EventName: name}
	}
	for _, t := range candidates {
		if guardsPass(ctx, t, m.current, event, data) {
			return t, nil
		}
	}
	return Transition{}, &ErrTransitionRejected{StateName: from, EventName: name}
}

func guardsPass(ctx context.Context, t Transition, from State, event Event, data any) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
