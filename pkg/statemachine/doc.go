// Package statemachine implements finite state machines over a shared,
// immutable transition table.
//
// A Definition holds the table: for every state, the events it accepts and
// the transitions they trigger, each optionally vetoed by guards. Machines
// created from one Definition share the table and carry only their current
// state, so a process can rebuild a machine for any persisted entity in
// constant time:
//
//	const (
//	    Pending = statemachine.StringState("pending")
//	    Done    = statemachine.StringState("done")
//	    Finish  = statemachine.StringEvent("finish")
//	)
//
//	def := statemachine.MustDefinition(
//	    statemachine.WithTransition(Pending, Done, Finish),
//	    statemachine.WithAction(persist),
//	)
//
//	m := def.Machine(loadState(id))
//	if err := m.Fire(ctx, Finish, id); err != nil {
//	    // IsNoTransitionAvailableError: the entity is not in a state that accepts Finish.
//	    // IsTransitionRejectedError: a guard vetoed it.
//	}
//
// Actions run after the guards pass and before the state changes. An action
// error aborts the transition and is returned from Fire.
package statemachine
