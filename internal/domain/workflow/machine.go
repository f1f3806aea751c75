package workflow

import "context"

// State represents a lifecycle state of a workflow entity
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Trigger represents an event that can cause a state transition
type Trigger string

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// StateMachine tracks a current state and validates transitions against
// a configured transition graph
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state
	// if allowed. A disallowed trigger yields a *TransitionError.
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the
	// current state
	PermittedTriggers() []Trigger

	// PermittedTargets returns all states reachable from the current state
	PermittedTargets() []State
}
