package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)

// TransitionError describes a rejected transition with enough structure
// for a caller to render an actionable message without re-querying:
// the entity kind, its current state, what was requested, and the full
// set of legal next states.
type TransitionError struct {
	Entity    string
	Current   State
	Requested string
	Allowed   []State
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("%s: cannot %s %s with status %q (allowed next: [%s])",
		ErrInvalidTransition, e.Requested, e.Entity, e.Current, strings.Join(allowed, " "))
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// AllowedStrings returns the legal next states as plain strings.
func (e *TransitionError) AllowedStrings() []string {
	out := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		out[i] = string(s)
	}
	return out
}
