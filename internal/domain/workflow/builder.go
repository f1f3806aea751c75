package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc is a function that evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial
	// state. The entity name is used in transition error messages.
	Build(entity string, initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the
	// guard condition passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

// transition represents a state transition with optional guard
type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
	known          map[State]bool
}

type stateMachine struct {
	entity         string
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
		known:          make(map[State]bool),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if state == "" {
		panic("cannot configure empty state")
	}
	b.known[state] = true

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return &builderConfig{builder: b, config: config}
}

type builderConfig struct {
	builder *stateMachineBuilder
	config  *stateConfig
}

// Permit allows a trigger to transition to the target state
func (c *builderConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state if the guard
// condition passes
func (c *builderConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if toState == "" {
		panic("cannot permit transition to empty state")
	}
	c.builder.known[toState] = true

	c.config.transitions[trigger] = append(c.config.transitions[trigger], transition{
		toState: toState,
		guard:   guard,
	})

	return c
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(entity string, initialState State) StateMachine {
	if !b.known[initialState] {
		panic(fmt.Sprintf("initial state %q was never configured", initialState))
	}

	// Deep copy configurations so built machines are isolated from the
	// builder and from each other
	configsCopy := make(map[State]*stateConfig)
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition)
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		entity:         entity,
		currentState:   initialState,
		configurations: configsCopy,
	}
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is permitted in the current state
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}

	transitions, exists := config.transitions[trigger]
	return exists && len(transitions) > 0
}

// Fire attempts to execute the trigger, transitioning to the new state if
// allowed
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return &TransitionError{
			Entity:    m.entity,
			Current:   m.currentState,
			Requested: trigger.String(),
			Allowed:   nil,
		}
	}

	transitions, exists := config.transitions[trigger]
	if !exists || len(transitions) == 0 {
		return &TransitionError{
			Entity:    m.entity,
			Current:   m.currentState,
			Requested: trigger.String(),
			Allowed:   m.PermittedTargets(),
		}
	}

	// Try each transition in order until one's guard passes
	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

// PermittedTriggers returns all triggers that can be fired in the current
// state, sorted for deterministic output
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })

	return triggers
}

// PermittedTargets returns all states reachable from the current state,
// sorted for deterministic output
func (m *stateMachine) PermittedTargets() []State {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []State{}
	}

	seen := make(map[State]bool)
	targets := make([]State, 0, len(config.transitions))
	for _, transitions := range config.transitions {
		for _, t := range transitions {
			if !seen[t.toState] {
				seen[t.toState] = true
				targets = append(targets, t.toState)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	return targets
}
