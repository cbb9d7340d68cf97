// Package dialogue implements the scripted joke dialogue: a fixed registry of
// states, each typing its lines into a terminal surface and offering the next
// choices.
//
// The registry is validated once at construction; afterwards only the visit
// counters of its states change.
package dialogue

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownState is returned when a state identifier is not registered.
	ErrUnknownState = errors.New("dialogue: unknown state")
	// ErrDuplicateState is returned when two states share an identifier.
	ErrDuplicateState = errors.New("dialogue: duplicate state")
	// ErrEmptyScript is returned for states without any script.
	ErrEmptyScript = errors.New("dialogue: state has no script")
	// ErrInvalidChoice is returned for choices with neither or both of a
	// target and an action.
	ErrInvalidChoice = errors.New("dialogue: invalid choice")
	// ErrNegativeDuration is returned for lines with negative pacing.
	ErrNegativeDuration = errors.New("dialogue: negative duration")
)

// Registry maps state identifiers to states. It is the single source of
// truth for what happens when a state is entered.
type Registry struct {
	start  StateID
	states map[StateID]*State
	order  []StateID
	mu     sync.Mutex
}

// NewRegistry validates states and indexes them. Every choice and trigger
// target must name a registered state, and start must be registered.
func NewRegistry(start StateID, states []*State) (*Registry, error) {
	r := &Registry{
		start:  start,
		states: make(map[StateID]*State, len(states)),
	}

	for _, st := range states {
		if _, exists := r.states[st.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateState, st.ID)
		}
		if len(st.Scripts) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyScript, st.ID)
		}
		r.states[st.ID] = st
		r.order = append(r.order, st.ID)
	}

	if _, ok := r.states[start]; !ok {
		return nil, fmt.Errorf("%w: start state %q", ErrUnknownState, start)
	}

	for _, st := range states {
		if err := validateState(st); err != nil {
			return nil, err
		}
		for _, target := range st.targets() {
			if _, ok := r.states[target]; !ok {
				return nil, fmt.Errorf("%w: %s leads to missing state %s", ErrUnknownState, st.ID, target)
			}
		}
	}
	return r, nil
}

func validateState(st *State) error {
	for _, script := range st.Scripts {
		for _, line := range script.Lines {
			if line.DurationMS < 0 || line.PauseAfterMS < 0 {
				return fmt.Errorf("%w: state %s line %q", ErrNegativeDuration, st.ID, line.Text)
			}
		}
		for _, c := range script.Choices {
			hasTarget := c.Target != ""
			hasAction := c.Action != ""
			if hasTarget == hasAction {
				return fmt.Errorf("%w: state %s choice %q", ErrInvalidChoice, st.ID, c.Label)
			}
			if hasAction && c.Action != ActionClose {
				return fmt.Errorf("%w: state %s choice %q has unknown action %q", ErrInvalidChoice, st.ID, c.Label, c.Action)
			}
		}
	}
	return nil
}

// Start returns the state a new visitor enters first.
func (r *Registry) Start() StateID { return r.start }

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []StateID {
	return append([]StateID(nil), r.order...)
}

// Get returns the state registered under id.
func (r *Registry) Get(id StateID) (*State, error) {
	st, ok := r.states[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, id)
	}
	return st, nil
}

// Iterations returns the completed visit count of a state, or 0 for unknown
// states.
func (r *Registry) Iterations(id StateID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[id]; ok {
		return st.Iterations
	}
	return 0
}

func (r *Registry) complete(st *State) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	st.Iterations++
	return st.Iterations
}

// Fresh returns a registry with the same definitions and every visit counter
// reset, as a page reload would.
func (r *Registry) Fresh() *Registry {
	clone := &Registry{
		start:  r.start,
		states: make(map[StateID]*State, len(r.states)),
		order:  append([]StateID(nil), r.order...),
	}
	for id, st := range r.states {
		clone.states[id] = st.Clone()
	}
	return clone
}

// Unreachable lists states that cannot be reached from the start state,
// sorted by identifier.
func (r *Registry) Unreachable() []StateID {
	seen := map[StateID]bool{r.start: true}
	queue := []StateID{r.start}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range r.states[curr].targets() {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	var out []StateID
	for id := range r.states {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
