// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline holds the configured retirement pipeline: the ordered
// step tuples, the canonical state order derived from them, and the
// registry that binds each step to a concrete service operation at
// startup.
package pipeline

import "fmt"

// Reserved state labels. These live in the ledger with special meaning and
// may not be reused as step states.
const (
	StatePending  = "PENDING"
	StateComplete = "COMPLETE"
	StateErrored  = "ERRORED"
	StateAborted  = "ABORTED"
)

// TerminalStates are the states no driver run may start from.
var TerminalStates = []string{StateComplete, StateErrored, StateAborted}

// Step is one (start-state, end-state, service, method) tuple.
type Step struct {
	StartState string
	EndState   string
	Service    string
	Method     string
}

// Definition is a validated pipeline: the steps plus the canonical total
// order of states,
//
//	PENDING, start_1, end_1, ..., start_n, end_n, COMPLETE, ERRORED, ABORTED.
//
// The driver consults states by index, never by label, so steps can be
// added or removed between runs without migrating users whose current
// state survives the change.
type Definition struct {
	steps   []Step
	states  []string
	index   map[string]int
	working map[string]bool
	end     map[string]bool
}

// New validates the raw config tuples and builds the Definition.
func New(tuples [][]string) (*Definition, error) {
	if len(tuples) == 0 {
		return nil, ErrEmptyPipeline
	}

	reserved := map[string]bool{
		StatePending:  true,
		StateComplete: true,
		StateErrored:  true,
		StateAborted:  true,
	}

	d := &Definition{
		index:   make(map[string]int),
		working: make(map[string]bool),
		end:     make(map[string]bool),
	}
	d.states = append(d.states, StatePending)

	seen := map[string]bool{StatePending: true}
	for _, tuple := range tuples {
		if len(tuple) != 4 {
			return nil, fmt.Errorf("%w: %v", ErrMalformedStep, tuple)
		}
		step := Step{
			StartState: tuple[0],
			EndState:   tuple[1],
			Service:    tuple[2],
			Method:     tuple[3],
		}
		for _, label := range []string{step.StartState, step.EndState} {
			if reserved[label] {
				return nil, fmt.Errorf("%w: %s", ErrReservedState, label)
			}
			if seen[label] {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateState, label)
			}
			seen[label] = true
		}
		d.steps = append(d.steps, step)
		d.states = append(d.states, step.StartState, step.EndState)
		d.working[step.StartState] = true
		d.end[step.EndState] = true
	}
	d.states = append(d.states, StateComplete, StateErrored, StateAborted)

	for i, state := range d.states {
		d.index[state] = i
	}
	return d, nil
}

// Steps returns the ordered steps.
func (d *Definition) Steps() []Step {
	return d.steps
}

// States returns the canonical state order.
func (d *Definition) States() []string {
	return d.states
}

// QueueStates are the states from which a driver run may begin: PENDING
// plus every end state. Used when asking the ledger for actionable
// learners.
func (d *Definition) QueueStates() []string {
	states := []string{StatePending}
	for _, step := range d.steps {
		states = append(states, step.EndState)
	}
	return states
}

// StateIndex returns the position of state in the canonical order.
func (d *Definition) StateIndex(state string) (int, bool) {
	i, ok := d.index[state]
	return i, ok
}

// IsWorkingState reports whether state is a step's start state, meaning a
// service call is (or was) in progress.
func (d *Definition) IsWorkingState(state string) bool {
	return d.working[state]
}

// IsEndState reports whether state is a step's end state, a safe
// checkpoint between steps.
func (d *Definition) IsEndState(state string) bool {
	return d.end[state]
}

// IsTerminal reports whether state is COMPLETE, ERRORED, or ABORTED.
func (d *Definition) IsTerminal(state string) bool {
	return state == StateComplete || state == StateErrored || state == StateAborted
}

// ValidTransition reports whether a non-forced ledger update from one
// state to another respects the pipeline. Forward moves in the canonical
// order are legal, as is entering any working state and moving from a
// working state to its matching end state.
func (d *Definition) ValidTransition(from, to string) bool {
	fromIdx, okFrom := d.index[from]
	toIdx, okTo := d.index[to]
	if !okFrom || !okTo {
		return false
	}
	if toIdx > fromIdx {
		return true
	}
	if d.working[to] {
		return true
	}
	if d.end[to] && toIdx == fromIdx+1 && d.working[from] {
		return true
	}
	return false
}
