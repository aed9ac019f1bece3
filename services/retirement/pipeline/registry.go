// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
)

// Operation is one remote retirement call. It receives the learner record
// (original username, email, service ids) and returns the textual response
// recorded in the ledger's response log. Operations must be safely
// re-runnable: a repeat invocation for an already-processed learner is a
// no-op that returns success.
type Operation func(ctx context.Context, learner *lms.Learner) (string, error)

// Registry maps (service key, method key) to operations. It is populated
// once at startup from the configured clients; the driver only ever sees
// bound steps, so an unknown key can never surface mid-run.
type Registry struct {
	ops map[string]map[string]Operation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]map[string]Operation)}
}

// Register adds an operation under the given service and method keys.
func (r *Registry) Register(service, method string, op Operation) {
	if r.ops[service] == nil {
		r.ops[service] = make(map[string]Operation)
	}
	r.ops[service][method] = op
}

// Lookup returns the operation for (service, method), if registered.
func (r *Registry) Lookup(service, method string) (Operation, bool) {
	op, ok := r.ops[service][method]
	return op, ok
}

// BoundStep is a pipeline step with its operation resolved.
type BoundStep struct {
	Step
	Run Operation
}

// Bind resolves every step of the definition against the registry. A step
// naming an unregistered (service, method) pair fails here, at setup.
func (r *Registry) Bind(def *Definition) ([]BoundStep, error) {
	bound := make([]BoundStep, 0, len(def.Steps()))
	for _, step := range def.Steps() {
		op, ok := r.Lookup(step.Service, step.Method)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s (state %s)",
				ErrUnknownOperation, step.Service, step.Method, step.StartState)
		}
		bound = append(bound, BoundStep{Step: step, Run: op})
	}
	return bound, nil
}
