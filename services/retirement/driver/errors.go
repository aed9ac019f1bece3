// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package driver

import (
	"errors"
	"fmt"
)

// Sentinel errors for driver preconditions. Each maps to a distinct CLI
// exit code so the pipeline runner can distinguish the fail cases.
var (
	// ErrUserNotFound is returned when the learner has no retirement row.
	ErrUserNotFound = errors.New("learner not found in retirement ledger")

	// ErrUserAtEndState is returned when the row is already in COMPLETE,
	// ERRORED, or ABORTED.
	ErrUserAtEndState = errors.New("learner already at a terminal state")

	// ErrUserInWorkingState is returned when the row is in a step's start
	// state. Another process is holding the learner, or a previous run
	// crashed mid-step; either way an operator has to look at it.
	ErrUserInWorkingState = errors.New("learner is in a working state")

	// ErrUnknownState is returned when the row's current state does not
	// appear in the configured pipeline. Operator migration (a bulk status
	// update) is required.
	ErrUnknownState = errors.New("learner is in a state missing from the pipeline")

	// ErrBadLearner is returned when the ledger row is missing the fields
	// needed to work on it.
	ErrBadLearner = errors.New("retirement row is missing required fields")
)

// StepError reports which pipeline step failed. The row is left marked
// ERRORED with the underlying error chain in its response log.
type StepError struct {
	State string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("error in retirement state %s: %v", e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
