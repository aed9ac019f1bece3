// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lms

import "errors"

// Sentinel errors for the retirement ledger.
var (
	// ErrLearnerNotFound is returned when no retirement row exists for the
	// username.
	ErrLearnerNotFound = errors.New("no retirement status row for learner")

	// ErrNotPermitted is returned when the caller token lacks the scope
	// required for ledger access.
	ErrNotPermitted = errors.New("token not permitted to access retirement ledger")

	// ErrInvalidTransition is returned when a state update violates the
	// pipeline ordering and force was not set.
	ErrInvalidTransition = errors.New("state transition violates pipeline order")

	// ErrNotComplete is returned by BulkDelete when any named row is not
	// in the COMPLETE state. No rows are deleted in that case.
	ErrNotComplete = errors.New("bulk delete refused: row not in COMPLETE state")
)
