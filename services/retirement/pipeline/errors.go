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

import "errors"

// Sentinel errors for pipeline validation and binding.
var (
	// ErrEmptyPipeline is returned when the config lists no steps.
	ErrEmptyPipeline = errors.New("retirement pipeline is empty")

	// ErrMalformedStep is returned for a step tuple without exactly four
	// elements.
	ErrMalformedStep = errors.New("pipeline step is not a 4-tuple")

	// ErrReservedState is returned when a step reuses PENDING, COMPLETE,
	// ERRORED, or ABORTED.
	ErrReservedState = errors.New("pipeline step uses a reserved state label")

	// ErrDuplicateState is returned when two steps share a state label.
	ErrDuplicateState = errors.New("pipeline state label is not unique")

	// ErrUnknownOperation is returned at bind time when a step names a
	// (service, method) pair with no registered operation. This is a
	// configuration failure, never a runtime one.
	ErrUnknownOperation = errors.New("pipeline step names an unregistered operation")
)
