// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the partner report run. Each checkpoint of the run
// fails with its own kind so the CLI can exit with the matching code.
var (
	// ErrFetchingLearners is returned when the reporting queue cannot be
	// read.
	ErrFetchingLearners = errors.New("fetching reporting queue failed")

	// ErrReportGeneration is returned when a CSV cannot be written. No
	// uploads happen after this.
	ErrReportGeneration = errors.New("report file generation failed")

	// ErrDriveListing is returned when the partner folders cannot be
	// enumerated.
	ErrDriveListing = errors.New("finding partner directories on Drive failed")

	// ErrMissingPartnerFolder is returned when a partner has retiring
	// learners but no Drive folder.
	ErrMissingPartnerFolder = errors.New("partner has no Drive folder")

	// ErrDriveUpload is returned when an upload fails. The queue is not
	// cleared, so the same rows are picked up next run.
	ErrDriveUpload = errors.New("Drive upload failed")

	// ErrCleanup is returned when clearing the reporting queue fails after
	// successful uploads. Users may be stuck in the processing state.
	ErrCleanup = errors.New("reporting queue cleanup failed")
)

// UnknownOrgError names the organization tags that have no partner
// mapping in configuration. The run aborts before any file is written.
type UnknownOrgError struct {
	Orgs []string
}

func (e *UnknownOrgError) Error() string {
	return fmt.Sprintf("partner for organizations does not exist in configuration: %s",
		strings.Join(e.Orgs, ", "))
}
