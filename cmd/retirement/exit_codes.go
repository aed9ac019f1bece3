// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

// Exit codes for the retirement tools. Automation keys on these, so the
// values are stable: a scheduler distinguishes "user is mid-retirement
// elsewhere" from "the run itself broke".
const (
	exitOK = 0

	// Shared.
	exitSetupFailed = -1
	exitNoConfig    = -2
	exitBadConfig   = -3

	// retire.
	exitUserAtEndState     = -4
	exitUserInWorkingState = -5
	exitUnknownState       = -6
	exitBadLearner         = -7
	exitWhileRetiring      = -8

	// report.
	exitNoSecrets       = -9
	exitBadSecrets      = -10
	exitFetchingFailed  = -11
	exitUnknownOrg      = -12
	exitReportingFailed = -13
	exitDriveListing    = -14
	exitDriveUpload     = -15
	exitCleanupFailed   = -16

	// archive.
	exitArchivingFailed = -17
	exitDeletingFailed  = -18
)
