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

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRetire/services/retirement/driver"
)

// runRetireCommand retires one learner. The exit code tells the calling
// scheduler whether to retry, skip, or page someone.
func runRetireCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := mustLoadConfig()

	d, err := buildDriver(ctx, cfg)
	if err != nil {
		fail(exitSetupFailed, "failed to set up retirement driver", err)
	}

	if err := d.Retire(ctx, retireUsername); err != nil {
		code, msg := retireExit(err)
		fail(code, msg, err)
	}

	logger.Info("learner retirement complete", slog.String("username", retireUsername))
	exit(exitOK)
}

// retireExit maps driver errors onto the documented exit codes.
func retireExit(err error) (int, string) {
	switch {
	case errors.Is(err, driver.ErrUserAtEndState):
		return exitUserAtEndState, "user is already at an end state"
	case errors.Is(err, driver.ErrUserInWorkingState):
		return exitUserInWorkingState, "user is being processed by another run"
	case errors.Is(err, driver.ErrUnknownState):
		return exitUnknownState, "user is in a state the current pipeline does not know"
	case errors.Is(err, driver.ErrUserNotFound), errors.Is(err, driver.ErrBadLearner):
		return exitBadLearner, "no usable retirement row for user"
	default:
		return exitWhileRetiring, "error while retiring user"
	}
}
