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
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

const bulkUpdateMessage = "Force updated by the bulk status update tool"

// runBulkUpdateCommand force-moves every retirement row created in the
// date range and sitting in --initial-state into --new-state. Used by
// operators to, for example, move a batch of ERRORED rows back to a
// prior end state after an outage is fixed.
func runBulkUpdateCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := mustLoadConfig()

	start, err := parseDateNotFuture(bulkStartDate)
	if err != nil {
		fail(exitBadConfig, "invalid --start-date", err)
	}
	end, err := parseDateNotFuture(bulkEndDate)
	if err != nil {
		fail(exitBadConfig, "invalid --end-date", err)
	}
	if end.Before(start) {
		fail(exitBadConfig, "--end-date is before --start-date", nil)
	}

	ledger, err := newLedger(ctx, cfg, nil)
	if err != nil {
		fail(exitSetupFailed, "failed to build LMS client", err)
	}

	learners, err := ledger.ListByDateAndState(ctx, bulkInitialState, start, end)
	if err != nil {
		fail(exitFetchingFailed, "failed to fetch learners to update", err)
	}

	for _, learner := range learners {
		if _, err := ledger.UpdateState(ctx, learner.OriginalUsername, bulkNewState, bulkUpdateMessage, true); err != nil {
			fail(exitWhileRetiring, "failed to update learner state", err)
		}
		logger.Info("updated learner state",
			slog.String("username", learner.OriginalUsername),
			slog.String("new_state", bulkNewState),
		)
	}

	logger.Info("bulk status update complete", slog.Int("learners", len(learners)))
	exit(exitOK)
}

// parseDateNotFuture parses a YYYY-MM-DD date and rejects future dates.
func parseDateNotFuture(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	if t.After(time.Now().UTC()) {
		return time.Time{}, fmt.Errorf("date %s is in the future", value)
	}
	return t, nil
}
