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
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRetire/services/retirement/pipeline"
)

// queueEntry is one actionable learner, printed as JSON for the
// scheduler that fans out per-user retire invocations.
type queueEntry struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"original_username"`
	State    string `json:"current_state"`
}

// runQueueCommand lists learners whose retirement requests are past the
// cool-off period and who sit in an actionable state.
func runQueueCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := mustLoadConfig()

	states := queueStates
	if len(states) == 0 {
		// Default to every state the driver can pick up from: PENDING
		// plus each step's end state.
		def, err := pipeline.New(cfg.RetirementPipeline)
		if err != nil {
			fail(exitBadConfig, "invalid retirement_pipeline", err)
		}
		states = def.QueueStates()
	}

	ledger, err := newLedger(ctx, cfg, nil)
	if err != nil {
		fail(exitSetupFailed, "failed to build LMS client", err)
	}

	learners, err := ledger.LearnersToRetire(ctx, queueCoolOffDays, states)
	if err != nil {
		fail(exitFetchingFailed, "failed to fetch the retirement queue", err)
	}

	entries := make([]queueEntry, 0, len(learners))
	for _, learner := range learners {
		entries = append(entries, queueEntry{
			UserID:   learner.User.ID,
			Username: learner.OriginalUsername,
			State:    learner.CurrentState.StateName,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		fail(exitFetchingFailed, "failed to write queue listing", err)
	}
	exit(exitOK)
}
