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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The archive and queue commands both expose --cool-off-days with
// different defaults. Binding them to one shared variable would let the
// later init registration clobber the earlier default, so each command
// keeps its own variable.
func TestCoolOffDayFlags_IndependentDefaults(t *testing.T) {
	archiveFlag := archiveCmd.Flags().Lookup("cool-off-days")
	require.NotNil(t, archiveFlag)
	assert.Equal(t, "37", archiveFlag.DefValue)

	queueFlag := queueCmd.Flags().Lookup("cool-off-days")
	require.NotNil(t, queueFlag)
	assert.Equal(t, "7", queueFlag.DefValue)

	// An archive invocation without the flag keeps the documented
	// 37-day cool-off.
	require.NoError(t, archiveCmd.Flags().Parse(nil))
	assert.Equal(t, 37, archiveCoolOffDays)
	assert.Equal(t, 7, queueCoolOffDays)
}

func TestCoolOffDayFlags_QueueOverrideLeavesArchiveAlone(t *testing.T) {
	require.NoError(t, queueCmd.Flags().Parse([]string{"--cool-off-days", "3"}))
	assert.Equal(t, 3, queueCoolOffDays)
	assert.Equal(t, 37, archiveCoolOffDays)

	t.Cleanup(func() { queueCoolOffDays = 7 })
}

func TestCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"retire", "report", "archive", "bulk-update", "queue"} {
		assert.True(t, names[want], "command %q is not registered", want)
	}
}
