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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTuples() [][]string {
	return [][]string{
		{"RETIRING_FORUMS", "FORUMS_COMPLETE", "LMS", "retirement_retire_forum"},
		{"RETIRING_EMAIL_LISTS", "EMAIL_LISTS_COMPLETE", "LMS", "retirement_retire_mailings"},
		{"RETIRING_ENROLLMENTS", "ENROLLMENTS_COMPLETE", "LMS", "retirement_unenroll"},
		{"RETIRING_LMS", "LMS_COMPLETE", "LMS", "retirement_lms_retire"},
	}
}

func TestNew_CanonicalOrder(t *testing.T) {
	def, err := New(testTuples())
	require.NoError(t, err)

	want := []string{
		"PENDING",
		"RETIRING_FORUMS", "FORUMS_COMPLETE",
		"RETIRING_EMAIL_LISTS", "EMAIL_LISTS_COMPLETE",
		"RETIRING_ENROLLMENTS", "ENROLLMENTS_COMPLETE",
		"RETIRING_LMS", "LMS_COMPLETE",
		"COMPLETE", "ERRORED", "ABORTED",
	}
	assert.Equal(t, want, def.States())

	for i, state := range want {
		idx, ok := def.StateIndex(state)
		require.True(t, ok, state)
		assert.Equal(t, i, idx, state)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		tuples  [][]string
		wantErr error
	}{
		{
			name:    "empty pipeline",
			tuples:  nil,
			wantErr: ErrEmptyPipeline,
		},
		{
			name:    "tuple with wrong arity",
			tuples:  [][]string{{"A", "B", "LMS"}},
			wantErr: ErrMalformedStep,
		},
		{
			name:    "reserved state reused",
			tuples:  [][]string{{"RETIRING_FORUMS", "COMPLETE", "LMS", "m"}},
			wantErr: ErrReservedState,
		},
		{
			name: "duplicate state across steps",
			tuples: [][]string{
				{"A", "B", "LMS", "m1"},
				{"C", "B", "LMS", "m2"},
			},
			wantErr: ErrDuplicateState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tuples)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefinition_StateClassification(t *testing.T) {
	def, err := New(testTuples())
	require.NoError(t, err)

	assert.True(t, def.IsWorkingState("RETIRING_FORUMS"))
	assert.False(t, def.IsWorkingState("FORUMS_COMPLETE"))
	assert.True(t, def.IsEndState("FORUMS_COMPLETE"))
	assert.False(t, def.IsEndState("PENDING"))

	for _, state := range []string{"COMPLETE", "ERRORED", "ABORTED"} {
		assert.True(t, def.IsTerminal(state), state)
	}
	assert.False(t, def.IsTerminal("PENDING"))
}

func TestDefinition_QueueStates(t *testing.T) {
	def, err := New(testTuples())
	require.NoError(t, err)

	want := []string{
		"PENDING",
		"FORUMS_COMPLETE", "EMAIL_LISTS_COMPLETE",
		"ENROLLMENTS_COMPLETE", "LMS_COMPLETE",
	}
	assert.Equal(t, want, def.QueueStates())
}

func TestDefinition_ValidTransition(t *testing.T) {
	def, err := New(testTuples())
	require.NoError(t, err)

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"forward to next working state", "PENDING", "RETIRING_FORUMS", true},
		{"forward skipping states", "PENDING", "RETIRING_LMS", true},
		{"forward to terminal", "LMS_COMPLETE", "COMPLETE", true},
		{"backward into a working state", "LMS_COMPLETE", "RETIRING_FORUMS", true},
		{"working state to its end state", "RETIRING_FORUMS", "FORUMS_COMPLETE", true},
		{"backward to an end state", "LMS_COMPLETE", "FORUMS_COMPLETE", false},
		{"end state to earlier end state", "EMAIL_LISTS_COMPLETE", "FORUMS_COMPLETE", false},
		{"unknown source state", "NOPE", "RETIRING_FORUMS", false},
		{"unknown target state", "PENDING", "NOPE", false},
		{"self transition", "FORUMS_COMPLETE", "FORUMS_COMPLETE", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, def.ValidTransition(tt.from, tt.to))
		})
	}
}
