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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/pipeline"
)

type update struct {
	state   string
	message string
	force   bool
}

// fakeStore is an in-memory StatusStore holding a single learner row.
type fakeStore struct {
	learner *lms.Learner
	updates []update
}

func (f *fakeStore) GetStatus(ctx context.Context, username string) (*lms.Learner, error) {
	if f.learner == nil {
		return nil, fmt.Errorf("%w: %s", lms.ErrLearnerNotFound, username)
	}
	copied := *f.learner
	return &copied, nil
}

func (f *fakeStore) UpdateState(ctx context.Context, username, newState, message string, force bool) (*lms.Learner, error) {
	f.updates = append(f.updates, update{state: newState, message: message, force: force})
	f.learner.CurrentState.StateName = newState
	return f.learner, nil
}

func (f *fakeStore) states() []string {
	out := make([]string, 0, len(f.updates))
	for _, u := range f.updates {
		out = append(out, u.state)
	}
	return out
}

func testDef(t *testing.T) *pipeline.Definition {
	t.Helper()
	def, err := pipeline.New([][]string{
		{"RETIRING_FORUMS", "FORUMS_COMPLETE", "LMS", "retirement_retire_forum"},
		{"RETIRING_EMAIL_LISTS", "EMAIL_LISTS_COMPLETE", "LMS", "retirement_retire_mailings"},
		{"RETIRING_ENROLLMENTS", "ENROLLMENTS_COMPLETE", "LMS", "retirement_unenroll"},
		{"RETIRING_LMS", "LMS_COMPLETE", "LMS", "retirement_lms_retire"},
	})
	require.NoError(t, err)
	return def
}

// testDriver binds a recording op to every step. failing maps a method
// key to the error its op returns.
func testDriver(t *testing.T, store *fakeStore, failing map[string]error) (*Driver, map[string]int) {
	t.Helper()

	def := testDef(t)
	calls := make(map[string]int)
	reg := pipeline.NewRegistry()
	for _, step := range def.Steps() {
		method := step.Method
		reg.Register(step.Service, method, func(ctx context.Context, learner *lms.Learner) (string, error) {
			calls[method]++
			if err := failing[method]; err != nil {
				return "", err
			}
			return method + " done", nil
		})
	}

	steps, err := reg.Bind(def)
	require.NoError(t, err)
	d, err := New(store, def, steps, nil)
	require.NoError(t, err)
	return d, calls
}

func seededStore(state string) *fakeStore {
	return &fakeStore{learner: &lms.Learner{
		ID:               1,
		User:             lms.User{ID: 1},
		OriginalUsername: "test_username",
		OriginalEmail:    "test@example.com",
		CurrentState:     lms.State{StateName: state},
	}}
}

func TestRetire_HappyPath(t *testing.T) {
	store := seededStore("PENDING")
	d, calls := testDriver(t, store, nil)

	err := d.Retire(context.Background(), "test_username")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"RETIRING_FORUMS", "FORUMS_COMPLETE",
		"RETIRING_EMAIL_LISTS", "EMAIL_LISTS_COMPLETE",
		"RETIRING_ENROLLMENTS", "ENROLLMENTS_COMPLETE",
		"RETIRING_LMS", "LMS_COMPLETE",
		"COMPLETE",
	}, store.states())

	for _, method := range []string{
		"retirement_retire_forum", "retirement_retire_mailings",
		"retirement_unenroll", "retirement_lms_retire",
	} {
		assert.Equal(t, 1, calls[method], method)
	}

	assert.Equal(t, "Starting: RETIRING_FORUMS", store.updates[0].message)
	assert.Equal(t, "Ending: FORUMS_COMPLETE with response:\nretirement_retire_forum done",
		store.updates[1].message)
	assert.Equal(t, "Learner retirement complete.", store.updates[len(store.updates)-1].message)
}

func TestRetire_ResumesFromLastEndState(t *testing.T) {
	store := seededStore("EMAIL_LISTS_COMPLETE")
	d, calls := testDriver(t, store, nil)

	err := d.Retire(context.Background(), "test_username")
	require.NoError(t, err)

	assert.Zero(t, calls["retirement_retire_forum"])
	assert.Zero(t, calls["retirement_retire_mailings"])
	assert.Equal(t, 1, calls["retirement_unenroll"])
	assert.Equal(t, 1, calls["retirement_lms_retire"])

	assert.Equal(t, []string{
		"RETIRING_ENROLLMENTS", "ENROLLMENTS_COMPLETE",
		"RETIRING_LMS", "LMS_COMPLETE",
		"COMPLETE",
	}, store.states())
}

func TestRetire_SecondRunIsNoOp(t *testing.T) {
	store := seededStore("PENDING")
	d, _ := testDriver(t, store, nil)

	require.NoError(t, d.Retire(context.Background(), "test_username"))

	firstRunUpdates := len(store.updates)
	err := d.Retire(context.Background(), "test_username")
	require.ErrorIs(t, err, ErrUserAtEndState)
	assert.Len(t, store.updates, firstRunUpdates, "second run must not touch the ledger")
}

func TestRetire_WorkingStateLockout(t *testing.T) {
	store := seededStore("RETIRING_FORUMS")
	d, calls := testDriver(t, store, nil)

	err := d.Retire(context.Background(), "test_username")
	require.ErrorIs(t, err, ErrUserInWorkingState)
	assert.Empty(t, store.updates, "no ledger writes while locked out")
	assert.Empty(t, calls, "no remote calls while locked out")
}

func TestRetire_TerminalStates(t *testing.T) {
	for _, state := range []string{"COMPLETE", "ERRORED", "ABORTED"} {
		t.Run(state, func(t *testing.T) {
			store := seededStore(state)
			d, _ := testDriver(t, store, nil)
			err := d.Retire(context.Background(), "test_username")
			assert.ErrorIs(t, err, ErrUserAtEndState)
		})
	}
}

func TestRetire_UnknownState(t *testing.T) {
	store := seededStore("NOT_A_STATE")
	d, _ := testDriver(t, store, nil)
	err := d.Retire(context.Background(), "test_username")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestRetire_UserNotFound(t *testing.T) {
	d, _ := testDriver(t, &fakeStore{}, nil)
	err := d.Retire(context.Background(), "missing_user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRetire_BadLearnerRow(t *testing.T) {
	store := seededStore("PENDING")
	store.learner.OriginalUsername = ""
	d, _ := testDriver(t, store, nil)
	err := d.Retire(context.Background(), "test_username")
	assert.ErrorIs(t, err, ErrBadLearner)
}

func TestRetire_StepFailureRecordsErrored(t *testing.T) {
	store := seededStore("PENDING")
	opErr := errors.New("enrollment service exploded")
	d, calls := testDriver(t, store, map[string]error{"retirement_unenroll": opErr})

	err := d.Retire(context.Background(), "test_username")
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "RETIRING_ENROLLMENTS", stepErr.State)
	assert.ErrorIs(t, err, opErr)

	last := store.updates[len(store.updates)-1]
	assert.Equal(t, "ERRORED", last.state)
	assert.Contains(t, last.message, "enrollment service exploded")

	// The pipeline stopped at the failed step.
	assert.Equal(t, 1, calls["retirement_unenroll"])
	assert.Zero(t, calls["retirement_lms_retire"])
}

func TestRetire_ForceRewindReproducesSuffix(t *testing.T) {
	store := seededStore("PENDING")
	d, calls := testDriver(t, store, nil)
	require.NoError(t, d.Retire(context.Background(), "test_username"))

	// Operator moves the row back to an earlier end state.
	_, err := store.UpdateState(context.Background(), "test_username",
		"EMAIL_LISTS_COMPLETE", "rewound by operator", true)
	require.NoError(t, err)

	require.NoError(t, d.Retire(context.Background(), "test_username"))

	assert.Equal(t, 1, calls["retirement_retire_forum"], "prefix must not re-run")
	assert.Equal(t, 2, calls["retirement_unenroll"], "suffix re-runs once")
	assert.Equal(t, 2, calls["retirement_lms_retire"], "suffix re-runs once")
	assert.Equal(t, "COMPLETE", store.learner.CurrentState.StateName)
}
