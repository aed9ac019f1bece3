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

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLearner() *Learner {
	return &Learner{
		ID:               1,
		User:             User{ID: 42},
		OriginalUsername: "zoe",
		OriginalEmail:    "zoe@example.com",
		OriginalName:     "Zoe Example",
		CurrentState:     State{StateName: "PENDING"},
	}
}

func TestRetireForum_AbsentUserIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/discussion/v1/accounts/retire_forum/", r.URL.Path)
		http.Error(w, `{"detail":"user not found"}`, http.StatusNotFound)
	}))

	resp, err := c.RetireForum(context.Background(), testLearner())
	require.NoError(t, err)
	assert.Contains(t, resp, "treated as success")
}

func TestRetireNotes_AbsentServiceIsSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	resp, err := c.RetireNotes(context.Background(), testLearner())
	require.NoError(t, err)
	assert.Contains(t, resp, "treated as success")
}

func TestRetire_NotFoundIsAnError(t *testing.T) {
	// The final PII retirement is not an optional service; absence there
	// means something is wrong.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.Retire(context.Background(), testLearner())
	assert.Error(t, err)
}

func TestRetirementOps_PostUsername(t *testing.T) {
	tests := []struct {
		name string
		path string
		call func(*Client, context.Context, *Learner) (string, error)
	}{
		{"mailings", "/api/user/v1/accounts/retire_mailings/", (*Client).RetireMailings},
		{"unenroll", "/api/enrollment/v1/unenroll/", (*Client).Unenroll},
		{"misc", "/api/user/v1/accounts/retire_misc/", (*Client).RetireMisc},
		{"retire", "/api/user/v1/accounts/retire/", (*Client).Retire},
		{"deactivate", "/api/user/v1/accounts/deactivate_logout/", (*Client).DeactivateAndLogout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			var body map[string]string
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.WriteHeader(http.StatusNoContent)
			}))

			_, err := tt.call(c, context.Background(), testLearner())
			require.NoError(t, err)
			assert.Equal(t, tt.path, gotPath)
			assert.Equal(t, "zoe", body["username"])
		})
	}
}

func TestEnqueuePartnerReport_SendsIdentitySnapshot(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/v1/accounts/retirement_partner_report/", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := c.EnqueuePartnerReport(context.Background(), testLearner())
	require.NoError(t, err)
	assert.Equal(t, "zoe", body["username"])
	assert.Equal(t, "zoe@example.com", body["original_email"])
	assert.Equal(t, "Zoe Example", body["original_name"])
}
