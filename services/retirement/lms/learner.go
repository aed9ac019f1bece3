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

// Learner is one retirement status row as the LMS returns it. The row id
// is the retirement status surrogate key; User.ID is the platform user id
// that partner reports and archives carry.
type Learner struct {
	ID   int64 `json:"id"`
	User User  `json:"user"`

	CurrentState State `json:"current_state"`
	LastState    State `json:"last_state"`

	// Created and Modified are the row's creation and last-touched
	// timestamps, in the LMS's RFC 3339 form with a trailing Z.
	Created  string `json:"created"`
	Modified string `json:"modified"`

	OriginalUsername string `json:"original_username"`
	OriginalEmail    string `json:"original_email"`
	OriginalName     string `json:"original_name"`

	// Retired aliases are write-once, populated when the anonymization
	// step completes.
	RetiredUsername string `json:"retired_username"`
	RetiredEmail    string `json:"retired_email"`

	// Orgs are the organization tags the partner report groups by.
	Orgs []string `json:"orgs,omitempty"`

	// EcommerceSegmentID is present only when the environment fetches the
	// commerce-specific analytics id for bulk deletion.
	EcommerceSegmentID string `json:"ecommerce_segment_id,omitempty"`
}

type User struct {
	ID int64 `json:"id"`
}

type State struct {
	ID                  int64  `json:"id"`
	StateName           string `json:"state_name"`
	StateExecutionOrder int    `json:"state_execution_order"`
}
