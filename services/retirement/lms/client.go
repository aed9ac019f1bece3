// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lms talks to the learning platform's HTTP API. It is both the
// only write path to the durable retirement ledger and the client for the
// platform-side retirement operations (forums, mailing lists, enrollment,
// notes, PII).
package lms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// Ledger and retirement endpoints, relative to the LMS base URL.
const (
	retirementStatusPath       = "/api/user/v1/accounts/%s/retirement_status/"
	updateRetirementStatusPath = "/api/user/v1/accounts/update_retirement_status/"
	retirementQueuePath        = "/api/user/v1/accounts/retirement_queue/"
	retirementsByDatePath      = "/api/user/v1/accounts/retirements_by_status_and_date/"
	retirementCleanupPath      = "/api/user/v1/accounts/retirement_cleanup/"
	partnerReportPath          = "/api/user/v1/accounts/retirement_partner_report/"
	partnerReportCleanupPath   = "/api/user/v1/accounts/retirement_partner_report_cleanup/"

	retireForumPath      = "/api/discussion/v1/accounts/retire_forum/"
	retireMailingsPath   = "/api/user/v1/accounts/retire_mailings/"
	unenrollPath         = "/api/enrollment/v1/unenroll/"
	retireNotesPath      = "/api/edxnotes/v1/retire_user/"
	retireMiscPath       = "/api/user/v1/accounts/retire_misc/"
	retirePath           = "/api/user/v1/accounts/retire/"
	deactivateLogoutPath = "/api/user/v1/accounts/deactivate_logout/"
)

// dateParamLayout is the creation-date range format the ledger accepts.
const dateParamLayout = "2006-01-02"

// TransitionValidator answers whether a ledger state change respects the
// configured pipeline order. The pipeline definition implements it.
type TransitionValidator interface {
	ValidTransition(from, to string) bool
}

// Client wraps the shared rest client with ledger and retirement calls.
type Client struct {
	rest        *restclient.Client
	logger      *slog.Logger
	transitions TransitionValidator
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithTransitionValidator enables adapter-side transition checking for
// UpdateState. Without it only the server-side check applies.
func WithTransitionValidator(v TransitionValidator) ClientOption {
	return func(c *Client) { c.transitions = v }
}

// NewClient wraps an authenticated rest client rooted at the LMS.
func NewClient(rest *restclient.Client, opts ...ClientOption) *Client {
	c := &Client{
		rest:   rest,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetStatus fetches the learner's current retirement row.
func (c *Client) GetStatus(ctx context.Context, username string) (*Learner, error) {
	var learner Learner
	_, err := c.rest.Get(ctx, fmt.Sprintf(retirementStatusPath, url.PathEscape(username)), nil, &learner)
	if err != nil {
		return nil, c.mapLedgerError(err, username)
	}
	return &learner, nil
}

// UpdateState transitions the learner's row to newState, appending message
// to the response log. Unless force is set, the transition must respect
// the pipeline order; anything else fails with ErrInvalidTransition before
// a write is attempted.
func (c *Client) UpdateState(ctx context.Context, username, newState, message string, force bool) (*Learner, error) {
	if !force && c.transitions != nil {
		current, err := c.GetStatus(ctx, username)
		if err != nil {
			return nil, err
		}
		if !c.transitions.ValidTransition(current.CurrentState.StateName, newState) {
			return nil, fmt.Errorf("%w: %s -> %s for %s",
				ErrInvalidTransition, current.CurrentState.StateName, newState, username)
		}
	}

	body := map[string]any{
		"username":  username,
		"new_state": newState,
		"response":  message,
	}
	if force {
		body["force"] = true
	}

	var updated Learner
	if _, err := c.rest.Patch(ctx, updateRetirementStatusPath, body, &updated); err != nil {
		return nil, c.mapLedgerError(err, username)
	}
	return &updated, nil
}

// LearnersToRetire lists learners awaiting retirement action: rows in
// PENDING or any queue state whose request is older than coolOffDays.
func (c *Client) LearnersToRetire(ctx context.Context, coolOffDays int, states []string) ([]Learner, error) {
	query := url.Values{}
	query.Set("cool_off_days", fmt.Sprintf("%d", coolOffDays))
	for _, state := range states {
		query.Add("states", state)
	}

	var learners []Learner
	if _, err := c.rest.Get(ctx, retirementQueuePath, query, &learners); err != nil {
		return nil, c.mapLedgerError(err, "")
	}
	return learners, nil
}

// ListByDateAndState lists rows in exactly state whose creation timestamp
// falls in [start, end], inclusive.
func (c *Client) ListByDateAndState(ctx context.Context, state string, start, end time.Time) ([]Learner, error) {
	query := url.Values{}
	query.Set("state", state)
	query.Set("start_date", start.Format(dateParamLayout))
	query.Set("end_date", end.Format(dateParamLayout))

	var learners []Learner
	if _, err := c.rest.Get(ctx, retirementsByDatePath, query, &learners); err != nil {
		return nil, c.mapLedgerError(err, "")
	}
	return learners, nil
}

// ReportingQueue lists the rows currently eligible for partner reporting.
func (c *Client) ReportingQueue(ctx context.Context) ([]Learner, error) {
	var learners []Learner
	if _, err := c.rest.Get(ctx, partnerReportPath, nil, &learners); err != nil {
		return nil, c.mapLedgerError(err, "")
	}
	return learners, nil
}

// FinalizePartnerReport drains the reporting queue for the current run.
// The ledger marks the returned rows as being reported and hands back the
// identity snapshots the per-partner files are built from.
func (c *Client) FinalizePartnerReport(ctx context.Context) ([]Learner, error) {
	var learners []Learner
	if _, err := c.rest.Post(ctx, partnerReportPath, nil, &learners); err != nil {
		return nil, c.mapLedgerError(err, "")
	}
	return learners, nil
}

// ClearReportingQueue removes exactly the named usernames from the
// reporting queue, after their reports are uploaded.
func (c *Client) ClearReportingQueue(ctx context.Context, usernames []string) (int, error) {
	body := map[string]any{"usernames": usernames}
	if _, err := c.rest.Post(ctx, partnerReportCleanupPath, body, nil); err != nil {
		return 0, c.mapLedgerError(err, "")
	}
	return len(usernames), nil
}

// BulkDelete physically removes the named rows. The ledger rejects the
// whole batch when any row is not COMPLETE; that surfaces as
// ErrNotComplete with no partial deletions.
func (c *Client) BulkDelete(ctx context.Context, usernames []string) (int, error) {
	body := map[string]any{"usernames": usernames}
	if _, err := c.rest.Post(ctx, retirementCleanupPath, body, nil); err != nil {
		var httpErr *restclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest {
			return 0, fmt.Errorf("%w: %s", ErrNotComplete, httpErr.Body)
		}
		return 0, c.mapLedgerError(err, "")
	}
	return len(usernames), nil
}

func (c *Client) mapLedgerError(err error, username string) error {
	switch {
	case restclient.IsNotFound(err):
		if username != "" {
			return fmt.Errorf("%w: %s", ErrLearnerNotFound, username)
		}
		return fmt.Errorf("%w: %v", ErrLearnerNotFound, err)
	case restclient.IsForbidden(err):
		return fmt.Errorf("%w: %v", ErrNotPermitted, err)
	default:
		return err
	}
}
