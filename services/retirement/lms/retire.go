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
	"log/slog"

	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// isOptionalAbsent reports whether err is the well-known "user never
// existed here" response from an optional subsystem.
func isOptionalAbsent(err error) bool {
	return restclient.IsNotFound(err)
}

// forumAbsentResponse is the synthetic success recorded when the forum
// service has no record of the user (or is not deployed at all).
const forumAbsentResponse = "no forum record for user, treated as success"

func usernameBody(learner *Learner) map[string]string {
	return map[string]string{"username": learner.OriginalUsername}
}

// RetireForum erases the learner's forum presence. The forum service is
// optional: a 404 means the user never posted there and counts as done.
func (c *Client) RetireForum(ctx context.Context, learner *Learner) (string, error) {
	text, err := c.rest.Post(ctx, retireForumPath, usernameBody(learner), nil)
	if err != nil {
		if isOptionalAbsent(err) {
			c.logger.Info("forum service has no record of user",
				slog.String("username", learner.OriginalUsername))
			return forumAbsentResponse, nil
		}
		return "", err
	}
	return text, nil
}

// RetireMailings removes the learner from all mailing lists. The mailing
// backend is the service most prone to hanging behind its gateway, so this
// call leans on the client's 504 policy rather than any special handling.
func (c *Client) RetireMailings(ctx context.Context, learner *Learner) (string, error) {
	return c.rest.Post(ctx, retireMailingsPath, usernameBody(learner), nil)
}

// Unenroll removes the learner from every course.
func (c *Client) Unenroll(ctx context.Context, learner *Learner) (string, error) {
	return c.rest.Post(ctx, unenrollPath, usernameBody(learner), nil)
}

// RetireNotes erases the learner's student notes. The notes service is
// optional in some environments, so absence counts as done.
func (c *Client) RetireNotes(ctx context.Context, learner *Learner) (string, error) {
	text, err := c.rest.Post(ctx, retireNotesPath, usernameBody(learner), nil)
	if err != nil {
		if isOptionalAbsent(err) {
			return "no notes record for user, treated as success", nil
		}
		return "", err
	}
	return text, nil
}

// RetireMisc deletes, blanks, or one-way hashes miscellaneous PII held in
// platform tables outside the main account record.
func (c *Client) RetireMisc(ctx context.Context, learner *Learner) (string, error) {
	return c.rest.Post(ctx, retireMiscPath, usernameBody(learner), nil)
}

// Retire performs the final platform retirement: all remaining personal
// information is deleted, blanked, or hashed and the retired aliases are
// written.
func (c *Client) Retire(ctx context.Context, learner *Learner) (string, error) {
	return c.rest.Post(ctx, retirePath, usernameBody(learner), nil)
}

// DeactivateAndLogout deactivates the account and revokes all sessions.
// Runs before any data erasure so the user cannot race the pipeline.
func (c *Client) DeactivateAndLogout(ctx context.Context, learner *Learner) (string, error) {
	return c.rest.Post(ctx, deactivateLogoutPath, usernameBody(learner), nil)
}

// EnqueuePartnerReport puts the learner on the partner reporting queue
// with a snapshot of their original identity.
func (c *Client) EnqueuePartnerReport(ctx context.Context, learner *Learner) (string, error) {
	body := map[string]any{
		"username":       learner.OriginalUsername,
		"original_email": learner.OriginalEmail,
		"original_name":  learner.OriginalName,
	}
	return c.rest.Put(ctx, partnerReportPath, body, nil)
}
