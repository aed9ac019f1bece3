// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// Segment issues suppress-with-delete regulations against the analytics
// workspace. A regulation both erases historical events for the listed
// identifiers and suppresses future ones.
type Segment struct {
	rest          *restclient.Client
	authToken     string
	workspaceSlug string

	// includeEcommerceID adds the commerce-specific analytics id to the
	// identifier set when the ledger row carries one.
	includeEcommerceID bool
}

func NewSegment(rest *restclient.Client, authToken, workspaceSlug string, includeEcommerceID bool) *Segment {
	return &Segment{
		rest:               rest,
		authToken:          authToken,
		workspaceSlug:      workspaceSlug,
		includeEcommerceID: includeEcommerceID,
	}
}

// identifiers collects every analytics id the learner is known by.
func (s *Segment) identifiers(learner *lms.Learner) []string {
	ids := []string{strconv.FormatInt(learner.User.ID, 10)}
	if s.includeEcommerceID && learner.EcommerceSegmentID != "" {
		ids = append(ids, learner.EcommerceSegmentID)
	}
	return ids
}

// DeleteAndSuppress regulates a single learner. The bulk form below is
// what the pipeline binds; this wrapper keeps the operation signature.
func (s *Segment) DeleteAndSuppress(ctx context.Context, learner *lms.Learner) (string, error) {
	return s.DeleteAndSuppressAll(ctx, []*lms.Learner{learner})
}

// DeleteAndSuppressAll submits one regulation covering every identifier of
// every listed learner.
func (s *Segment) DeleteAndSuppressAll(ctx context.Context, learners []*lms.Learner) (string, error) {
	var values []string
	for _, learner := range learners {
		values = append(values, s.identifiers(learner)...)
	}

	body := map[string]any{
		"regulation_type": "Suppress_With_Delete",
		"attributes": map[string]any{
			"name":   "userId",
			"values": values,
		},
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.authToken)

	return s.rest.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v1beta/workspaces/%s/regulations", s.workspaceSlug),
		Body:   body,
		Header: header,
	})
}
