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
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

const brazeDeletePath = "/users/delete"

// Braze deletes the learner from the engagement platform by external id
// (the platform user id).
type Braze struct {
	rest   *restclient.Client
	apiKey string
}

func NewBraze(rest *restclient.Client, apiKey string) *Braze {
	return &Braze{rest: rest, apiKey: apiKey}
}

// DeleteUser removes the learner's engagement profile. Unknown external
// ids are reported in the response body, not as an error, so repeated
// invocations stay no-ops.
func (b *Braze) DeleteUser(ctx context.Context, learner *lms.Learner) (string, error) {
	body := map[string]any{
		"external_ids": []string{strconv.FormatInt(learner.User.ID, 10)},
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+b.apiKey)

	return b.rest.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   brazeDeletePath,
		Body:   body,
		Header: header,
	})
}
