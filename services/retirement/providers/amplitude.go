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
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// AmplitudeBaseURL is the vendor's fixed API root.
const AmplitudeBaseURL = "https://amplitude.com"

const amplitudeDeletionsPath = "/api/2/deletions/users"

// deletionRequester appears in the vendor's audit trail for each request.
const deletionRequester = "retirement-pipeline"

// Amplitude deletes learners from the product-analytics store by platform
// user id, authenticating with an API key/secret pair via basic auth.
type Amplitude struct {
	rest      *restclient.Client
	apiKey    string
	secretKey string
}

func NewAmplitude(rest *restclient.Client, apiKey, secretKey string) *Amplitude {
	return &Amplitude{rest: rest, apiKey: apiKey, secretKey: secretKey}
}

// DeleteUser schedules deletion of all events and profile data for the
// learner's platform user id. Already-deleted ids are accepted, which
// keeps the operation re-runnable.
func (a *Amplitude) DeleteUser(ctx context.Context, learner *lms.Learner) (string, error) {
	body := map[string]any{
		"user_ids":          []string{strconv.FormatInt(learner.User.ID, 10)},
		"requester":         deletionRequester,
		"ignore_invalid_id": "true",
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(a.apiKey + ":" + a.secretKey))
	header := http.Header{}
	header.Set("Authorization", "Basic "+credentials)

	return a.rest.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   amplitudeDeletionsPath,
		Body:   body,
		Header: header,
	})
}
