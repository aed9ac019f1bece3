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
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// SailthruBaseURL is the vendor's fixed API root.
const SailthruBaseURL = "https://api.sailthru.com"

const sailthruUserPath = "/user"

// Sailthru deletes the learner from the email-marketing platform by
// original email address. Requests are signed with the shared-secret
// digest scheme the vendor requires.
type Sailthru struct {
	rest   *restclient.Client
	key    string
	secret string
}

func NewSailthru(rest *restclient.Client, key, secret string) *Sailthru {
	return &Sailthru{rest: rest, key: key, secret: secret}
}

// DeleteUser removes the learner's email profile. A missing profile is
// reported by the vendor as an error payload with a 404; that means the
// learner never subscribed and counts as success.
func (s *Sailthru) DeleteUser(ctx context.Context, learner *lms.Learner) (string, error) {
	payload := map[string]any{
		"id":  learner.OriginalEmail,
		"key": "email",
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("api_key", s.key)
	query.Set("format", "json")
	query.Set("json", string(encoded))
	query.Set("sig", s.sign(query))

	text, err := s.rest.Do(ctx, restclient.Request{
		Method: http.MethodDelete,
		Path:   sailthruUserPath,
		Query:  query,
	})
	if err != nil {
		if restclient.IsNotFound(err) {
			return "no email profile for user, treated as success", nil
		}
		return "", err
	}
	return text, nil
}

// sign computes the vendor's signature: the md5 hex digest of the shared
// secret concatenated with every parameter value in sorted order.
func (s *Sailthru) sign(query url.Values) string {
	values := make([]string, 0, len(query))
	for _, vs := range query {
		values = append(values, vs...)
	}
	sort.Strings(values)

	payload := s.secret
	for _, v := range values {
		payload += v
	}
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
