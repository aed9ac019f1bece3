// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers holds the clients for the non-LMS services the
// pipeline erases data from: the commerce and credentialing platforms
// (OAuth2, same identity provider as the LMS) and the analytics, email,
// and engagement vendors (their own auth schemes).
//
// Every operation follows the service-call contract: 2xx is success, 404
// is success where the service is optional, 429 and non-504 5xx retry
// inside the rest client, anything else is fatal.
package providers

import (
	"context"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

const (
	ecommerceRetirePath   = "/api/v2/user/retire/"
	credentialsRetirePath = "/user/retire/"
)

// Ecommerce retires the learner's commerce identity.
type Ecommerce struct {
	rest *restclient.Client
}

func NewEcommerce(rest *restclient.Client) *Ecommerce {
	return &Ecommerce{rest: rest}
}

// RetireLearner erases the learner's order history PII and hashes their
// commerce account identity.
func (e *Ecommerce) RetireLearner(ctx context.Context, learner *lms.Learner) (string, error) {
	return e.rest.Post(ctx, ecommerceRetirePath,
		map[string]string{"username": learner.OriginalUsername}, nil)
}

// Credentials retires the learner's credentialing identity.
type Credentials struct {
	rest *restclient.Client
}

func NewCredentials(rest *restclient.Client) *Credentials {
	return &Credentials{rest: rest}
}

// RetireLearner erases the learner from issued-credential records.
func (c *Credentials) RetireLearner(ctx context.Context, learner *lms.Learner) (string, error) {
	return c.rest.Post(ctx, credentialsRetirePath,
		map[string]string{"username": learner.OriginalUsername}, nil)
}
