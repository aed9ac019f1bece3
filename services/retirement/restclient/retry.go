// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package restclient

import (
	"math/rand"
	"time"
)

// RetryConfig configures the exponential-backoff policy applied to
// transient failures (429 and non-504 5xx).
type RetryConfig struct {
	// InitialBackoff is the wait before the first retry. Default: 1s
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries. Default: 60s
	MaxBackoff time.Duration

	// BackoffFactor is the exponential multiplier. Default: 2.0
	BackoffFactor float64

	// JitterFactor is the maximum jitter as a fraction of backoff (0-1),
	// added to prevent thundering herd. Default: 0.2
	JitterFactor float64

	// MaxElapsed bounds the total time spent retrying. Default: 10m
	MaxElapsed time.Duration
}

// GatewayRetryConfig configures the constant-delay policy applied only to
// 504 responses. The budget is intentionally much smaller than the
// transient policy: a hung downstream whose side effect may already have
// landed should not be hammered.
type GatewayRetryConfig struct {
	// Delay is the fixed wait between attempts. Default: 30s
	Delay time.Duration

	// MaxAttempts is the total number of attempts (including the first).
	// Default: 3
	MaxAttempts int
}

// DefaultRetryConfig returns the transient-failure policy defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     60 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
		MaxElapsed:     10 * time.Minute,
	}
}

// DefaultGatewayRetryConfig returns the 504 policy defaults.
func DefaultGatewayRetryConfig() GatewayRetryConfig {
	return GatewayRetryConfig{
		Delay:       30 * time.Second,
		MaxAttempts: 3,
	}
}

// next advances the backoff and returns the jittered wait for this retry.
func (c RetryConfig) next(backoff time.Duration) (wait, nextBackoff time.Duration) {
	wait = backoff
	if c.JitterFactor > 0 {
		jitter := time.Duration(rand.Float64() * c.JitterFactor * float64(backoff))
		wait += jitter
	}
	nextBackoff = time.Duration(float64(backoff) * c.BackoffFactor)
	if nextBackoff > c.MaxBackoff {
		nextBackoff = c.MaxBackoff
	}
	return wait, nextBackoff
}
