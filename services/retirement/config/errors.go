// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "errors"

// Sentinel errors for configuration loading.
var (
	// ErrUnreadableConfig is returned when the config file cannot be read.
	ErrUnreadableConfig = errors.New("config file unreadable")

	// ErrMalformedConfig is returned when the config file parses but fails
	// validation, or does not parse at all.
	ErrMalformedConfig = errors.New("config file malformed")

	// ErrUnreadableSecrets is returned when the Google secrets file cannot
	// be read.
	ErrUnreadableSecrets = errors.New("secrets file unreadable")

	// ErrMalformedSecrets is returned when the Google secrets file is not
	// valid JSON.
	ErrMalformedSecrets = errors.New("secrets file malformed")
)
