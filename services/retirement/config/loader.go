// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the YAML configuration shared by all
// retirement entrypoints.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// DefaultPartnerReportPrefix is used when partner_report_prefix is unset.
const DefaultPartnerReportPrefix = "user_retirement"

// Load reads the YAML config at path, validates it, and normalizes partner
// names to NFKC so they compare equal to the folder names Drive returns.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableConfig, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedConfig, path, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}

	for _, step := range cfg.RetirementPipeline {
		if len(step) != 4 {
			return nil, fmt.Errorf("%w: pipeline step %v must have exactly 4 elements", ErrMalformedConfig, step)
		}
		for _, part := range step {
			if part == "" {
				return nil, fmt.Errorf("%w: pipeline step %v has an empty element", ErrMalformedConfig, step)
			}
		}
	}

	// Accented partner names arrive in whatever composition the YAML file
	// used; Drive may return the same name composed differently.
	for org, partner := range cfg.OrgPartnerMapping {
		cfg.OrgPartnerMapping[org] = norm.NFKC.String(partner)
	}

	if cfg.PartnerReportPrefix == "" {
		cfg.PartnerReportPrefix = DefaultPartnerReportPrefix
	}

	return &cfg, nil
}

// LoadWithDrive loads the config and additionally checks the Google
// service-account secrets file: it must exist, parse as JSON, and the
// report-specific config keys must be present. The secrets path is
// recorded on the returned config for the Drive client to consume.
func LoadWithDrive(path, googleSecretsPath string) (*Config, string, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}

	if len(cfg.OrgPartnerMapping) == 0 {
		return nil, "", fmt.Errorf("%w: no org_partner_mapping in config, or it is empty", ErrMalformedConfig)
	}
	if cfg.DrivePartnersFolder == "" {
		return nil, "", fmt.Errorf("%w: no drive_partners_folder in config, or it is empty", ErrMalformedConfig)
	}

	raw, err := os.ReadFile(googleSecretsPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUnreadableSecrets, googleSecretsPath, err)
	}
	// Parse up front so a bad secrets file fails before any LMS work.
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrMalformedSecrets, googleSecretsPath, err)
	}

	return cfg, googleSecretsPath, nil
}
