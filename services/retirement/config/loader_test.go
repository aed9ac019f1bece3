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

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
client_id: the-id
client_secret: the-secret
base_urls:
  lms: https://lms.example.com
  ecommerce: https://ecommerce.example.com
retirement_pipeline:
  - [RETIRING_FORUMS, FORUMS_COMPLETE, LMS, retirement_retire_forum]
  - [RETIRING_LMS, LMS_COMPLETE, LMS, retirement_lms_retire]
org_partner_mapping:
  org1: "TéstX"
drive_partners_folder: folder-id-123
partner_report_platform_name: testplatform
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "the-id", cfg.ClientID)
	assert.Equal(t, "https://lms.example.com", cfg.BaseURLs.LMS)
	assert.Len(t, cfg.RetirementPipeline, 2)
	assert.Equal(t, DefaultPartnerReportPrefix, cfg.PartnerReportPrefix,
		"prefix defaults when unset")
}

func TestLoad_NormalizesPartnerNames(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	// The YAML spells the partner with a combining accent; the loader
	// stores the NFKC composed form.
	assert.Equal(t, "TéstX", cfg.OrgPartnerMapping["org1"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrUnreadableConfig)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "client_id: [unclosed"))
	assert.ErrorIs(t, err, ErrMalformedConfig)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, `
client_id: the-id
base_urls:
  lms: https://lms.example.com
retirement_pipeline:
  - [A, B, LMS, m]
`))
	assert.ErrorIs(t, err, ErrMalformedConfig)
}

func TestLoad_BadPipelineTuples(t *testing.T) {
	tests := []struct {
		name  string
		tuple string
	}{
		{"three elements", `[RETIRING_FORUMS, FORUMS_COMPLETE, LMS]`},
		{"five elements", `[A, B, LMS, m, extra]`},
		{"empty element", `[A, B, "", m]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, `
client_id: the-id
client_secret: the-secret
base_urls:
  lms: https://lms.example.com
retirement_pipeline:
  - `+tt.tuple+`
`))
			assert.ErrorIs(t, err, ErrMalformedConfig)
		})
	}
}

func TestHasService(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.True(t, cfg.HasService("LMS"))
	assert.True(t, cfg.HasService("ECOMMERCE"))
	assert.False(t, cfg.HasService("CREDENTIALS"))
	assert.False(t, cfg.HasService("SEGMENT"), "segment needs a URL and a token")
	assert.False(t, cfg.HasService("BOGUS"))
}

func TestLoadWithDrive(t *testing.T) {
	secrets := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(secrets, []byte(`{"type":"service_account"}`), 0o600))

	cfg, secretsPath, err := LoadWithDrive(writeConfig(t, validYAML), secrets)
	require.NoError(t, err)
	assert.Equal(t, secrets, secretsPath)
	assert.Equal(t, "folder-id-123", cfg.DrivePartnersFolder)
}

func TestLoadWithDrive_Failures(t *testing.T) {
	goodSecrets := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(goodSecrets, []byte(`{}`), 0o600))

	t.Run("missing org mapping", func(t *testing.T) {
		path := writeConfig(t, `
client_id: the-id
client_secret: the-secret
base_urls:
  lms: https://lms.example.com
retirement_pipeline:
  - [A, B, LMS, m]
drive_partners_folder: folder-id
`)
		_, _, err := LoadWithDrive(path, goodSecrets)
		assert.ErrorIs(t, err, ErrMalformedConfig)
	})

	t.Run("missing secrets file", func(t *testing.T) {
		_, _, err := LoadWithDrive(writeConfig(t, validYAML), filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, ErrUnreadableSecrets)
	})

	t.Run("malformed secrets file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
		_, _, err := LoadWithDrive(writeConfig(t, validYAML), bad)
		assert.ErrorIs(t, err, ErrMalformedSecrets)
	})
}
