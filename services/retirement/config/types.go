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

// Config is the full retirement environment configuration. One immutable
// value is loaded per invocation and handed to each component at
// construction; components never reach back into a global.
type Config struct {
	// OAuth2 client credentials issued by the LMS identity provider.
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`

	// BaseURLs maps service keys to their root URLs. LMS doubles as the
	// identity provider, so it is the only required entry.
	BaseURLs BaseURLs `yaml:"base_urls" validate:"required"`

	// RetirementPipeline is the ordered list of
	// [start-state, end-state, service-key, method-key] tuples.
	RetirementPipeline [][]string `yaml:"retirement_pipeline" validate:"required,min=1"`

	// OrgPartnerMapping maps an organization tag on a retirement row to the
	// display name of the partner that receives the report for it.
	OrgPartnerMapping map[string]string `yaml:"org_partner_mapping"`

	// DrivePartnersFolder is the Drive folder id whose subfolders are the
	// per-partner report destinations.
	DrivePartnersFolder string `yaml:"drive_partners_folder"`

	// PartnerReportPlatformName appears in report filenames.
	PartnerReportPlatformName string `yaml:"partner_report_platform_name"`

	// PartnerReportPrefix is the leading token of report filenames.
	PartnerReportPrefix string `yaml:"partner_report_prefix"`

	// BlacklistedNotificationDomains are email domain suffixes that are
	// never tagged in partner notification comments (our own staff).
	BlacklistedNotificationDomains []string `yaml:"blacklisted_notification_domains"`

	S3Archive S3ArchiveConfig `yaml:"s3_archive"`

	SegmentAuthToken     string `yaml:"segment_auth_token"`
	SegmentWorkspaceSlug string `yaml:"segment_workspace_slug"`

	AmplitudeAPIKey    string `yaml:"amplitude_api_key"`
	AmplitudeSecretKey string `yaml:"amplitude_secret_key"`

	SailthruKey    string `yaml:"sailthru_key"`
	SailthruSecret string `yaml:"sailthru_secret"`

	BrazeAPIKey      string `yaml:"braze_api_key"`
	BrazeInstanceURL string `yaml:"braze_instance_url"`

	// FetchEcommerceSegmentID includes the commerce-specific analytics id
	// in the identifier set sent to the analytics bulk delete.
	FetchEcommerceSegmentID bool `yaml:"fetch_ecommerce_segment_id"`
}

type BaseURLs struct {
	LMS         string `yaml:"lms" validate:"required,url"`
	Ecommerce   string `yaml:"ecommerce" validate:"omitempty,url"`
	Credentials string `yaml:"credentials" validate:"omitempty,url"`
	Segment     string `yaml:"segment" validate:"omitempty,url"`
}

type S3ArchiveConfig struct {
	BucketName string `yaml:"bucket_name"`
	Region     string `yaml:"region"`
	// AccessKey/SecretKey are optional. When empty the default AWS
	// credential chain is used instead.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ForService returns the configured base URL for a pipeline service key,
// or the empty string when that service is not configured.
func (b BaseURLs) ForService(key string) string {
	switch key {
	case "LMS":
		return b.LMS
	case "ECOMMERCE":
		return b.Ecommerce
	case "CREDENTIALS":
		return b.Credentials
	case "SEGMENT":
		return b.Segment
	}
	return ""
}

// HasService reports whether the credentials or URLs needed to build a
// client for the given pipeline service key are present. A pipeline step
// that names an unconfigured service is a setup failure, not a skip.
func (c *Config) HasService(key string) bool {
	switch key {
	case "LMS":
		return c.BaseURLs.LMS != ""
	case "ECOMMERCE":
		return c.BaseURLs.Ecommerce != ""
	case "CREDENTIALS":
		return c.BaseURLs.Credentials != ""
	case "SEGMENT":
		return c.BaseURLs.Segment != "" && c.SegmentAuthToken != ""
	case "AMPLITUDE":
		return c.AmplitudeAPIKey != "" && c.AmplitudeSecretKey != ""
	case "SAILTHRU":
		return c.SailthruKey != ""
	case "BRAZE":
		return c.BrazeAPIKey != "" && c.BrazeInstanceURL != ""
	}
	return false
}
