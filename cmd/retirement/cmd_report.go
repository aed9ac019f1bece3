// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRetire/services/retirement/config"
	"github.com/AleutianAI/AleutianRetire/services/retirement/drive"
	"github.com/AleutianAI/AleutianRetire/services/retirement/report"
)

// runReportCommand generates per-partner deletion reports, uploads them
// to the shared Drive folder, and clears the reporting queue.
func runReportCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	path := resolveConfigPath()
	if path == "" {
		fail(exitNoConfig, "no config file specified; use --config or RETIREMENT_CONFIG", nil)
	}
	secrets := resolveGoogleSecrets()
	if secrets == "" {
		fail(exitNoSecrets, "no Google secrets file specified; use --google-secrets or RETIREMENT_GOOGLE_SECRETS", nil)
	}

	cfg, secretsPath, err := config.LoadWithDrive(path, secrets)
	if err != nil {
		code, msg := reportConfigExit(err)
		fail(code, msg, err)
	}

	ledger, err := newLedger(ctx, cfg, nil)
	if err != nil {
		fail(exitSetupFailed, "failed to build LMS client", err)
	}
	driveClient, err := drive.NewClient(ctx, secretsPath)
	if err != nil {
		fail(exitSetupFailed, "failed to build Drive client", err)
	}

	reporter := report.New(ledger, driveClient, report.Config{
		OrgPartnerMapping:   cfg.OrgPartnerMapping,
		DrivePartnersFolder: cfg.DrivePartnersFolder,
		PlatformName:        cfg.PartnerReportPlatformName,
		Prefix:              cfg.PartnerReportPrefix,
		BlacklistedDomains:  cfg.BlacklistedNotificationDomains,
	}, logger)

	if err := reporter.Run(ctx, reportOutputDir); err != nil {
		code, msg := reportExit(err)
		fail(code, msg, err)
	}

	logger.Info("partner reports complete")
	exit(exitOK)
}

// reportConfigExit maps config-load errors onto the documented codes.
func reportConfigExit(err error) (int, string) {
	switch {
	case errors.Is(err, config.ErrUnreadableConfig):
		return exitNoConfig, "failed to read config file"
	case errors.Is(err, config.ErrUnreadableSecrets):
		return exitNoSecrets, "failed to read Google secrets file"
	case errors.Is(err, config.ErrMalformedSecrets):
		return exitBadSecrets, "failed to parse Google secrets file"
	default:
		return exitBadConfig, "failed to parse config file"
	}
}

// reportExit maps report-run errors onto the documented codes.
func reportExit(err error) (int, string) {
	var unknownOrg *report.UnknownOrgError
	switch {
	case errors.As(err, &unknownOrg):
		return exitUnknownOrg, "learners with organizations not in org_partner_mapping"
	case errors.Is(err, report.ErrFetchingLearners):
		return exitFetchingFailed, "failed to fetch the reporting queue"
	case errors.Is(err, report.ErrDriveListing), errors.Is(err, report.ErrMissingPartnerFolder):
		return exitDriveListing, "failed to resolve partner folders in Drive"
	case errors.Is(err, report.ErrDriveUpload):
		return exitDriveUpload, "failed to upload partner reports to Drive"
	case errors.Is(err, report.ErrCleanup):
		return exitCleanupFailed, "failed to clear the reporting queue"
	default:
		return exitReportingFailed, "failed to generate partner reports"
	}
}
