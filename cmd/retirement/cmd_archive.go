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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianRetire/services/retirement/archive"
)

// runArchiveCommand archives old COMPLETE retirement rows to S3 and then
// deletes them from the ledger.
func runArchiveCommand(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	cfg := mustLoadConfig()

	if cfg.S3Archive.BucketName == "" || cfg.S3Archive.Region == "" {
		fail(exitBadConfig, "s3_archive.bucket_name and s3_archive.region are required for archiving", nil)
	}
	if archiveCoolOffDays < 0 {
		fail(exitBadConfig, "cool-off-days must not be negative", nil)
	}

	ledger, err := newLedger(ctx, cfg, nil)
	if err != nil {
		fail(exitSetupFailed, "failed to build LMS client", err)
	}
	s3Client, err := archive.NewS3Client(ctx, cfg.S3Archive)
	if err != nil {
		fail(exitSetupFailed, "failed to build S3 client", err)
	}

	archiver := archive.New(ledger, s3Client, cfg.S3Archive.BucketName, logger)
	count, err := archiver.Run(ctx, archiveCoolOffDays)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrFetching):
			fail(exitFetchingFailed, "failed to fetch learners to archive", err)
		case errors.Is(err, archive.ErrDeleting):
			fail(exitDeletingFailed, "archive uploaded but ledger delete failed", err)
		default:
			fail(exitArchivingFailed, "failed to archive learners", err)
		}
	}

	logger.Info("archive and cleanup complete", slog.Int("learners", count))
	exit(exitOK)
}
