// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive moves finished retirement rows out of the ledger: rows
// that have sat in COMPLETE for the cool-off period are serialized one
// JSON object per line, gzipped, uploaded to the archive bucket, and only
// then bulk-deleted. No row is ever physically deleted without a durable
// copy in object storage first.
package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/AleutianRetire/services/retirement/config"
	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/pipeline"
)

var tracer = otel.Tracer("aleutian.retirement.archive")

// DefaultCoolOffDays is 7 days of pre-retirement queue time plus 30 days
// post-retirement retention.
const DefaultCoolOffDays = 37

// earliestRequestDate is a bogus "earliest possible value"; the ledger's
// range query requires a lower bound.
var earliestRequestDate = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

// Ledger is the slice of the retirement ledger the archiver needs.
type Ledger interface {
	ListByDateAndState(ctx context.Context, state string, start, end time.Time) ([]lms.Learner, error)
	BulkDelete(ctx context.Context, usernames []string) (int, error)
}

// ObjectStore is the S3 surface the archiver needs.
type ObjectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// record is one archived row. Timestamps are written in the form the
// analytics query engine treats as a datetime: space separator, +00:00
// offset.
type record struct {
	UserID                int64  `json:"user_id"`
	OriginalUsername      string `json:"original_username"`
	OriginalEmail         string `json:"original_email"`
	OriginalName          string `json:"original_name"`
	RetiredUsername       string `json:"retired_username"`
	RetiredEmail          string `json:"retired_email"`
	RetirementRequestDate string `json:"retirement_request_date"`
	LastModifiedDate      string `json:"last_modified_date"`
}

// Archiver runs the archive-and-cleanup job.
type Archiver struct {
	ledger Ledger
	store  ObjectStore
	bucket string
	logger *slog.Logger

	now func() time.Time
}

// New builds an Archiver. A nil logger falls back to slog.Default().
func New(ledger Ledger, store ObjectStore, bucket string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		ledger: ledger,
		store:  store,
		bucket: bucket,
		logger: logger,
		now:    time.Now,
	}
}

// NewS3Client builds the real S3 client from the archive config. When no
// static keys are configured the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3ArchiveConfig) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Run archives and deletes every COMPLETE row whose last modification is
// at least coolOffDays old. Returns the number of rows cleaned up.
func (a *Archiver) Run(ctx context.Context, coolOffDays int) (int, error) {
	ctx, span := tracer.Start(ctx, "retirement.archive_and_cleanup")
	defer span.End()

	now := a.now().UTC()
	cutoff := now.AddDate(0, 0, -coolOffDays)

	a.logger.Info("fetching learners to archive",
		slog.String("state", pipeline.StateComplete),
		slog.Time("modified_before", cutoff),
	)

	candidates, err := a.ledger.ListByDateAndState(ctx, pipeline.StateComplete, earliestRequestDate, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFetching, err)
	}

	// The range query filters on creation date; the cool-off is measured
	// against the last modification, so filter here.
	learners := make([]lms.Learner, 0, len(candidates))
	for _, learner := range candidates {
		modified, err := parseLedgerTime(learner.Modified)
		if err != nil {
			return 0, fmt.Errorf("%w: row %d has unparseable modified time %q",
				ErrFetching, learner.ID, learner.Modified)
		}
		if modified.Before(cutoff) {
			learners = append(learners, learner)
		}
	}

	if len(learners) == 0 {
		a.logger.Info("no learners ready for archival")
		return 0, nil
	}

	if err := a.upload(ctx, now, learners); err != nil {
		return 0, err
	}

	usernames := make([]string, 0, len(learners))
	for _, learner := range learners {
		usernames = append(usernames, learner.OriginalUsername)
	}
	if _, err := a.ledger.BulkDelete(ctx, usernames); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeleting, err)
	}

	a.logger.Info("archive and cleanup complete", slog.Int("learners", len(learners)))
	return len(learners), nil
}

// upload gzips the JSONL payload and writes it under a YYYY/MM/ prefix.
// The delete only happens after this returns without error.
func (a *Archiver) upload(ctx context.Context, now time.Time, learners []lms.Learner) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, learner := range learners {
		rec := record{
			UserID:                learner.User.ID,
			OriginalUsername:      learner.OriginalUsername,
			OriginalEmail:         learner.OriginalEmail,
			OriginalName:          learner.OriginalName,
			RetiredUsername:       learner.RetiredUsername,
			RetiredEmail:          learner.RetiredEmail,
			RetirementRequestDate: formatQueryableTime(learner.Created),
			LastModifiedDate:      formatQueryableTime(learner.Modified),
		}
		if err := enc.Encode(&rec); err != nil {
			return fmt.Errorf("%w: %v", ErrArchiving, err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiving, err)
	}

	key := fmt.Sprintf("%s/retirement_archive_%s.json.gz",
		now.Format("2006/01"), now.Format("2006_01_02_15_04_05"))

	a.logger.Info("archiving retirements",
		slog.Int("learners", len(learners)),
		slog.String("bucket", a.bucket),
		slog.String("key", key),
	)

	_, err := a.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiving, err)
	}
	return nil
}

// parseLedgerTime accepts the ledger's RFC 3339 timestamps with or
// without fractional seconds.
func parseLedgerTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Parse(time.RFC3339, value)
	}
	return t, nil
}

// formatQueryableTime rewrites an RFC 3339 timestamp so the analytics
// query engine reads it as a datetime: space separator, explicit +00:00
// offset instead of a trailing Z.
func formatQueryableTime(value string) string {
	out := strings.Replace(value, "T", " ", 1)
	if strings.HasSuffix(out, "Z") {
		out = strings.TrimSuffix(out, "Z") + "+00:00"
	}
	return out
}
