// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report produces the per-partner CSV reports of retired
// learners, delivers them to each partner's shared-drive folder, notifies
// the partner's external collaborators, and clears the reporting queue.
//
// The run is a linear pipeline with explicit checkpoints, and the
// partial-failure policy is deliberate: file generation failures abort
// before any upload; upload failures abort before queue cleanup so the
// same rows are retried next run; comment failures only warn, because a
// missed notification beats re-uploading duplicate files.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/text/unicode/norm"

	"github.com/AleutianAI/AleutianRetire/services/retirement/drive"
	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
)

var tracer = otel.Tracer("aleutian.retirement.report")

// csvHeader is the fixed column order every partner file uses.
var csvHeader = []string{"user_id", "original_username", "original_email", "original_name", "deletion_completed"}

const reportMimeType = "text/csv"

// LedgerQueue is the slice of the ledger the reporter needs.
// FinalizePartnerReport drains the reporting queue for this run;
// ClearReportingQueue removes the reported rows once their files are up.
type LedgerQueue interface {
	FinalizePartnerReport(ctx context.Context) ([]lms.Learner, error)
	ClearReportingQueue(ctx context.Context, usernames []string) (int, error)
}

// DriveAPI is the shared-drive surface the reporter needs.
type DriveAPI interface {
	ListSubfolders(ctx context.Context, parentID string) ([]drive.Folder, error)
	CreateFileInFolder(ctx context.Context, folderID, name string, content io.Reader, mimeType string) (string, error)
	ListPermissions(ctx context.Context, fileID string) ([]drive.Permission, error)
	CreateComment(ctx context.Context, fileID, content string) error
}

// Config carries the report-specific configuration, already validated.
// OrgPartnerMapping values must be NFKC-normalized (config.Load does
// this) so they compare equal to normalized Drive folder names.
type Config struct {
	OrgPartnerMapping   map[string]string
	DrivePartnersFolder string
	PlatformName        string
	Prefix              string
	// BlacklistedDomains are email domain suffixes never tagged in
	// notification comments.
	BlacklistedDomains []string
}

// Reporter runs the partner report.
type Reporter struct {
	queue  LedgerQueue
	drive  DriveAPI
	cfg    Config
	logger *slog.Logger

	// now is swapped in tests to pin the report date.
	now func() time.Time
}

// New builds a Reporter. A nil logger falls back to slog.Default().
func New(queue LedgerQueue, driveAPI DriveAPI, cfg Config, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		queue:  queue,
		drive:  driveAPI,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one full report cycle, writing the CSV files under
// outputDir before uploading them.
func (r *Reporter) Run(ctx context.Context, outputDir string) error {
	ctx, span := tracer.Start(ctx, "retirement.partner_report")
	defer span.End()

	learners, err := r.queue.FinalizePartnerReport(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchingLearners, err)
	}
	if len(learners) == 0 {
		r.logger.Info("reporting queue is empty, nothing to report")
		return nil
	}

	partners, usernames, err := r.groupByPartner(learners)
	if err != nil {
		return err
	}

	filenames, err := r.generateFiles(partners, outputDir)
	if err != nil {
		return err
	}

	folderIDs, err := r.partnerFolderMap(ctx)
	if err != nil {
		return err
	}

	fileIDs, err := r.uploadAll(ctx, filenames, folderIDs)
	if err != nil {
		return err
	}

	// Checkpoint: every file is uploaded. Comment failures from here on
	// must not stop the queue cleanup.
	r.commentAll(ctx, fileIDs, folderIDs)

	if _, err := r.queue.ClearReportingQueue(ctx, usernames); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}

	r.logger.Info("all reports completed and uploaded",
		slog.Int("partners", len(partners)),
		slog.Int("learners", len(usernames)),
	)
	return nil
}

// groupByPartner buckets learners by partner display name. A learner with
// several orgs appears in each corresponding partner's bucket. Any org
// without a partner mapping aborts the run naming every unknown org.
func (r *Reporter) groupByPartner(learners []lms.Learner) (map[string][]lms.Learner, []string, error) {
	partners := make(map[string][]lms.Learner)
	usernames := make([]string, 0, len(learners))
	var unknown []string

	for _, learner := range learners {
		usernames = append(usernames, learner.OriginalUsername)
		for _, org := range learner.Orgs {
			partner, ok := r.cfg.OrgPartnerMapping[org]
			if !ok {
				unknown = append(unknown, org)
				continue
			}
			partners[partner] = append(partners[partner], learner)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, nil, &UnknownOrgError{Orgs: unknown}
	}
	return partners, usernames, nil
}

// reportFilename is <prefix>_<platform>_<partner>_<YYYY-MM-DD>.csv.
func (r *Reporter) reportFilename(partner string) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv",
		r.cfg.Prefix, r.cfg.PlatformName, partner, r.now().UTC().Format("2006-01-02"))
}

// generateFiles writes one CSV per partner and returns partner -> path.
// All files are generated before anything is uploaded, minimizing the
// cases where files must be overwritten on the drive.
func (r *Reporter) generateFiles(partners map[string][]lms.Learner, outputDir string) (map[string]string, error) {
	filenames := make(map[string]string, len(partners))

	for partner, learners := range partners {
		r.logger.Info("starting report for partner",
			slog.String("partner", partner),
			slog.Int("learners", len(learners)),
		)

		outfile := filepath.Join(outputDir, r.reportFilename(partner))
		// A leftover file for the same date is assumed bad and replaced.
		_ = os.Remove(outfile)

		if err := writeCSV(outfile, learners); err != nil {
			return nil, fmt.Errorf("%w: partner %s: %v", ErrReportGeneration, partner, err)
		}
		filenames[partner] = outfile
	}
	return filenames, nil
}

func writeCSV(path string, learners []lms.Learner) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// Partner tooling expects the Excel CSV dialect, which terminates
	// records with CRLF.
	w.UseCRLF = true
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, learner := range learners {
		row := []string{
			strconv.FormatInt(learner.User.ID, 10),
			learner.OriginalUsername,
			learner.OriginalEmail,
			learner.OriginalName,
			// The reporting-queue row's creation time is the moment
			// deletion completed.
			learner.Created,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// partnerFolderMap enumerates the subfolders of the partners root and
// maps NFKC-normalized folder name to folder id. Normalization on both
// sides is what lets an accented partner name in YAML match the same
// name composed differently by the drive provider.
func (r *Reporter) partnerFolderMap(ctx context.Context) (map[string]string, error) {
	folders, err := r.drive.ListSubfolders(ctx, r.cfg.DrivePartnersFolder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriveListing, err)
	}

	folderIDs := make(map[string]string, len(folders))
	for _, folder := range folders {
		folderIDs[norm.NFKC.String(folder.Name)] = folder.ID
	}
	return folderIDs, nil
}

// uploadAll pushes every generated file into its partner folder and
// returns partner -> uploaded file id. Before the first upload it checks
// that every partner has a folder, so a missing folder aborts with
// nothing pushed.
func (r *Reporter) uploadAll(ctx context.Context, filenames, folderIDs map[string]string) (map[string]string, error) {
	var missing []string
	for partner := range filenames {
		if _, ok := folderIDs[partner]; !ok {
			missing = append(missing, partner)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingPartnerFolder, strings.Join(missing, ", "))
	}

	fileIDs := make(map[string]string, len(filenames))
	for partner, path := range filenames {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDriveUpload, path, err)
		}

		r.logger.Info("uploading report",
			slog.String("partner", partner),
			slog.String("file", filepath.Base(path)),
		)
		fileID, err := r.drive.CreateFileInFolder(ctx, folderIDs[partner], filepath.Base(path), f, reportMimeType)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDriveUpload, path, err)
		}
		fileIDs[partner] = fileID
	}
	return fileIDs, nil
}

// commentAll posts one comment per uploaded file tagging the folder's
// external collaborators; the tag is what triggers their notification
// email. Failures are logged at WARN and never fail the run.
func (r *Reporter) commentAll(ctx context.Context, fileIDs, folderIDs map[string]string) {
	for partner, fileID := range fileIDs {
		perms, err := r.drive.ListPermissions(ctx, folderIDs[partner])
		if err != nil {
			r.logger.Warn("could not list partner folder permissions, skipping notification",
				slog.String("partner", partner),
				slog.String("error", err.Error()),
			)
			continue
		}

		tags := r.collaboratorTags(perms)
		if tags == "" {
			r.logger.Warn("no external collaborators to notify",
				slog.String("partner", partner))
			continue
		}

		content := tags + " An updated report of learners removed from your organization's courses is ready."
		if err := r.drive.CreateComment(ctx, fileID, content); err != nil {
			r.logger.Warn("could not comment on report file, notification skipped",
				slog.String("partner", partner),
				slog.String("error", err.Error()),
			)
		}
	}
}

// collaboratorTags renders "+email" mentions for every collaborator whose
// domain is not blacklisted.
func (r *Reporter) collaboratorTags(perms []drive.Permission) string {
	var tags []string
	for _, perm := range perms {
		if perm.EmailAddress == "" || r.blacklisted(perm.EmailAddress) {
			continue
		}
		tags = append(tags, "+"+perm.EmailAddress)
	}
	sort.Strings(tags)
	return strings.Join(tags, " ")
}

func (r *Reporter) blacklisted(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return true
	}
	domain := email[at+1:]
	for _, suffix := range r.cfg.BlacklistedDomains {
		if domain == suffix || strings.HasSuffix(domain, "."+suffix) {
			return true
		}
	}
	return false
}
