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
	"os"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string

	retireUsername     string
	reportOutputDir    string
	googleSecrets      string
	archiveCoolOffDays int
	bulkInitialState   string
	bulkNewState       string
	bulkStartDate      string
	bulkEndDate        string
	queueCoolOffDays   int
	queueStates        []string

	rootCmd = &cobra.Command{
		Use:   "retirement",
		Short: "A cli to run GDPR learner retirement against the platform APIs",
		Long: `Retirement drives a single learner through the configured retirement
				pipeline, generates partner deletion reports, and archives finished
				retirement rows out of the durable store.`,
	}

	retireCmd = &cobra.Command{
		Use:   "retire",
		Short: "Retire one learner, resuming from their current pipeline state",
		Run:   runRetireCommand, // Defined in cmd_retire.go
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Generate partner deletion reports and upload them to Drive",
		Run:   runReportCommand, // Defined in cmd_report.go
	}

	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Archive old COMPLETE retirement rows to S3 and delete them",
		Run:   runArchiveCommand, // Defined in cmd_archive.go
	}

	bulkUpdateCmd = &cobra.Command{
		Use:   "bulk-update",
		Short: "Force every row in a state and creation date range into a new state",
		Run:   runBulkUpdateCommand, // Defined in cmd_bulk.go
	}

	queueCmd = &cobra.Command{
		Use:   "queue",
		Short: "List learners whose retirement requests are past the cool-off period",
		Run:   runQueueCommand, // Defined in cmd_queue.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the retirement config YAML (env RETIREMENT_CONFIG)")

	rootCmd.AddCommand(retireCmd)
	retireCmd.Flags().StringVar(&retireUsername, "username", "", "Username of the learner to retire")
	_ = retireCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportOutputDir, "output-dir", "",
		"Local directory the CSVs are written to before upload")
	reportCmd.Flags().StringVar(&googleSecrets, "google-secrets", "",
		"Path to the Google service account secrets JSON (env RETIREMENT_GOOGLE_SECRETS)")
	_ = reportCmd.MarkFlagRequired("output-dir")

	rootCmd.AddCommand(archiveCmd)
	archiveCmd.Flags().IntVar(&archiveCoolOffDays, "cool-off-days", 37,
		"Minimum days since last modification before a COMPLETE row is archived")

	rootCmd.AddCommand(bulkUpdateCmd)
	bulkUpdateCmd.Flags().StringVar(&bulkInitialState, "initial-state", "", "State the rows must currently be in")
	bulkUpdateCmd.Flags().StringVar(&bulkNewState, "new-state", "", "State the rows are forced into")
	bulkUpdateCmd.Flags().StringVar(&bulkStartDate, "start-date", "", "Start of the creation date range (YYYY-MM-DD)")
	bulkUpdateCmd.Flags().StringVar(&bulkEndDate, "end-date", "", "End of the creation date range (YYYY-MM-DD)")
	_ = bulkUpdateCmd.MarkFlagRequired("initial-state")
	_ = bulkUpdateCmd.MarkFlagRequired("new-state")
	_ = bulkUpdateCmd.MarkFlagRequired("start-date")
	_ = bulkUpdateCmd.MarkFlagRequired("end-date")

	rootCmd.AddCommand(queueCmd)
	queueCmd.Flags().IntVar(&queueCoolOffDays, "cool-off-days", 7,
		"Days a request must have been pending before it is actionable")
	queueCmd.Flags().StringSliceVar(&queueStates, "states", nil,
		"Pipeline states to include (default: PENDING plus every end state)")
}

// resolveConfigPath applies the env-var fallback for --config.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return os.Getenv("RETIREMENT_CONFIG")
}

// resolveGoogleSecrets applies the env-var fallback for --google-secrets.
func resolveGoogleSecrets() string {
	if googleSecrets != "" {
		return googleSecrets
	}
	return os.Getenv("RETIREMENT_GOOGLE_SECRETS")
}
