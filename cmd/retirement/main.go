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
	"log/slog"
	"os"
	"time"

	"github.com/AleutianAI/AleutianRetire/pkg/logging"
	"github.com/AleutianAI/AleutianRetire/services/retirement/telemetry"
)

// logger is the process-wide structured logger. Every component receives
// it at construction.
var logger *slog.Logger

// rootLogger owns the optional log file; exit closes it.
var rootLogger *logging.Logger

// telemetryShutdown flushes buffered spans and metrics. Set in main,
// called by exit so os.Exit does not drop telemetry.
var telemetryShutdown func(context.Context) error

func main() {
	rootLogger = logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("RETIREMENT_LOG_LEVEL")),
		LogDir:  os.Getenv("RETIREMENT_LOG_DIR"),
		Service: "retirement",
	})
	logger = rootLogger.Slog()
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		logger.Error("failed to initialize telemetry", slog.Any("error", err))
		exit(exitSetupFailed)
	}
	telemetryShutdown = shutdown

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", slog.Any("error", err))
		exit(exitSetupFailed)
	}
	exit(exitOK)
}

// exit flushes telemetry, closes the log file, and terminates with the
// given code.
func exit(code int) {
	if telemetryShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}
	if rootLogger != nil {
		_ = rootLogger.Close()
	}
	os.Exit(code)
}

// fail logs the error and terminates with the given code.
func fail(code int, msg string, err error) {
	if err != nil {
		logger.Error(msg, slog.Any("error", err))
	} else {
		logger.Error(msg)
	}
	exit(code)
}
