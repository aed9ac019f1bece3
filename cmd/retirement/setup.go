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
	"fmt"

	"github.com/AleutianAI/AleutianRetire/services/retirement/config"
	"github.com/AleutianAI/AleutianRetire/services/retirement/driver"
	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/pipeline"
	"github.com/AleutianAI/AleutianRetire/services/retirement/providers"
	"github.com/AleutianAI/AleutianRetire/services/retirement/restclient"
)

// mustLoadConfig loads the config or terminates with the matching code.
func mustLoadConfig() *config.Config {
	path := resolveConfigPath()
	if path == "" {
		fail(exitNoConfig, "no config file specified; use --config or RETIREMENT_CONFIG", nil)
	}
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrUnreadableConfig) {
			fail(exitNoConfig, "failed to read config file", err)
		}
		fail(exitBadConfig, "failed to parse config file", err)
	}
	return cfg
}

// newLedger builds an authenticated LMS client. The LMS doubles as the
// OAuth2 identity provider for itself and the other first-party services.
func newLedger(ctx context.Context, cfg *config.Config, validator lms.TransitionValidator) (*lms.Client, error) {
	rest, err := restclient.New(ctx, cfg.BaseURLs.LMS, cfg.BaseURLs.LMS,
		cfg.ClientID, cfg.ClientSecret, restclient.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	opts := []lms.ClientOption{lms.WithLogger(logger)}
	if validator != nil {
		opts = append(opts, lms.WithTransitionValidator(validator))
	}
	return lms.NewClient(rest, opts...), nil
}

// buildDriver constructs the full retirement driver: pipeline definition,
// one REST client per configured service, the operation registry, and the
// bound step list. A pipeline step naming an unconfigured service fails
// here, before any learner is touched.
func buildDriver(ctx context.Context, cfg *config.Config) (*driver.Driver, error) {
	def, err := pipeline.New(cfg.RetirementPipeline)
	if err != nil {
		return nil, fmt.Errorf("invalid retirement_pipeline: %w", err)
	}

	ledger, err := newLedger(ctx, cfg, def)
	if err != nil {
		return nil, fmt.Errorf("building LMS client: %w", err)
	}

	reg := pipeline.NewRegistry()
	registerLMSOps(reg, ledger)
	if err := registerProviderOps(ctx, reg, cfg); err != nil {
		return nil, err
	}

	steps, err := reg.Bind(def)
	if err != nil {
		return nil, err
	}
	return driver.New(ledger, def, steps, logger)
}

// registerLMSOps maps the LMS method keys a pipeline config may name onto
// the ledger client.
func registerLMSOps(reg *pipeline.Registry, ledger *lms.Client) {
	reg.Register("LMS", "retirement_deactivate_logout", ledger.DeactivateAndLogout)
	reg.Register("LMS", "retirement_retire_forum", ledger.RetireForum)
	reg.Register("LMS", "retirement_retire_mailings", ledger.RetireMailings)
	reg.Register("LMS", "retirement_unenroll", ledger.Unenroll)
	reg.Register("LMS", "retirement_retire_notes", ledger.RetireNotes)
	reg.Register("LMS", "retirement_lms_retire_misc", ledger.RetireMisc)
	reg.Register("LMS", "retirement_lms_retire", ledger.Retire)
	reg.Register("LMS", "retirement_partner_report", ledger.EnqueuePartnerReport)
}

// registerProviderOps builds a client per configured downstream service
// and registers its method keys. Unconfigured services register nothing,
// so a step naming one fails at Bind.
func registerProviderOps(ctx context.Context, reg *pipeline.Registry, cfg *config.Config) error {
	if cfg.HasService("ECOMMERCE") {
		rest, err := restclient.New(ctx, cfg.BaseURLs.LMS, cfg.BaseURLs.Ecommerce,
			cfg.ClientID, cfg.ClientSecret, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building ecommerce client: %w", err)
		}
		reg.Register("ECOMMERCE", "retire_learner", providers.NewEcommerce(rest).RetireLearner)
	}

	if cfg.HasService("CREDENTIALS") {
		rest, err := restclient.New(ctx, cfg.BaseURLs.LMS, cfg.BaseURLs.Credentials,
			cfg.ClientID, cfg.ClientSecret, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building credentials client: %w", err)
		}
		reg.Register("CREDENTIALS", "retire_learner", providers.NewCredentials(rest).RetireLearner)
	}

	if cfg.HasService("SEGMENT") {
		rest, err := restclient.NewUnauthenticated(cfg.BaseURLs.Segment, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building segment client: %w", err)
		}
		seg := providers.NewSegment(rest, cfg.SegmentAuthToken, cfg.SegmentWorkspaceSlug,
			cfg.FetchEcommerceSegmentID)
		reg.Register("SEGMENT", "delete_and_suppress_learner", seg.DeleteAndSuppress)
	}

	if cfg.HasService("AMPLITUDE") {
		rest, err := restclient.NewUnauthenticated(providers.AmplitudeBaseURL, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building amplitude client: %w", err)
		}
		amp := providers.NewAmplitude(rest, cfg.AmplitudeAPIKey, cfg.AmplitudeSecretKey)
		reg.Register("AMPLITUDE", "delete_user", amp.DeleteUser)
	}

	if cfg.HasService("SAILTHRU") {
		rest, err := restclient.NewUnauthenticated(providers.SailthruBaseURL, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building sailthru client: %w", err)
		}
		reg.Register("SAILTHRU", "delete_user",
			providers.NewSailthru(rest, cfg.SailthruKey, cfg.SailthruSecret).DeleteUser)
	}

	if cfg.HasService("BRAZE") {
		rest, err := restclient.NewUnauthenticated(cfg.BrazeInstanceURL, restclient.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("building braze client: %w", err)
		}
		reg.Register("BRAZE", "delete_user", providers.NewBraze(rest, cfg.BrazeAPIKey).DeleteUser)
	}

	return nil
}
