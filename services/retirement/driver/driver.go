// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package driver advances a single learner through the retirement
// pipeline, one invocation at a time, idempotently.
//
// Each step writes its start state to the ledger before the remote call
// and its end state after, so a crashed run leaves the row either at an
// end state (the next invocation skips completed steps by index and
// continues) or at a working state (operator attention required). An
// external observer of the ledger always sees a legal prefix of the
// pipeline.
//
// Thread Safety:
//
//	Driver is safe for concurrent use across different learners. Two
//	concurrent runs on the same learner race on the initial status read;
//	the later one fails with ErrUserInWorkingState. The lockout is
//	advisory, not strict - a fast second reader can slip between the
//	first reader's read and its first write.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianRetire/services/retirement/lms"
	"github.com/AleutianAI/AleutianRetire/services/retirement/pipeline"
)

var (
	tracer = otel.Tracer("aleutian.retirement.driver")
	meter  = otel.Meter("aleutian.retirement.driver")
)

// StatusStore is the slice of the ledger the driver needs: the single
// source of truth for per-learner state.
type StatusStore interface {
	GetStatus(ctx context.Context, username string) (*lms.Learner, error)
	UpdateState(ctx context.Context, username, newState, message string, force bool) (*lms.Learner, error)
}

// Driver runs the retirement pipeline for one learner per call.
type Driver struct {
	store  StatusStore
	def    *pipeline.Definition
	steps  []pipeline.BoundStep
	logger *slog.Logger

	metricsOnce sync.Once
	stepLatency metric.Float64Histogram
	stepOK      metric.Int64Counter
	stepFailed  metric.Int64Counter
}

// New builds a driver over a validated pipeline and its bound steps.
func New(store StatusStore, def *pipeline.Definition, steps []pipeline.BoundStep, logger *slog.Logger) (*Driver, error) {
	if store == nil || def == nil {
		return nil, errors.New("driver requires a status store and a pipeline definition")
	}
	if len(steps) != len(def.Steps()) {
		return nil, errors.New("bound steps do not match pipeline definition")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{store: store, def: def, steps: steps, logger: logger}, nil
}

func (d *Driver) initMetrics() {
	d.metricsOnce.Do(func() {
		var errs []string
		var err error
		d.stepLatency, err = meter.Float64Histogram("retirement_step_duration_seconds",
			metric.WithDescription("Time spent in each retirement pipeline step"),
			metric.WithUnit("s"),
		)
		if err != nil {
			errs = append(errs, "step_latency: "+err.Error())
		}
		d.stepOK, err = meter.Int64Counter("retirement_step_success_total",
			metric.WithDescription("Completed retirement steps"),
		)
		if err != nil {
			errs = append(errs, "step_ok: "+err.Error())
		}
		d.stepFailed, err = meter.Int64Counter("retirement_step_failure_total",
			metric.WithDescription("Failed retirement steps"),
		)
		if err != nil {
			errs = append(errs, "step_failed: "+err.Error())
		}
		if len(errs) > 0 {
			d.logger.Error("failed to initialize some driver metrics (observability degraded)",
				slog.Int("failed_count", len(errs)),
				slog.Any("errors", errs),
			)
		}
	})
}

// Retire advances the learner from their current end state to COMPLETE,
// running every remaining step in order. On the first step failure the
// row is marked ERRORED (best effort) and a *StepError is returned.
func (d *Driver) Retire(ctx context.Context, username string) error {
	d.initMetrics()

	runID := uuid.NewString()
	logger := d.logger.With(
		slog.String("run_id", runID),
		slog.String("username", username),
	)

	ctx, span := tracer.Start(ctx, "retirement.retire",
		trace.WithAttributes(attribute.String("retirement.run_id", runID)),
	)
	defer span.End()

	learner, err := d.store.GetStatus(ctx, username)
	if err != nil {
		if errors.Is(err, lms.ErrLearnerNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return err
	}

	stateIndex, err := d.startIndex(learner)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	logger.Info("starting learner retirement",
		slog.String("current_state", learner.CurrentState.StateName))

	for _, step := range d.steps {
		startIdx, _ := d.def.StateIndex(step.StartState)
		if startIdx < stateIndex {
			logger.Info("state completed in previous run, skipping",
				slog.String("state", step.StartState))
			continue
		}

		if err := d.runStep(ctx, logger, username, learner, step); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		stateIndex++
	}

	if _, err := d.store.UpdateState(ctx, username, pipeline.StateComplete,
		"Learner retirement complete.", false); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	logger.Info("retirement complete")
	return nil
}

// startIndex validates the learner's current state and returns its index
// in the canonical state order.
func (d *Driver) startIndex(learner *lms.Learner) (int, error) {
	state := learner.CurrentState.StateName
	if state == "" || learner.OriginalUsername == "" {
		return 0, fmt.Errorf("%w: %+v", ErrBadLearner, learner)
	}

	idx, ok := d.def.StateIndex(state)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownState, state)
	}
	if d.def.IsTerminal(state) {
		return 0, fmt.Errorf("%w: %s", ErrUserAtEndState, state)
	}
	if d.def.IsWorkingState(state) {
		return 0, fmt.Errorf("%w: %s", ErrUserInWorkingState, state)
	}
	return idx, nil
}

func (d *Driver) runStep(ctx context.Context, logger *slog.Logger, username string, learner *lms.Learner, step pipeline.BoundStep) error {
	ctx, span := tracer.Start(ctx, "retirement.step",
		trace.WithAttributes(
			attribute.String("retirement.state", step.StartState),
			attribute.String("retirement.service", step.Service),
		),
	)
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String("service", step.Service),
		attribute.String("state", step.StartState),
	)

	logger.Info("starting state", slog.String("state", step.StartState))
	if _, err := d.store.UpdateState(ctx, username, step.StartState,
		fmt.Sprintf("Starting: %s", step.StartState), false); err != nil {
		return d.failStep(ctx, span, username, step.StartState, err)
	}

	start := time.Now()
	response, err := step.Run(ctx, learner)
	elapsed := time.Since(start)

	if d.stepLatency != nil {
		d.stepLatency.Record(ctx, elapsed.Seconds(), attrs)
	}
	if err != nil {
		if d.stepFailed != nil {
			d.stepFailed.Add(ctx, 1, attrs)
		}
		return d.failStep(ctx, span, username, step.StartState, err)
	}
	if d.stepOK != nil {
		d.stepOK.Add(ctx, 1, attrs)
	}

	logger.Info("state completed",
		slog.String("state", step.StartState),
		slog.Duration("elapsed", elapsed))

	if _, err := d.store.UpdateState(ctx, username, step.EndState,
		fmt.Sprintf("Ending: %s with response:\n%s", step.EndState, response), false); err != nil {
		return d.failStep(ctx, span, username, step.StartState, err)
	}
	return nil
}

// failStep records ERRORED on the row (best effort; the row keeps its last
// end state in last_state so resumption stays possible) and wraps err.
func (d *Driver) failStep(ctx context.Context, span trace.Span, username, state string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	d.logger.Error("error in retirement state",
		slog.String("username", username),
		slog.String("state", state),
		slog.String("error", err.Error()),
	)

	if _, updateErr := d.store.UpdateState(ctx, username, pipeline.StateErrored,
		err.Error(), false); updateErr != nil {
		d.logger.Error("critical: could not mark learner ERRORED",
			slog.String("username", username),
			slog.String("error", updateErr.Error()),
		)
	}
	return &StepError{State: state, Err: err}
}
