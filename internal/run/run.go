//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of Floe.
//
// Floe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Floe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Floe. If not, see https://www.gnu.org/licenses/.

// Package run drives one invocation of the engine end to end: it
// allocates a run_id, walks the configured entities in declared order
// handing each to the runner, writes the per-entity and run-wide
// reports, and folds every entity's outcome into the process exit
// code.
package run

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/logging"
	"github.com/aaronlmathis/floe/internal/report"
	"github.com/aaronlmathis/floe/internal/runner"
	"github.com/aaronlmathis/floe/internal/storage"
	"github.com/aaronlmathis/floe/internal/target"
)

// ToolName and ToolVersion stamp every run.summary.json's tool block.
const (
	ToolName    = "floe"
	ToolVersion = "0.1.0"
)

// ExitCode mirrors the process exit codes spec.md's run status
// taxonomy assigns: 0 for success (with or without warnings) and for
// an entity-level reject, 1 for a failure, 2 for an abort.
type ExitCode int

// Options configures one Driver.Run invocation.
type Options struct {
	ConfigPath string
	ConfigDir  string
	RunID      string
	Entities   []string
	Logger     *zap.Logger
}

// Driver runs the entities of a loaded config; see Run.
type Driver struct{}

// NewDriver returns a Driver. It carries no state of its own; each
// Run call builds its own registry and resolver scoped to the config
// it's given.
func NewDriver() *Driver { return &Driver{} }

// Run executes every selected entity in cfg against opts, writes the
// per-entity and run-wide reports under cfg.Report.Path, and returns
// the run's exit code alongside any error that prevented the run from
// completing at all (as opposed to an error an individual entity
// recorded in its own report).
func (d *Driver) Run(ctx context.Context, cfg *config.RootConfig, opts Options) (ExitCode, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := opts.RunID
	if runID == "" {
		runID = DisambiguateRunID(cfg.Report.Path, AllocateRunID())
	}

	entities, err := selectEntities(cfg.Entities, opts.Entities)
	if err != nil {
		return 1, err
	}

	reg := storage.NewRegistry(cfg.Storages)
	resolver := target.NewResolver(reg, opts.ConfigDir)
	rn := runner.NewRunner(resolver, reg)

	startedAt := time.Now().UTC()
	var summaries []report.EntitySummary
	var runTotals report.ResultsTotals
	worstRank := -1
	var worstStatus report.RunStatus = report.RunSuccess

	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled before entity started", zap.String("entity", entity.Name), zap.Error(err))
			break
		}

		entityLogger := logging.Entity(logger, entity.Name)
		summary, entityTotals, runErr := d.runOneEntity(ctx, rn, entity, cfg, opts, runID, entityLogger)
		if runErr != nil {
			entityLogger.Error("entity failed to start", zap.Error(runErr))
			summary = report.EntitySummary{Name: entity.Name, Status: report.RunFailed}
		}

		runTotals.Add(entityTotals)
		summaries = append(summaries, summary)

		if rank := statusRank(summary.Status); rank > worstRank {
			worstRank = rank
			worstStatus = summary.Status
		}
	}

	finishedAt := time.Now().UTC()
	exitCode := exitCodeFor(worstStatus)

	summaryReport := &report.RunSummaryReport{
		SpecVersion: cfg.Version,
		Tool:        report.ToolInfo{Name: ToolName, Version: ToolVersion},
		Run: report.RunInfo{
			RunID:      runID,
			StartedAt:  startedAt.Format(time.RFC3339Nano),
			FinishedAt: finishedAt.Format(time.RFC3339Nano),
			DurationMs: finishedAt.Sub(startedAt).Milliseconds(),
			Status:     worstStatus,
			ExitCode:   int(exitCode),
		},
		Config: report.ConfigEcho{
			Path:    opts.ConfigPath,
			Version: cfg.Version,
		},
		Report: report.ReportEcho{
			Path:       cfg.Report.Path,
			ReportFile: report.SummaryFileName(),
		},
		Results:  runTotals,
		Entities: summaries,
	}

	summaryPath, err := report.WriteSummary(cfg.Report.Path, runID, summaryReport)
	if err != nil {
		return 1, fmt.Errorf("write run summary: %w", err)
	}
	logger.Info("run finished",
		zap.String("status", string(worstStatus)),
		zap.Int("exit_code", int(exitCode)),
		zap.String("summary", summaryPath),
	)

	return exitCode, nil
}

// runOneEntity runs one entity, writes its abort artifacts if it
// aborted or its outputs if it neither aborted nor failed, always
// writes its run.json, and returns the summary row for the run-wide
// report.
func (d *Driver) runOneEntity(ctx context.Context, rn *runner.Runner, entity config.EntityConfig, cfg *config.RootConfig, opts Options, runID string, logger *zap.Logger) (report.EntitySummary, report.ResultsTotals, error) {
	result, err := rn.RunEntity(ctx, entity)
	if err != nil {
		return report.EntitySummary{}, report.ResultsTotals{}, err
	}

	for _, f := range result.Files {
		logging.FileStatus(logger, f.InputFile, string(f.Status), f.RowCount, f.AcceptedCount, f.RejectedCount)
	}

	switch {
	case result.Aborted:
		if err := rn.WriteAbortArtifacts(ctx, entity, result, cfg.Report.Path, runID); err != nil {
			logger.Error("failed to write abort artifacts", zap.Error(err))
		}
	case !result.HasFailure:
		if err := rn.WriteOutputs(ctx, entity, result); err != nil {
			logger.Error("failed to write outputs", zap.Error(err))
			result.HasFailure = true
		}
	}

	status, _ := result.Status()

	runReport := &report.RunReport{
		SpecVersion: cfg.Version,
		Entity:      report.EntityEcho{Name: entity.Name},
		Source: report.SourceEcho{
			Format: entity.Source.Format,
			Path:   entity.Source.Path,
			ResolvedInputs: report.ResolvedInputs{
				FileCount: uint64(len(result.ResolvedInputs)),
				Files:     result.ResolvedInputs,
			},
		},
		Sink: report.SinkEcho{
			Accepted: report.SinkTargetEcho{Format: entity.Sink.Accepted.Format, Path: entity.Sink.Accepted.Path},
			Archive:  report.SinkArchiveEcho{Enabled: entity.Sink.Archive != nil},
		},
		Policy:         report.PolicyEcho{Severity: report.Severity(entity.Policy.Severity)},
		AcceptedOutput: result.AcceptedOutput,
		Results:        result.Totals,
		Files:          result.Files,
	}
	if entity.Sink.Rejected != nil {
		runReport.Sink.Rejected = &report.SinkTargetEcho{Format: entity.Sink.Rejected.Format, Path: entity.Sink.Rejected.Path}
	}
	if entity.Sink.Archive != nil {
		runReport.Sink.Archive.Path = entity.Sink.Archive.Path
	}

	reportPath, writeErr := report.WriteReport(cfg.Report.Path, runID, entity.Name, runReport)
	if writeErr != nil {
		logger.Error("failed to write entity report", zap.Error(writeErr))
	}

	summary := report.EntitySummary{
		Name:       entity.Name,
		Status:     status,
		Results:    result.Totals,
		ReportFile: reportPath,
	}
	return summary, result.Totals, nil
}

// selectEntities returns cfg's entities in declared order, filtered to
// names when non-empty. An unmatched name is a fatal error: a typo in
// --entities should stop the run, not silently select nothing.
func selectEntities(all []config.EntityConfig, names []string) ([]config.EntityConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []config.EntityConfig
	for _, e := range all {
		if want[e.Name] {
			out = append(out, e)
			delete(want, e.Name)
		}
	}
	for n := range want {
		return nil, fmt.Errorf("--entities: no entity named %q in config", n)
	}
	return out, nil
}

// statusRank orders RunStatus values by the same priority the status
// taxonomy assigns across entities: failed beats aborted beats
// rejected beats success_with_warnings beats success.
func statusRank(s report.RunStatus) int {
	switch s {
	case report.RunFailed:
		return 4
	case report.RunAborted:
		return 3
	case report.RunRejected:
		return 2
	case report.RunSuccessWithWarnings:
		return 1
	default:
		return 0
	}
}

// exitCodeFor maps a run-wide status to the process exit code: 1 for
// any entity failure, 2 for an abort, 0 otherwise (success, warnings,
// or a plain reject all exit clean since the engine did what its
// contract asked).
func exitCodeFor(s report.RunStatus) ExitCode {
	switch s {
	case report.RunFailed:
		return 1
	case report.RunAborted:
		return 2
	default:
		return 0
	}
}
