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

// Package runner implements the entity state machine: probing and
// validating each of an entity's input files in order, applying
// cross-file uniqueness once every file has been row-validated, and
// writing the concatenated accepted and rejected datasets.
package runner

import (
	"context"
	"fmt"

	"github.com/aaronlmathis/floe/internal/check"
	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
	"github.com/aaronlmathis/floe/internal/report"
	"github.com/aaronlmathis/floe/internal/storage"
	"github.com/aaronlmathis/floe/internal/target"
)

// Runner executes one entity's full probe-validate-write cycle against
// a shared storage registry and path resolver.
type Runner struct {
	Resolver *target.Resolver
	Registry *storage.Registry
}

// NewRunner builds a Runner over the given resolver and storage
// registry, both shared read-only across every entity in a run.
func NewRunner(resolver *target.Resolver, registry *storage.Registry) *Runner {
	return &Runner{Resolver: resolver, Registry: registry}
}

// rowResult is one row's working state across the row-level and
// uniqueness passes. Errors accumulates derivation-rule violations
// first, then any unique errors found once every file has been read.
type rowResult struct {
	Index  int
	Values map[string]interface{}
	Errors []check.RowError
}

// fileState is a file's working state while its entity is running.
type fileState struct {
	target      target.Target
	mismatch    check.FileMismatch
	mismatchOut check.MismatchOutcome
	status      report.FileStatus
	rows        []rowResult
	rowCount    uint64
	failureErr  error
	// wholeFile is true once the mismatch precheck decided the whole
	// file's fate (rejected or aborted) without a row-level pass.
	wholeFile bool
}

// RunEntity executes one entity end to end: resolving its inputs,
// row-validating every file, applying cross-file uniqueness, and
// assembling the rows the caller should write via WriteOutputs. A
// non-nil error means the entity itself could not start (bad config,
// no matching inputs) — the caller should record the entity as failed
// and continue with the rest of the run.
func (rn *Runner) RunEntity(ctx context.Context, entity config.EntityConfig) (*EntityResult, error) {
	plan := entity.Schema.Columns
	strategy := ""
	if entity.Schema.NormalizeColumns != nil && entity.Schema.NormalizeColumns.Enabled {
		strategy = entity.Schema.NormalizeColumns.Strategy
		if err := check.DetectCollisions(plan, strategy); err != nil {
			return nil, fmt.Errorf("entity.name=%s: %w", entity.Name, err)
		}
	}

	targets, err := rn.Resolver.ResolveInputs(ctx, entity.Name, entity.Source)
	if err != nil {
		return nil, err
	}

	castMode := entity.Source.EffectiveCastMode()
	nullValues := entity.Source.Options.EffectiveNullValues()
	severity := entity.Policy.Severity
	uniqueTracker := check.NewUniqueTracker(plan)

	result := &EntityResult{Entity: entity}
	for _, t := range targets {
		result.ResolvedInputs = append(result.ResolvedInputs, t.URI)
	}

	states := make([]*fileState, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			result.Aborted = true
			result.CancelledAt = t.URI
			states = append(states, &fileState{target: t, status: report.FileAborted, failureErr: err})
			break
		}

		st := rn.runFile(ctx, entity, t, plan, strategy, castMode, nullValues, severity)
		states = append(states, st)
		if st.status == report.FileAborted {
			result.Aborted = true
			break
		}
		if st.status == report.FileFailed {
			result.HasFailure = true
		}
	}

	if !result.Aborted {
		rn.applyUniqueness(states, uniqueTracker, severity, &result.Aborted)
	}
	for _, st := range states {
		finalizeFileRows(st, severity)
	}

	files, totals, accepted, rejected := assembleResults(states, plan, severity)
	result.Files = files
	result.Totals = totals
	if !result.Aborted && !result.HasFailure {
		result.AcceptedRows = accepted
		result.RejectedRows = rejected
	}
	result.states = states
	return result, nil
}

// runFile probes, prechecks, and (unless the precheck rejects or
// aborts the whole file) row-validates a single input file. Severity
// = abort is enforced here: if any row carries an error, the file is
// marked aborted immediately rather than proceeding to uniqueness.
func (rn *Runner) runFile(ctx context.Context, entity config.EntityConfig, t target.Target, plan []config.ColumnConfig, strategy, castMode string, nullValues []string, severity string) *fileState {
	st := &fileState{target: t}

	client, err := rn.Registry.Resolve(ctx, t.Storage)
	if err != nil {
		return failed(st, err)
	}

	localPath, cleanup, err := client.Get(ctx, t.URI)
	if err != nil {
		return failed(st, err)
	}
	defer cleanup()

	adapter, err := format.ByName(entity.Source.Format)
	if err != nil {
		return failed(st, err)
	}
	adapter = selectJSONAdapter(adapter, entity.Source)
	if err := configureSourceAdapter(adapter, entity.Source); err != nil {
		return failed(st, err)
	}

	probed, err := adapter.Probe(ctx, localPath)
	if err != nil {
		return failed(st, err)
	}
	mismatchPlan := plan
	if strategy != "" {
		probed = check.NormalizeNames(probed, strategy)
		mismatchPlan = append([]config.ColumnConfig(nil), plan...)
		for i := range mismatchPlan {
			mismatchPlan[i].Name = check.NormalizeName(mismatchPlan[i].Name, strategy)
		}
	}

	mismatchOut := check.ApplyMismatch(entity.Name, mismatchPlan, entity.Schema.Mismatch, severity, probed)
	st.mismatchOut = mismatchOut
	st.mismatch = mismatchOut.Report

	if mismatchOut.Aborted {
		st.status = report.FileAborted
		st.wholeFile = true
		return st
	}
	if mismatchOut.Rejected {
		st.status = report.FileRejected
		st.wholeFile = true
		return st
	}

	batch, err := adapter.ReadTyped(ctx, localPath, plan, nullValues)
	if err != nil {
		return failed(st, err)
	}
	st.rowCount = uint64(len(batch.Rows))

	outcomes, err := check.EvaluateBatch(batch, plan, castMode)
	if err != nil {
		return failed(st, err)
	}

	rows := make([]rowResult, len(outcomes))
	for i, o := range outcomes {
		rows[i] = rowResult{Index: o.RowIndex, Values: o.Values, Errors: append([]check.RowError(nil), o.Errors...)}
	}
	st.rows = rows

	if severity == "abort" {
		for _, row := range rows {
			if len(row.Errors) > 0 {
				st.status = report.FileAborted
				return st
			}
		}
	}

	st.status = report.FileSuccess // provisional; finalizeFileRows/applyUniqueness may still downgrade it
	return st
}

// selectJSONAdapter swaps format.ByName's default NDJSON adapter for
// the array adapter when the entity's source.options selects
// json_mode=array. format.ByName always resolves source.format="json"
// to NDJSONAdapter since that is the more common shape; the options
// block, not the format name, carries the array/ndjson distinction
// (spec's json_mode). Non-JSON adapters pass through untouched.
func selectJSONAdapter(adapter format.Adapter, src config.SourceConfig) format.Adapter {
	if _, ok := adapter.(*format.NDJSONAdapter); !ok {
		return adapter
	}
	if src.Options != nil && src.Options.Array {
		return &format.JSONArrayAdapter{}
	}
	return adapter
}

// configureSourceAdapter applies the entity's source options to the
// adapters that need them before the first Probe/ReadTyped call. Every
// other adapter ignores its options argument, so this is a no-op for
// them.
func configureSourceAdapter(adapter format.Adapter, src config.SourceConfig) error {
	csvAdapter, ok := adapter.(*format.CSVAdapter)
	if !ok {
		return nil
	}
	sep, err := src.Options.SeparatorByte()
	if err != nil {
		return err
	}
	csvAdapter.Separator = sep
	csvAdapter.HasHeader = src.Options.HasHeader()
	return nil
}

func failed(st *fileState, err error) *fileState {
	st.status = report.FileFailed
	st.failureErr = err
	return st
}

// applyUniqueness runs the entity-wide unique tracker over every
// file's rows in file-order, row-order, appending duplicate errors.
// Under severity=abort a duplicate marks the owning file aborted and
// the whole entity's output is withheld.
func (rn *Runner) applyUniqueness(states []*fileState, tracker *check.UniqueTracker, severity string, aborted *bool) {
	if !tracker.Active() {
		return
	}
	for _, st := range states {
		if st.wholeFile || st.status == report.FileFailed || st.status == report.FileAborted {
			continue
		}
		for i := range st.rows {
			row := &st.rows[i]
			dupErrs := tracker.CheckRow(st.target.SourceName, row.Index, row.Values)
			if len(dupErrs) == 0 {
				continue
			}
			row.Errors = append(row.Errors, dupErrs...)
			if severity == "abort" {
				st.status = report.FileAborted
				*aborted = true
				return
			}
		}
	}
}

// finalizeFileRows applies the severity policy to every row not yet
// resolved by an abort or a whole-file mismatch decision: warn keeps
// every row accepted, reject moves erroring rows to the rejected set.
func finalizeFileRows(st *fileState, severity string) {
	if st.wholeFile || st.status == report.FileFailed || st.status == report.FileAborted {
		return
	}
	for _, row := range st.rows {
		if len(row.Errors) > 0 && severity == "reject" {
			st.status = report.FileRejected
			return
		}
	}
	st.status = report.FileSuccess
}
