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

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aaronlmathis/floe/internal/check"
	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
	"github.com/aaronlmathis/floe/internal/report"
	"github.com/aaronlmathis/floe/internal/target"
)

// rejectedColumns appends the two synthetic columns the rejected
// dataset carries on top of the declared schema.
func rejectedColumns(plan []config.ColumnConfig) []config.ColumnConfig {
	out := make([]config.ColumnConfig, len(plan), len(plan)+2)
	copy(out, plan)
	out = append(out,
		config.ColumnConfig{Name: "__floe_row_index", Type: "integer"},
		config.ColumnConfig{Name: "__floe_errors", Type: "string"},
	)
	return out
}

// WriteOutputs stages and uploads an entity's accepted and rejected
// datasets and, if the sink configures one, archives its input files.
// Called only when RunEntity reported neither an abort nor an outright
// file failure. Accepted-write failures are returned; rejected-write
// and archive failures are folded into the entity's warning count
// instead, mirroring the archive-is-best-effort rule.
func (rn *Runner) WriteOutputs(ctx context.Context, entity config.EntityConfig, result *EntityResult) error {
	acceptedPath, acceptedParts, err := rn.writeSink(ctx, entity.Name, "sink.accepted.path", entity.Sink.Accepted, entity.Schema.Columns, result.AcceptedRows)
	if err != nil {
		return fmt.Errorf("entity.name=%s: write accepted output: %w", entity.Name, err)
	}
	for i := range result.Files {
		if result.Files[i].Status == report.FileSuccess || result.Files[i].Status == report.FileRejected {
			result.Files[i].Output.AcceptedPath = acceptedPath
		}
	}
	result.AcceptedOutput = report.AcceptedOutputSummary{
		Path:         acceptedPath,
		AcceptedRows: uint64(len(result.AcceptedRows)),
		PartsWritten: uint64(len(acceptedParts)),
		PartFiles:    acceptedParts,
	}

	if entity.Sink.Rejected != nil && len(result.RejectedRows) > 0 {
		cols := rejectedColumns(entity.Schema.Columns)
		rejectedPath, _, err := rn.writeSink(ctx, entity.Name, "sink.rejected.path", *entity.Sink.Rejected, cols, result.RejectedRows)
		if err != nil {
			result.Totals.WarningsTotal++
		} else {
			for i := range result.Files {
				if result.Files[i].RejectedCount > 0 {
					result.Files[i].Output.RejectedPath = rejectedPath
				}
			}
		}
	}

	if entity.Sink.Archive != nil {
		rn.archiveInputs(ctx, entity, result)
	}
	return nil
}

// WriteAbortArtifacts implements the abort-mode rejected-dataset
// contract (spec.md §4.5/§6.2/§6.5): the rejected sink, if configured,
// gets a byte-copy of the aborted file's source with no extra columns,
// and a <source_stem>_reject_errors.json sibling is written under the
// entity's report directory with the per-row (or, for a schema-mismatch
// abort, per-file) error detail. Called instead of WriteOutputs when
// RunEntity reports an abort; the accepted output stays withheld either
// way.
func (rn *Runner) WriteAbortArtifacts(ctx context.Context, entity config.EntityConfig, result *EntityResult, reportDir, runID string) error {
	st := abortedFileState(result.states)
	if st == nil {
		return nil
	}

	client, err := rn.Registry.Resolve(ctx, st.target.Storage)
	if err != nil {
		return fmt.Errorf("entity.name=%s: abort artifacts: %w", entity.Name, err)
	}
	localPath, cleanup, err := client.Get(ctx, st.target.URI)
	if err != nil {
		return fmt.Errorf("entity.name=%s: abort artifacts: %w", entity.Name, err)
	}
	defer cleanup()

	if entity.Sink.Rejected != nil {
		resolved, err := rn.Resolver.Resolve(entity.Name, "sink.rejected.path", entity.Sink.Rejected.Storage, entity.Sink.Rejected.Path)
		if err != nil {
			return fmt.Errorf("entity.name=%s: abort artifacts: %w", entity.Name, err)
		}
		dstClient, err := rn.Registry.Resolve(ctx, resolved.Storage)
		if err != nil {
			return fmt.Errorf("entity.name=%s: abort artifacts: %w", entity.Name, err)
		}
		if err := dstClient.Put(ctx, localPath, resolved.URI); err != nil {
			return fmt.Errorf("entity.name=%s: abort artifacts: %w", entity.Name, err)
		}
		markAbortedFileOutput(result.Files, func(o *report.FileOutput) { o.RejectedPath = resolved.URI })
	}

	stem := strings.TrimSuffix(st.target.SourceName, filepath.Ext(st.target.SourceName))
	errorsPath, err := report.WriteRejectErrors(reportDir, runID, entity.Name, stem, abortErrors(st))
	if err != nil {
		return fmt.Errorf("entity.name=%s: write %s: %w", entity.Name, report.RejectErrorsFileName(stem), err)
	}
	markAbortedFileOutput(result.Files, func(o *report.FileOutput) { o.ErrorsPath = errorsPath })
	return nil
}

// abortedFileState returns the one file whose precheck or row pass
// triggered the entity's abort, or nil if none did (should not happen
// when the caller only invokes this on result.Aborted).
func abortedFileState(states []*fileState) *fileState {
	for _, st := range states {
		if st.status == report.FileAborted {
			return st
		}
	}
	return nil
}

// abortErrors collects the error detail behind an aborted file's
// decision: the single file-level mismatch error when the precheck
// aborted the file before any row was read, otherwise every row's
// accumulated errors (row-level violations plus any cross-file
// uniqueness violation applyUniqueness appended).
func abortErrors(st *fileState) []check.RowError {
	if st.mismatchOut.Aborted && st.mismatch.Error != nil {
		return []check.RowError{*st.mismatch.Error}
	}
	var errs []check.RowError
	for _, row := range st.rows {
		errs = append(errs, row.Errors...)
	}
	return errs
}

func markAbortedFileOutput(files []report.FileReport, set func(*report.FileOutput)) {
	for i := range files {
		if files[i].Status == report.FileAborted {
			set(&files[i].Output)
		}
	}
}

// writeSink stages rows through the sink's format adapter and uploads
// the result to the resolved target. Delta writes directly to the
// remote URI; Parquet stages a directory of part files; every other
// format stages a single local file.
func (rn *Runner) writeSink(ctx context.Context, entityName, field string, sink config.SinkTarget, columns []config.ColumnConfig, rows []format.WriteRow) (string, []string, error) {
	resolved, err := rn.Resolver.Resolve(entityName, field, sink.Storage, sink.Path)
	if err != nil {
		return "", nil, err
	}
	client, err := rn.Registry.Resolve(ctx, resolved.Storage)
	if err != nil {
		return "", nil, err
	}

	adapter, err := format.ByName(sink.Format)
	if err != nil {
		return "", nil, err
	}

	opts := format.WriteOptions{
		Compression:    sinkCompression(sink),
		RowGroupSize:   sinkRowGroupSize(sink),
		MaxSizePerFile: sink.Options.EffectiveMaxSizePerFile(),
	}

	// Best-effort: a fresh target that has never been written has
	// nothing to remove, so a delete failure here is not fatal.
	_ = client.Delete(ctx, resolved.URI)

	if delta, ok := adapter.(*format.DeltaAdapter); ok {
		delta.Client = client
		delta.RemoteURI = resolved.URI
		if err := delta.Write(ctx, rows, columns, "", opts); err != nil {
			return "", nil, err
		}
		return resolved.URI, []string{resolved.URI}, nil
	}

	if sink.Format == "parquet" {
		return rn.writeParquetSink(ctx, client, adapter, resolved.URI, columns, rows, opts)
	}

	stageFile, err := os.CreateTemp("", "floe-sink-*")
	if err != nil {
		return "", nil, err
	}
	stagePath := stageFile.Name()
	stageFile.Close()
	defer os.Remove(stagePath)

	if err := adapter.Write(ctx, rows, columns, stagePath, opts); err != nil {
		return "", nil, err
	}
	if err := client.Put(ctx, stagePath, resolved.URI); err != nil {
		return "", nil, err
	}
	return resolved.URI, []string{resolved.URI}, nil
}

func (rn *Runner) writeParquetSink(ctx context.Context, client interface {
	Put(ctx context.Context, localPath, uri string) error
}, adapter format.Adapter, uri string, columns []config.ColumnConfig, rows []format.WriteRow, opts format.WriteOptions) (string, []string, error) {
	stageDir, err := os.MkdirTemp("", "floe-parquet-*")
	if err != nil {
		return "", nil, err
	}
	defer os.RemoveAll(stageDir)

	if err := adapter.Write(ctx, rows, columns, stageDir, opts); err != nil {
		return "", nil, err
	}
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return "", nil, err
	}
	var parts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		parts = append(parts, e.Name())
	}
	sort.Strings(parts)
	for _, name := range parts {
		dest := uri + "/" + name
		if err := client.Put(ctx, filepath.Join(stageDir, name), dest); err != nil {
			return "", nil, err
		}
	}
	return uri, parts, nil
}

func sinkCompression(sink config.SinkTarget) string {
	if sink.Options == nil {
		return ""
	}
	return sink.Options.Compression
}

func sinkRowGroupSize(sink config.SinkTarget) int64 {
	if sink.Options == nil {
		return 0
	}
	return sink.Options.RowGroupSize
}

// archiveInputs moves every successfully processed input file to the
// configured archive target, best-effort: a failure to archive one
// file is counted as a warning, never a failure, since archival is
// housekeeping rather than part of the entity's output contract.
func (rn *Runner) archiveInputs(ctx context.Context, entity config.EntityConfig, result *EntityResult) {
	for _, st := range result.states {
		if st.status == report.FileFailed || st.wholeFile {
			continue
		}
		if err := rn.archiveOne(ctx, entity, st.target); err != nil {
			result.Totals.WarningsTotal++
		}
	}
}

func (rn *Runner) archiveOne(ctx context.Context, entity config.EntityConfig, t target.Target) error {
	archive := entity.Sink.Archive
	resolved, err := rn.Resolver.Resolve(entity.Name, "sink.archive.path", archive.Storage, archive.Path)
	if err != nil {
		return err
	}
	dest := resolved.URI + "/" + t.SourceName

	srcClient, err := rn.Registry.Resolve(ctx, t.Storage)
	if err != nil {
		return err
	}

	if t.Storage == resolved.Storage {
		return srcClient.Move(ctx, t.URI, dest)
	}

	dstClient, err := rn.Registry.Resolve(ctx, resolved.Storage)
	if err != nil {
		return err
	}
	localPath, cleanup, err := srcClient.Get(ctx, t.URI)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := dstClient.Put(ctx, localPath, dest); err != nil {
		return err
	}
	return srcClient.Delete(ctx, t.URI)
}
