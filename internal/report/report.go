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

// Package report defines the JSON shape of a run's artifacts — one
// per-entity run.json and one run-wide run.summary.json — and writes
// them atomically under the configured report directory.
package report

import "github.com/aaronlmathis/floe/internal/check"

// Severity mirrors the three policy levels a file or run can be
// evaluated under.
type Severity string

const (
	SeverityWarn   Severity = "warn"
	SeverityReject Severity = "reject"
	SeverityAbort  Severity = "abort"
)

// FileStatus is the per-file outcome of the runner's state machine.
type FileStatus string

const (
	FileSuccess  FileStatus = "success"
	FileRejected FileStatus = "rejected"
	FileAborted  FileStatus = "aborted"
	FileFailed   FileStatus = "failed"
)

// RunStatus is the run-wide outcome, derived from the statuses of every
// file across every entity.
type RunStatus string

const (
	RunSuccess             RunStatus = "success"
	RunSuccessWithWarnings RunStatus = "success_with_warnings"
	RunRejected            RunStatus = "rejected"
	RunAborted             RunStatus = "aborted"
	RunFailed              RunStatus = "failed"
)

// RuleName is one of the four violation kinds a row or file can carry.
type RuleName string

const (
	RuleNotNull        RuleName = "not_null"
	RuleCastError      RuleName = "cast_error"
	RuleUnique         RuleName = "unique"
	RuleSchemaMismatch RuleName = "schema_mismatch"
)

// ResultsTotals aggregates row/file counts, shared by both the
// per-entity report and the run summary.
type ResultsTotals struct {
	FilesTotal    uint64 `json:"files_total"`
	RowsTotal     uint64 `json:"rows_total"`
	AcceptedTotal uint64 `json:"accepted_total"`
	RejectedTotal uint64 `json:"rejected_total"`
	WarningsTotal uint64 `json:"warnings_total"`
	ErrorsTotal   uint64 `json:"errors_total"`
}

// Add folds another ResultsTotals into this one.
func (t *ResultsTotals) Add(other ResultsTotals) {
	t.FilesTotal += other.FilesTotal
	t.RowsTotal += other.RowsTotal
	t.AcceptedTotal += other.AcceptedTotal
	t.RejectedTotal += other.RejectedTotal
	t.WarningsTotal += other.WarningsTotal
	t.ErrorsTotal += other.ErrorsTotal
}

// RunReport is the per-entity run.json document.
type RunReport struct {
	SpecVersion    string                `json:"spec_version"`
	Entity         EntityEcho            `json:"entity"`
	Source         SourceEcho            `json:"source"`
	Sink           SinkEcho              `json:"sink"`
	Policy         PolicyEcho            `json:"policy"`
	AcceptedOutput AcceptedOutputSummary `json:"accepted_output"`
	Results        ResultsTotals         `json:"results"`
	Files          []FileReport          `json:"files"`
}

// RunSummaryReport is the run-wide run.summary.json document.
type RunSummaryReport struct {
	SpecVersion string          `json:"spec_version"`
	Tool        ToolInfo        `json:"tool"`
	Run         RunInfo         `json:"run"`
	Config      ConfigEcho      `json:"config"`
	Report      ReportEcho      `json:"report"`
	Results     ResultsTotals   `json:"results"`
	Entities    []EntitySummary `json:"entities"`
}

// EntitySummary is one row of the run summary's entity list.
type EntitySummary struct {
	Name       string        `json:"name"`
	Status     RunStatus     `json:"status"`
	Results    ResultsTotals `json:"results"`
	ReportFile string        `json:"report_file"`
}

type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type RunInfo struct {
	RunID      string    `json:"run_id"`
	StartedAt  string    `json:"started_at"`
	FinishedAt string    `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Status     RunStatus `json:"status"`
	ExitCode   int       `json:"exit_code"`
}

type ConfigEcho struct {
	Path     string      `json:"path"`
	Version  string      `json:"version"`
	Metadata interface{} `json:"metadata,omitempty"`
}

type EntityEcho struct {
	Name     string      `json:"name"`
	Metadata interface{} `json:"metadata,omitempty"`
}

type SourceEcho struct {
	Format         string         `json:"format"`
	Path           string         `json:"path"`
	Options        interface{}    `json:"options,omitempty"`
	CastMode       string         `json:"cast_mode,omitempty"`
	ReadPlan       string         `json:"read_plan"`
	ResolvedInputs ResolvedInputs `json:"resolved_inputs"`
}

type ResolvedInputs struct {
	Mode      string   `json:"mode"`
	FileCount uint64   `json:"file_count"`
	Files     []string `json:"files"`
}

type SinkEcho struct {
	Accepted SinkTargetEcho  `json:"accepted"`
	Rejected *SinkTargetEcho `json:"rejected,omitempty"`
	Archive  SinkArchiveEcho `json:"archive"`
}

type SinkTargetEcho struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

type SinkArchiveEcho struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type PolicyEcho struct {
	Severity Severity `json:"severity"`
}

type AcceptedOutputSummary struct {
	Path          string   `json:"path"`
	AcceptedRows  uint64   `json:"accepted_rows"`
	PartsWritten  uint64   `json:"parts_written"`
	PartFiles     []string `json:"part_files,omitempty"`
}

type ReportEcho struct {
	Path       string `json:"path"`
	ReportFile string `json:"report_file"`
}

// FileReport is one input file's full validation record.
type FileReport struct {
	InputFile     string              `json:"input_file"`
	Status        FileStatus          `json:"status"`
	RowCount      uint64              `json:"row_count"`
	AcceptedCount uint64              `json:"accepted_count"`
	RejectedCount uint64              `json:"rejected_count"`
	Mismatch      check.FileMismatch  `json:"mismatch"`
	Output        FileOutput          `json:"output"`
	Validation    FileValidation      `json:"validation"`
}

type FileOutput struct {
	AcceptedPath string `json:"accepted_path,omitempty"`
	RejectedPath string `json:"rejected_path,omitempty"`
	ErrorsPath   string `json:"errors_path,omitempty"`
	ArchivedPath string `json:"archived_path,omitempty"`
}

// FileValidation aggregates row-level rule violations for one file.
// Each RuleSummary's Examples holds at most 10 entries (a fixed cap, not
// configurable) and never carries raw row values, only
// {rule, column, row_index, message}.
type FileValidation struct {
	Errors   uint64        `json:"errors"`
	Warnings uint64        `json:"warnings"`
	Rules    []RuleSummary `json:"rules"`
}

type RuleSummary struct {
	Rule       RuleName        `json:"rule"`
	Severity   Severity        `json:"severity"`
	Violations uint64          `json:"violations"`
	Columns    []ColumnSummary `json:"columns"`
	Examples   []check.RowError `json:"examples,omitempty"`
}

type ColumnSummary struct {
	Column     string `json:"column"`
	Violations uint64 `json:"violations"`
	TargetType string `json:"target_type,omitempty"`
}

// ComputeRunOutcome applies the priority table from the run status
// taxonomy: failed beats aborted beats rejected beats success, with
// success_with_warnings layered on top of a clean run that still
// carried warnings.
func ComputeRunOutcome(statuses []FileStatus, warningsTotal uint64) (RunStatus, int) {
	hasFailed, hasAborted, hasRejected := false, false, false
	for _, s := range statuses {
		switch s {
		case FileFailed:
			hasFailed = true
		case FileAborted:
			hasAborted = true
		case FileRejected:
			hasRejected = true
		}
	}
	switch {
	case hasFailed:
		return RunFailed, 1
	case hasAborted:
		return RunAborted, 2
	case hasRejected:
		return RunRejected, 0
	case warningsTotal > 0:
		return RunSuccessWithWarnings, 0
	default:
		return RunSuccess, 0
	}
}
