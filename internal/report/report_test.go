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

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/floe/internal/check"
)

func TestRunDirNameAndFileNames(t *testing.T) {
	assert.Equal(t, "run_2026-01-19T10-23-45Z", RunDirName("2026-01-19T10-23-45Z"))
	assert.Equal(t, "run.json", ReportFileName())
	assert.Equal(t, "run.summary.json", SummaryFileName())
}

func TestComputeRunOutcomeTable(t *testing.T) {
	cases := []struct {
		statuses []FileStatus
		warnings uint64
		status   RunStatus
		code     int
	}{
		{nil, 0, RunSuccess, 0},
		{[]FileStatus{FileSuccess}, 0, RunSuccess, 0},
		{[]FileStatus{FileSuccess}, 3, RunSuccessWithWarnings, 0},
		{[]FileStatus{FileRejected}, 0, RunRejected, 0},
		{[]FileStatus{FileAborted}, 0, RunAborted, 2},
		{[]FileStatus{FileFailed}, 0, RunFailed, 1},
		{[]FileStatus{FileSuccess, FileRejected, FileAborted}, 0, RunAborted, 2},
		{[]FileStatus{FileSuccess, FileRejected, FileFailed}, 0, RunFailed, 1},
	}
	for _, c := range cases {
		status, code := ComputeRunOutcome(c.statuses, c.warnings)
		assert.Equal(t, c.status, status)
		assert.Equal(t, c.code, code)
	}
}

func sampleReport() *RunReport {
	return &RunReport{
		SpecVersion: "0.1",
		Entity:      EntityEcho{Name: "customer"},
		Source: SourceEcho{
			Format: "csv", Path: "/tmp/input", CastMode: "strict", ReadPlan: "raw_and_typed",
			ResolvedInputs: ResolvedInputs{Mode: "directory", FileCount: 1, Files: []string{"/tmp/input/file.csv"}},
		},
		Sink: SinkEcho{
			Accepted: SinkTargetEcho{Format: "parquet", Path: "/tmp/out/accepted"},
			Archive:  SinkArchiveEcho{Enabled: false},
		},
		Policy:         PolicyEcho{Severity: SeverityWarn},
		AcceptedOutput: AcceptedOutputSummary{Path: "/tmp/out/accepted", AcceptedRows: 10, PartsWritten: 1},
		Results:        ResultsTotals{FilesTotal: 1, RowsTotal: 10, AcceptedTotal: 10},
		Files: []FileReport{{
			InputFile: "/tmp/input/file.csv", Status: FileSuccess, RowCount: 10, AcceptedCount: 10,
		}},
	}
}

func TestWriteReportWritesJSONFileWithoutLeftoverTemp(t *testing.T) {
	dir := t.TempDir()
	runID := "2026-01-19T10-23-45Z"

	path, err := WriteReport(dir, runID, "customer", sampleReport())
	require.NoError(t, err)

	expected := filepath.Join(dir, "run_"+runID, "customer", "run.json")
	assert.Equal(t, expected, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "entity")
	assert.Contains(t, decoded, "results")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"), "leftover temp file: %s", entry.Name())
	}
}

func TestWriteSummaryWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	runID := "2026-01-19T10-23-45Z"
	summary := &RunSummaryReport{
		SpecVersion: "0.1",
		Tool:        ToolInfo{Name: "floe", Version: "0.1.0"},
		Run:         RunInfo{RunID: runID, Status: RunSuccess, ExitCode: 0},
		Config:      ConfigEcho{Path: "/tmp/config.yml", Version: "0.1"},
		Report:      ReportEcho{Path: dir, ReportFile: filepath.Join(dir, "run_"+runID, "run.summary.json")},
		Results:     ResultsTotals{FilesTotal: 1, RowsTotal: 10, AcceptedTotal: 10},
		Entities:    []EntitySummary{{Name: "customer", Status: RunSuccess}},
	}

	path, err := WriteSummary(dir, runID, summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run_"+runID, "run.summary.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "run")
}

func TestWriteRejectErrorsWritesJSONFileNextToRunReport(t *testing.T) {
	dir := t.TempDir()
	runID := "2026-01-19T10-23-45Z"
	errs := []check.RowError{{Rule: check.RuleNotNull, Column: "customer_id", RowIndex: 1, Message: "required value missing"}}

	path, err := WriteRejectErrors(dir, runID, "customer", "customers", errs)
	require.NoError(t, err)

	expected := filepath.Join(dir, "run_"+runID, "customer", "customers_reject_errors.json")
	assert.Equal(t, expected, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []check.RowError
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "customer_id", decoded[0].Column)
}
