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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aaronlmathis/floe/internal/check"
)

// RunDirName returns "run_<run_id>".
func RunDirName(runID string) string { return "run_" + runID }

// ReportFileName is the per-entity report's fixed file name.
func ReportFileName() string { return "run.json" }

// SummaryFileName is the run summary's fixed file name.
func SummaryFileName() string { return "run.summary.json" }

// EntityReportDir is <reportDir>/run_<runID>/<entityName>.
func EntityReportDir(reportDir, runID, entityName string) string {
	return filepath.Join(reportDir, RunDirName(runID), entityName)
}

// ReportPath is the full path to one entity's run.json.
func ReportPath(reportDir, runID, entityName string) string {
	return filepath.Join(EntityReportDir(reportDir, runID, entityName), ReportFileName())
}

// SummaryPath is the full path to a run's run.summary.json.
func SummaryPath(reportDir, runID string) string {
	return filepath.Join(reportDir, RunDirName(runID), SummaryFileName())
}

// RejectErrorsFileName is the fixed suffix an aborted file's
// error-detail companion carries next to its source stem.
func RejectErrorsFileName(sourceStem string) string { return sourceStem + "_reject_errors.json" }

// RejectErrorsPath is the full path to one aborted file's
// <source_stem>_reject_errors.json companion, per §6.2/§6.5's
// abort-only artifact.
func RejectErrorsPath(reportDir, runID, entityName, sourceStem string) string {
	return filepath.Join(EntityReportDir(reportDir, runID, entityName), RejectErrorsFileName(sourceStem))
}

// WriteRejectErrors serializes errs and atomically publishes them at
// RejectErrorsPath, using the same atomic write pattern as WriteReport.
func WriteRejectErrors(reportDir, runID, entityName, sourceStem string, errs []check.RowError) (string, error) {
	dir := EntityReportDir(reportDir, runID, entityName)
	fileName := RejectErrorsFileName(sourceStem)
	return writeAtomic(dir, RejectErrorsPath(reportDir, runID, entityName, sourceStem), fileName, errs)
}

// WriteReport serializes report and atomically publishes it at
// ReportPath: write to a ".tmp-<pid>-<ns>" sibling in the same
// directory, fsync, then rename over the final path, so a reader never
// observes a partially written run.json.
func WriteReport(reportDir, runID, entityName string, report *RunReport) (string, error) {
	dir := EntityReportDir(reportDir, runID, entityName)
	return writeAtomic(dir, ReportPath(reportDir, runID, entityName), ReportFileName(), report)
}

// WriteSummary serializes report as the run's run.summary.json using
// the same atomic write pattern as WriteReport.
func WriteSummary(reportDir, runID string, summary *RunSummaryReport) (string, error) {
	dir := filepath.Join(reportDir, RunDirName(runID))
	return writeAtomic(dir, SummaryPath(reportDir, runID), SummaryFileName(), summary)
}

func writeAtomic(dir, finalPath, fileName string, payload interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir %s: %w", dir, err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp-%d-%d", fileName, os.Getpid(), time.Now().UnixNano()))
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal %s: %w", fileName, err)
	}

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", tmpPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("report: write %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("report: sync %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("report: close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("report: rename %s: %w", tmpPath, err)
	}
	return finalPath, nil
}
