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

package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/report"
)

func boolPtr(b bool) *bool { return &b }

func writeCustomersCSV(t *testing.T, dir string) string {
	path := filepath.Join(dir, "customers.csv")
	content := "customer_id;name;email\n1;Alice;alice@example.com\n;Bob;bob@example.com\n2;Carol;carol@example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, severity string) (*config.RootConfig, string) {
	srcDir := t.TempDir()
	reportDir := t.TempDir()
	sinkDir := t.TempDir()
	writeCustomersCSV(t, srcDir)

	cfg := &config.RootConfig{
		Version: "1",
		Report:  config.ReportConfig{Path: reportDir},
		Entities: []config.EntityConfig{
			{
				Name:   "customers",
				Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
				Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(sinkDir, "accepted.csv")}},
				Policy: config.PolicyConfig{Severity: severity},
				Schema: config.SchemaConfig{Columns: []config.ColumnConfig{
					{Name: "customer_id", Type: "string", Nullable: boolPtr(false), Unique: true},
					{Name: "name", Type: "string"},
					{Name: "email", Type: "string"},
				}},
			},
		},
	}
	return cfg, reportDir
}

func TestDriverRunWarnSeverityWritesSuccessWithWarningsSummary(t *testing.T) {
	cfg, reportDir := testConfig(t, "warn")

	exitCode, err := NewDriver().Run(context.Background(), cfg, Options{ConfigPath: "floe.yaml", RunID: "2026-01-01T00-00-00Z"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, exitCode)

	summaryPath := report.SummaryPath(reportDir, "2026-01-01T00-00-00Z")
	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)

	var summary report.RunSummaryReport
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, report.RunSuccessWithWarnings, summary.Run.Status)
	require.Len(t, summary.Entities, 1)
	assert.Equal(t, "customers", summary.Entities[0].Name)

	entityReportPath := report.ReportPath(reportDir, "2026-01-01T00-00-00Z", "customers")
	data, err = os.ReadFile(entityReportPath)
	require.NoError(t, err)
	var entityReport report.RunReport
	require.NoError(t, json.Unmarshal(data, &entityReport))
	assert.EqualValues(t, 3, entityReport.Results.RowsTotal)
	assert.EqualValues(t, 1, entityReport.Results.WarningsTotal)
}

func TestDriverRunAbortSeverityExitsWithAbortCode(t *testing.T) {
	cfg, reportDir := testConfig(t, "abort")

	exitCode, err := NewDriver().Run(context.Background(), cfg, Options{ConfigPath: "floe.yaml", RunID: "2026-01-01T00-00-01Z"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, exitCode)

	summaryPath := report.SummaryPath(reportDir, "2026-01-01T00-00-01Z")
	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary report.RunSummaryReport
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, report.RunAborted, summary.Run.Status)
}

func TestDriverRunEntitiesFilterRejectsUnknownName(t *testing.T) {
	cfg, _ := testConfig(t, "warn")

	_, err := NewDriver().Run(context.Background(), cfg, Options{ConfigPath: "floe.yaml", Entities: []string{"does-not-exist"}})
	assert.Error(t, err)
}

func TestAllocateRunIDUsesDashedUTCFormat(t *testing.T) {
	id := AllocateRunID()
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}Z$`, id)
}
