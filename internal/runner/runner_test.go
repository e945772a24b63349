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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/floe/internal/check"
	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/report"
	"github.com/aaronlmathis/floe/internal/storage"
	"github.com/aaronlmathis/floe/internal/target"
)

func newTestRunner(t *testing.T) *Runner {
	reg := storage.NewRegistry(nil)
	resolver := target.NewResolver(reg, t.TempDir())
	return NewRunner(resolver, reg)
}

func boolPtr(b bool) *bool { return &b }

func writeCSV(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func customerPlan() []config.ColumnConfig {
	return []config.ColumnConfig{
		{Name: "customer_id", Type: "string", Nullable: boolPtr(false), Unique: true},
		{Name: "name", Type: "string"},
		{Name: "email", Type: "string"},
	}
}

func TestRunEntityWarnSeverityKeepsAllRowsButCountsViolations(t *testing.T) {
	srcDir := t.TempDir()
	writeCSV(t, srcDir, "customers.csv",
		"customer_id;name;email\n1;Alice;alice@example.com\n;Bob;bob@example.com\n1;Carol;carol@example.com\n")

	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
		Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")}},
		Policy: config.PolicyConfig{Severity: "warn"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	require.False(t, result.Aborted)
	require.False(t, result.HasFailure)

	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileSuccess, result.Files[0].Status)
	assert.EqualValues(t, 3, result.Files[0].RowCount)
	assert.EqualValues(t, 3, result.Files[0].AcceptedCount)
	assert.EqualValues(t, 0, result.Files[0].RejectedCount)
	assert.EqualValues(t, 2, result.Files[0].Validation.Warnings) // missing customer_id + duplicate customer_id
	assert.Len(t, result.AcceptedRows, 3)
}

func TestRunEntityRejectSeverityMovesBadRowsToRejected(t *testing.T) {
	srcDir := t.TempDir()
	writeCSV(t, srcDir, "customers.csv",
		"customer_id;name;email\n1;Alice;alice@example.com\n;Bob;bob@example.com\n1;Carol;carol@example.com\n")

	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
		Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")}},
		Policy: config.PolicyConfig{Severity: "reject"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	require.False(t, result.Aborted)

	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileRejected, result.Files[0].Status)
	assert.EqualValues(t, 1, result.Files[0].AcceptedCount) // Alice only
	assert.EqualValues(t, 2, result.Files[0].RejectedCount) // Bob (not_null) + Carol (duplicate)
	assert.Len(t, result.AcceptedRows, 1)
	assert.Len(t, result.RejectedRows, 2)
	for _, row := range result.RejectedRows {
		assert.Contains(t, row, "__floe_row_index")
		assert.Contains(t, row, "__floe_errors")
	}
}

func TestRunEntityAbortSeverityStopsAtFirstOffendingRowAndWithholdsOutput(t *testing.T) {
	srcDir := t.TempDir()
	srcContent := "customer_id;name;email\n1;Alice;alice@example.com\n;Bob;bob@example.com\n"
	writeCSV(t, srcDir, "customers.csv", srcContent)

	rejectedPath := filepath.Join(t.TempDir(), "rejected.csv")
	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
		Sink: config.SinkConfig{
			Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")},
			Rejected: &config.SinkTarget{Format: "csv", Path: rejectedPath},
		},
		Policy: config.PolicyConfig{Severity: "abort"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileAborted, result.Files[0].Status)
	assert.Empty(t, result.AcceptedRows)

	reportDir := t.TempDir()
	require.NoError(t, rn.WriteAbortArtifacts(context.Background(), entity, result, reportDir, "2026-01-19T10-23-45Z"))

	copied, err := os.ReadFile(rejectedPath)
	require.NoError(t, err)
	assert.Equal(t, srcContent, string(copied))
	assert.NotContains(t, string(copied), "__floe_row_index")

	errorsPath := filepath.Join(reportDir, "run_2026-01-19T10-23-45Z", "customers", "customers_reject_errors.json")
	data, err := os.ReadFile(errorsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "not_null")
	assert.Equal(t, errorsPath, result.Files[0].Output.ErrorsPath)
	assert.Equal(t, "local://"+rejectedPath, result.Files[0].Output.RejectedPath)
}

func TestRunEntityAbortAcrossFilesOnCrossFileDuplicate(t *testing.T) {
	srcDir := t.TempDir()
	writeCSV(t, srcDir, "a_customers.csv", "customer_id;name;email\n1;Alice;alice@example.com\n")
	bContent := "customer_id;name;email\n1;Carol;carol@example.com\n"
	writeCSV(t, srcDir, "b_customers.csv", bContent)

	rejectedPath := filepath.Join(t.TempDir(), "rejected.csv")
	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: srcDir},
		Sink: config.SinkConfig{
			Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")},
			Rejected: &config.SinkTarget{Format: "csv", Path: rejectedPath},
		},
		Policy: config.PolicyConfig{Severity: "abort"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	require.Len(t, result.Files, 2)
	assert.Equal(t, report.FileSuccess, result.Files[0].Status)
	assert.Equal(t, report.FileAborted, result.Files[1].Status)
	assert.Empty(t, result.AcceptedRows)

	reportDir := t.TempDir()
	require.NoError(t, rn.WriteAbortArtifacts(context.Background(), entity, result, reportDir, "2026-01-19T10-23-45Z"))

	// Only the file that triggered the abort (b_customers.csv) is byte-copied.
	copied, err := os.ReadFile(rejectedPath)
	require.NoError(t, err)
	assert.Equal(t, bContent, string(copied))

	errorsPath := filepath.Join(reportDir, "run_2026-01-19T10-23-45Z", "customers", "b_customers_reject_errors.json")
	data, err := os.ReadFile(errorsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "unique")
}

func TestRunEntityAbortsOnMissingColumnUnderDefaultMismatchPolicy(t *testing.T) {
	srcDir := t.TempDir()
	srcContent := "customer_id;name\n1;Alice\n"
	writeCSV(t, srcDir, "customers.csv", srcContent)

	plan := append(customerPlan(), config.ColumnConfig{Name: "phone", Type: "string"})
	rejectedPath := filepath.Join(t.TempDir(), "rejected.csv")
	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
		Sink: config.SinkConfig{
			Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")},
			Rejected: &config.SinkTarget{Format: "csv", Path: rejectedPath},
		},
		Policy: config.PolicyConfig{Severity: "abort"},
		Schema: config.SchemaConfig{Columns: plan}, // no explicit schema.mismatch: default policy applies
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileAborted, result.Files[0].Status)
	assert.Equal(t, check.MismatchAborted, result.Files[0].Mismatch.Action)
	assert.Equal(t, []string{"email", "phone"}, result.Files[0].Mismatch.MissingColumns)
	assert.Empty(t, result.AcceptedRows)

	reportDir := t.TempDir()
	require.NoError(t, rn.WriteAbortArtifacts(context.Background(), entity, result, reportDir, "2026-01-19T10-23-45Z"))

	copied, err := os.ReadFile(rejectedPath)
	require.NoError(t, err)
	assert.Equal(t, srcContent, string(copied))

	errorsPath := filepath.Join(reportDir, "run_2026-01-19T10-23-45Z", "customers", "customers_reject_errors.json")
	data, err := os.ReadFile(errorsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema_mismatch")
}

func TestRunEntityReadsJSONArraySourceWhenOptionsSelectArray(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"customer_id":"1","name":"Alice","email":"alice@example.com"},`+
			`{"customer_id":"2","name":"Bob","email":"bob@example.com"}]`), 0o644))

	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "json", Path: path, Options: &config.SourceOptions{Array: true}},
		Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")}},
		Policy: config.PolicyConfig{Severity: "warn"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	require.False(t, result.Aborted)
	require.False(t, result.HasFailure)
	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileSuccess, result.Files[0].Status)
	assert.EqualValues(t, 2, result.Files[0].RowCount)
	assert.Len(t, result.AcceptedRows, 2)
}

func TestRunEntityReadsNDJSONSourceByDefault(t *testing.T) {
	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "customers.json")
	require.NoError(t, os.WriteFile(path, []byte(
		"{\"customer_id\":\"1\",\"name\":\"Alice\",\"email\":\"alice@example.com\"}\n"+
			"{\"customer_id\":\"2\",\"name\":\"Bob\",\"email\":\"bob@example.com\"}\n"), 0o644))

	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "json", Path: path},
		Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: filepath.Join(t.TempDir(), "accepted.csv")}},
		Policy: config.PolicyConfig{Severity: "warn"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)
	require.False(t, result.Aborted)
	require.False(t, result.HasFailure)
	require.Len(t, result.Files, 1)
	assert.Equal(t, report.FileSuccess, result.Files[0].Status)
	assert.EqualValues(t, 2, result.Files[0].RowCount)
}

func TestWriteOutputsWritesAcceptedCSV(t *testing.T) {
	srcDir := t.TempDir()
	writeCSV(t, srcDir, "customers.csv",
		"customer_id;name;email\n1;Alice;alice@example.com\n2;Bob;bob@example.com\n")

	outPath := filepath.Join(t.TempDir(), "accepted.csv")
	entity := config.EntityConfig{
		Name:   "customers",
		Source: config.SourceConfig{Format: "csv", Path: filepath.Join(srcDir, "customers.csv")},
		Sink:   config.SinkConfig{Accepted: config.SinkTarget{Format: "csv", Path: outPath}},
		Policy: config.PolicyConfig{Severity: "warn"},
		Schema: config.SchemaConfig{Columns: customerPlan()},
	}

	rn := newTestRunner(t)
	result, err := rn.RunEntity(context.Background(), entity)
	require.NoError(t, err)

	require.NoError(t, rn.WriteOutputs(context.Background(), entity, result))
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alice")
	assert.Contains(t, string(data), "Bob")

	assert.Equal(t, "local://"+outPath, result.AcceptedOutput.Path)
	assert.EqualValues(t, 2, result.AcceptedOutput.AcceptedRows)
	assert.EqualValues(t, 1, result.AcceptedOutput.PartsWritten)
	assert.Equal(t, []string{"local://" + outPath}, result.AcceptedOutput.PartFiles)
}
