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

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
)

func strPtr(s string) *string { return &s }

func falseBool() *bool {
	b := false
	return &b
}

func TestEvaluateBatchFlagsMissingRequiredValue(t *testing.T) {
	plan := []config.ColumnConfig{
		{Name: "customer_id", Type: "string", Nullable: falseBool()},
	}
	batch := &format.Batch{
		Columns: []string{"customer_id"},
		Rows: []format.Row{
			{Index: 0, Raw: map[string]*string{"customer_id": strPtr("A")}, Typed: map[string]interface{}{"customer_id": "A"}},
			{Index: 1, Raw: map[string]*string{"customer_id": nil}, Typed: map[string]interface{}{"customer_id": nil}},
			{Index: 2, Raw: map[string]*string{"customer_id": strPtr("B")}, Typed: map[string]interface{}{"customer_id": "B"}},
		},
	}

	outcomes, err := EvaluateBatch(batch, plan, "strict")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Accepted())
	require.Len(t, outcomes[1].Errors, 1)
	assert.Equal(t, RowError{Rule: RuleNotNull, Column: "customer_id", RowIndex: 1, Message: "required value missing"}, outcomes[1].Errors[0])
	assert.True(t, outcomes[2].Accepted())
}

func TestEvaluateBatchFlagsCastError(t *testing.T) {
	plan := []config.ColumnConfig{
		{Name: "created_at", Type: "datetime", Nullable: func() *bool { b := true; return &b }()},
	}
	batch := &format.Batch{
		Columns: []string{"created_at"},
		Rows: []format.Row{
			{Index: 0, Raw: map[string]*string{"created_at": strPtr("2024-01-01T00:00:00Z")}, Typed: map[string]interface{}{"created_at": "parsed"}},
			{Index: 1, Raw: map[string]*string{"created_at": strPtr("bad-date")}, Typed: map[string]interface{}{"created_at": nil}},
		},
	}

	outcomes, err := EvaluateBatch(batch, plan, "strict")
	require.NoError(t, err)

	assert.True(t, outcomes[0].Accepted())
	require.Len(t, outcomes[1].Errors, 1)
	assert.Equal(t, RuleCastError, outcomes[1].Errors[0].Rule)
}

func TestEvaluateBatchCoerceSuppressesCastError(t *testing.T) {
	plan := []config.ColumnConfig{
		{Name: "d", Type: "datetime", Nullable: func() *bool { b := true; return &b }()},
	}
	batch := &format.Batch{
		Columns: []string{"d"},
		Rows: []format.Row{
			{Index: 0, Raw: map[string]*string{"d": strPtr("not-a-date")}, Typed: map[string]interface{}{"d": nil}},
		},
	}

	outcomes, err := EvaluateBatch(batch, plan, "coerce")
	require.NoError(t, err)
	assert.True(t, outcomes[0].Accepted())
	assert.Nil(t, outcomes[0].Values["d"])
}

func TestEvaluateBatchCastErrorWinsOverNotNull(t *testing.T) {
	plan := []config.ColumnConfig{
		{Name: "qty", Type: "int64", Nullable: falseBool()},
	}
	batch := &format.Batch{
		Columns: []string{"qty"},
		Rows: []format.Row{
			{Index: 0, Raw: map[string]*string{"qty": strPtr("abc")}, Typed: map[string]interface{}{"qty": nil}},
		},
	}

	outcomes, err := EvaluateBatch(batch, plan, "strict")
	require.NoError(t, err)
	require.Len(t, outcomes[0].Errors, 1)
	assert.Equal(t, RuleCastError, outcomes[0].Errors[0].Rule)
}

func TestUniqueTrackerFlagsDuplicatesAfterFirst(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "order_id", Type: "string", Unique: true}}
	tracker := NewUniqueTracker(plan)
	require.True(t, tracker.Active())

	values := []map[string]interface{}{
		{"order_id": "o-1"},
		{"order_id": "o-2"},
		{"order_id": "o-1"},
		{"order_id": nil},
		{"order_id": "o-2"},
	}

	var results [][]RowError
	for i, v := range values {
		results = append(results, tracker.CheckRow("file-a", i, v))
	}

	assert.Empty(t, results[0])
	assert.Empty(t, results[1])
	require.Len(t, results[2], 1)
	assert.Equal(t, RuleUnique, results[2][0].Rule)
	assert.Empty(t, results[3])
	require.Len(t, results[4], 1)
}

func TestApplyMismatchRejectsFileOnMissingColumnByDefault(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}, {Name: "b", Type: "string"}}
	outcome := ApplyMismatch("orders", plan, nil, "reject", []string{"a"})

	assert.True(t, outcome.Rejected)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, MismatchRejectedFile, outcome.Report.Action)
	assert.Equal(t, []string{"b"}, outcome.Report.MissingColumns)
	assert.Equal(t, 1, outcome.Errors)
}

func TestApplyMismatchFillsNullsWhenConfiguredExplicitly(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}, {Name: "b", Type: "string"}}
	mismatch := &config.SchemaMismatchConfig{MissingColumns: "fill_nulls"}

	outcome := ApplyMismatch("orders", plan, mismatch, "reject", []string{"a"})
	assert.False(t, outcome.Rejected)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, MismatchFilledNulls, outcome.Report.Action)
	assert.Equal(t, []string{"b"}, outcome.Report.MissingColumns)
}

func TestApplyMismatchRejectsFileOnMissingColumn(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}, {Name: "b", Type: "string"}}
	mismatch := &config.SchemaMismatchConfig{MissingColumns: "reject_file"}

	outcome := ApplyMismatch("orders", plan, mismatch, "reject", []string{"a"})
	assert.True(t, outcome.Rejected)
	assert.Equal(t, MismatchRejectedFile, outcome.Report.Action)
	assert.Equal(t, 1, outcome.Errors)
}

func TestApplyMismatchAbortsOnMissingColumnByDefault(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}, {Name: "b", Type: "string"}}

	outcome := ApplyMismatch("orders", plan, nil, "abort", []string{"a"})
	assert.True(t, outcome.Aborted)
	assert.Equal(t, MismatchAborted, outcome.Report.Action)
}

func TestApplyMismatchWarnSeverityOverridesRejectFile(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}, {Name: "b", Type: "string"}}
	mismatch := &config.SchemaMismatchConfig{MissingColumns: "reject_file"}

	outcome := ApplyMismatch("orders", plan, mismatch, "warn", []string{"a"})
	assert.False(t, outcome.Rejected)
	assert.False(t, outcome.Aborted)
	assert.Equal(t, 1, outcome.Warnings)
	require.NotNil(t, outcome.Report.Warning)
	assert.Equal(t, MismatchFilledNulls, outcome.Report.Action)
}

func TestApplyMismatchIgnoresExtraColumns(t *testing.T) {
	plan := []config.ColumnConfig{{Name: "a", Type: "string"}}
	outcome := ApplyMismatch("orders", plan, nil, "reject", []string{"a", "z"})

	assert.Equal(t, MismatchIgnoredExtra, outcome.Report.Action)
	assert.Equal(t, []string{"z"}, outcome.Report.ExtraColumns)
}
