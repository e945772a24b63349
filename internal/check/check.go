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

// Package check implements the validator: the per-cell derivation
// rules that turn a dual raw/typed read into row errors, plus the
// cross-row uniqueness pass and the file-level schema mismatch policy.
package check

import (
	"encoding/json"
	"fmt"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
)

// Rule names, matching the taxonomy the report and rejected datasets
// expose.
const (
	RuleNotNull        = "not_null"
	RuleCastError      = "cast_error"
	RuleUnique         = "unique"
	RuleSchemaMismatch = "schema_mismatch"
)

// RowError is one rule violation attributed to a single cell (or, for
// schema_mismatch, to the whole file).
type RowError struct {
	Rule     string `json:"rule"`
	Column   string `json:"column"`
	RowIndex int    `json:"row_index"`
	Message  string `json:"message"`
}

func newRowError(rule, column string, rowIndex int, message string) RowError {
	return RowError{Rule: rule, Column: column, RowIndex: rowIndex, Message: message}
}

// RowOutcome is the validator's per-row verdict: an ordered error list
// (in column declaration order) plus the fully typed values destined
// for whichever dataset the row lands in.
type RowOutcome struct {
	RowIndex int
	Errors   []RowError
	Values   map[string]interface{}
}

// Accepted reports whether the row carries no violation at all. Callers
// apply severity on top of this (warn keeps rejected rows, reject moves
// them, abort stops at the first one) — see the runner.
func (o RowOutcome) Accepted() bool { return len(o.Errors) == 0 }

// ErrorsJSON renders the row's error list the way the rejected dataset
// embeds it: "[]" style compact JSON, or nil when there is nothing to
// report.
func (o RowOutcome) ErrorsJSON() (*string, error) {
	if len(o.Errors) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(o.Errors)
	if err != nil {
		return nil, fmt.Errorf("check: marshal row errors: %w", err)
	}
	s := string(b)
	return &s, nil
}

// EvaluateBatch runs the dual-read derivation rules over every row of a
// batch and returns one RowOutcome per row, in input order. It does not
// apply uniqueness (that needs the whole entity, across files) or
// schema mismatch (that is a file-level, pre-row-loop decision) — see
// UniqueTracker and ApplyMismatch.
func EvaluateBatch(batch *format.Batch, plan []config.ColumnConfig, castMode string) ([]RowOutcome, error) {
	coerce := castMode == "coerce"
	outcomes := make([]RowOutcome, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		outcome := RowOutcome{RowIndex: row.Index, Values: make(map[string]interface{}, len(plan))}
		for _, col := range plan {
			dt, err := config.ParseDataType(col.Type)
			if err != nil {
				return nil, fmt.Errorf("check: column %s: %w", col.Name, err)
			}
			value, rowErr := evaluateCell(row, col, dt, coerce)
			outcome.Values[col.Name] = value
			if rowErr != nil {
				outcome.Errors = append(outcome.Errors, *rowErr)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// evaluateCell applies the derivation rules to a single (row, column)
// pair: cast_error wins over not_null on the same cell, string columns
// get no cast step beyond rejecting a nested JSON value (the only case
// where a string column has a raw value but no typed one), and a
// suppressed cast_error (cast_mode=coerce) still lets not_null fire
// against the now-null typed value.
func evaluateCell(row format.Row, col config.ColumnConfig, dt config.DataType, coerce bool) (interface{}, *RowError) {
	raw := row.Raw[col.Name]
	typed := row.Typed[col.Name]

	if dt.IsString() {
		if raw != nil && typed == nil && !coerce {
			err := newRowError(RuleCastError, col.Name, row.Index, "invalid value for target type")
			return nil, &err
		}
		if typed == nil && !col.IsNullable() {
			err := newRowError(RuleNotNull, col.Name, row.Index, "required value missing")
			return nil, &err
		}
		return typed, nil
	}

	rawPresent := raw != nil
	typedIsNull := typed == nil

	if rawPresent && typedIsNull {
		if !coerce {
			err := newRowError(RuleCastError, col.Name, row.Index, "invalid value for target type")
			return nil, &err
		}
		// coerce: the bad value stays null; not_null may still fire below.
	} else if !rawPresent && !col.IsNullable() {
		err := newRowError(RuleNotNull, col.Name, row.Index, "required value missing")
		return nil, &err
	}

	if typedIsNull && !col.IsNullable() {
		err := newRowError(RuleNotNull, col.Name, row.Index, "required value missing")
		return nil, &err
	}

	return typed, nil
}
