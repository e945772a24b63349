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
	"fmt"
	"sort"

	"github.com/aaronlmathis/floe/internal/config"
)

// maxMismatchColumns caps how many missing/extra column names a report
// carries, mirroring the original engine's report-size guard.
const maxMismatchColumns = 50

// MismatchAction records what the precheck actually did about a schema
// mismatch, after any severity override.
type MismatchAction string

const (
	MismatchNone         MismatchAction = "none"
	MismatchFilledNulls  MismatchAction = "filled_nulls"
	MismatchIgnoredExtra MismatchAction = "ignored_extras"
	MismatchRejectedFile MismatchAction = "rejected_file"
	MismatchAborted      MismatchAction = "aborted"
)

// FileMismatch is the file-level schema mismatch report.
type FileMismatch struct {
	DeclaredColumnsCount int            `json:"declared_columns_count"`
	InputColumnsCount    int            `json:"input_columns_count"`
	MissingColumns       []string       `json:"missing_columns"`
	ExtraColumns         []string       `json:"extra_columns"`
	Action               MismatchAction `json:"mismatch_action"`
	Error                *RowError      `json:"error,omitempty"`
	Warning              *string        `json:"warning,omitempty"`
}

// MismatchOutcome is the precheck verdict for one file: whether the
// file should skip row-level validation entirely (rejected or
// aborted), plus the report to attach to it.
type MismatchOutcome struct {
	Report   FileMismatch
	Rejected bool
	Aborted  bool
	Warnings int
	Errors   int
}

// ApplyMismatch compares the probed input columns against the declared
// schema and decides the effective missing/extra column policy,
// applying the severity=warn override: a configured reject_file action
// is demoted to fill_nulls/ignore when the entity's severity is warn,
// since warn never rejects a whole file outright.
//
// Unlike a columnar engine, fill_nulls and ignore need no follow-up
// mutation here: format adapters already project rows through the
// declared column plan, so a missing column reads back as an absent
// cell and an extra input column is never materialized in the first
// place. The policy only decides whether the mismatch becomes a
// rejection.
func ApplyMismatch(entityName string, plan []config.ColumnConfig, mismatch *config.SchemaMismatchConfig, severity string, inputColumns []string) MismatchOutcome {
	declared := make([]string, 0, len(plan))
	declaredSet := make(map[string]struct{}, len(plan))
	for _, col := range plan {
		declared = append(declared, col.Name)
		declaredSet[col.Name] = struct{}{}
	}
	inputSet := make(map[string]struct{}, len(inputColumns))
	for _, name := range inputColumns {
		inputSet[name] = struct{}{}
	}

	var missing, extra []string
	for _, name := range declared {
		if _, ok := inputSet[name]; !ok {
			missing = append(missing, name)
		}
	}
	for _, name := range inputColumns {
		if _, ok := declaredSet[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	missingPolicy := mismatch.EffectiveMissingPolicy()
	extraPolicy := mismatch.EffectiveExtraPolicy()

	rejectionRequested := (missingPolicy == "reject_file" && len(missing) > 0) ||
		(extraPolicy == "reject_file" && len(extra) > 0)

	var warning *string
	warnings := 0
	if rejectionRequested && severity == "warn" {
		msg := fmt.Sprintf("entity.name=%s schema mismatch requested reject_file but policy.severity=warn; continuing", entityName)
		warning = &msg
		warnings = 1
		missingPolicy = "fill_nulls"
		extraPolicy = "ignore"
	}

	rejected := false
	aborted := false
	action := MismatchNone
	if (missingPolicy == "reject_file" && len(missing) > 0) || (extraPolicy == "reject_file" && len(extra) > 0) {
		switch severity {
		case "abort":
			aborted = true
			action = MismatchAborted
		case "reject":
			rejected = true
			action = MismatchRejectedFile
		}
	}

	errs := 0
	var reportErr *RowError
	if rejected || aborted {
		errs = 1
		err := newRowError(RuleSchemaMismatch, "", 0, fmt.Sprintf("entity.name=%s schema mismatch: missing=%d extra=%d", entityName, len(missing), len(extra)))
		reportErr = &err
	} else {
		filled := missingPolicy == "fill_nulls" && len(missing) > 0
		ignored := extraPolicy == "ignore" && len(extra) > 0
		if filled {
			action = MismatchFilledNulls
		} else if ignored {
			action = MismatchIgnoredExtra
		}
	}

	return MismatchOutcome{
		Report: FileMismatch{
			DeclaredColumnsCount: len(declared),
			InputColumnsCount:    len(inputColumns),
			MissingColumns:       capColumns(missing),
			ExtraColumns:         capColumns(extra),
			Action:               action,
			Error:                reportErr,
			Warning:              warning,
		},
		Rejected: rejected,
		Aborted:  aborted,
		Warnings: warnings,
		Errors:   errs,
	}
}

func capColumns(names []string) []string {
	if len(names) > maxMismatchColumns {
		return names[:maxMismatchColumns]
	}
	return names
}
