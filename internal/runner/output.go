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
	"encoding/json"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
	"github.com/aaronlmathis/floe/internal/report"
)

const maxRuleExamples = 10

// assembleResults walks every file's finalized rows and builds the
// per-file report rows, the entity totals, and the two row slices
// (accepted, rejected) ready for WriteOutputs. Rows belonging to a
// wholeFile (mismatch-rejected or aborted) file contribute nothing to
// either slice: their only trace is the file's own status and
// mismatch report.
func assembleResults(states []*fileState, plan []config.ColumnConfig, severity string) ([]report.FileReport, report.ResultsTotals, []format.WriteRow, []format.WriteRow) {
	columnTypes := make(map[string]string, len(plan))
	for _, c := range plan {
		columnTypes[c.Name] = c.Type
	}

	var files []report.FileReport
	var totals report.ResultsTotals
	var accepted []format.WriteRow
	var rejected []format.WriteRow

	for _, st := range states {
		fr := report.FileReport{
			InputFile: st.target.URI,
			Status:    st.status,
			RowCount:  st.rowCount,
			Mismatch:  st.mismatch,
		}

		totals.FilesTotal++
		totals.RowsTotal += st.rowCount

		if st.wholeFile || st.status == report.FileFailed {
			files = append(files, fr)
			continue
		}

		var acceptedCount, rejectedCount uint64
		validation := report.FileValidation{}
		ruleIndex := map[string]*report.RuleSummary{}
		var ruleOrder []*report.RuleSummary

		for _, row := range st.rows {
			if len(row.Errors) == 0 {
				acceptedCount++
				accepted = append(accepted, format.WriteRow(row.Values).Clone())
				continue
			}

			for _, e := range row.Errors {
				validation.Errors++
				key := string(e.Rule) + "\x00" + e.Column
				summary, ok := ruleIndex[key]
				if !ok {
					summary = &report.RuleSummary{Rule: report.RuleName(e.Rule), Severity: report.Severity(severity)}
					ruleIndex[key] = summary
					ruleOrder = append(ruleOrder, summary)
				}
				summary.Violations++
				if len(summary.Examples) < maxRuleExamples {
					summary.Examples = append(summary.Examples, e)
				}
				addColumnViolation(summary, e.Column, columnTypes[e.Column])
			}

			if severity == "warn" {
				acceptedCount++
				validation.Warnings++
				accepted = append(accepted, format.WriteRow(row.Values).Clone())
				continue
			}

			rejectedCount++
			rejected = append(rejected, rejectedRow(row))
		}

		validation.Rules = asValues(ruleOrder)

		fr.AcceptedCount = acceptedCount
		fr.RejectedCount = rejectedCount
		fr.Validation = validation
		files = append(files, fr)

		totals.AcceptedTotal += acceptedCount
		totals.RejectedTotal += rejectedCount
		totals.WarningsTotal += validation.Warnings
		totals.ErrorsTotal += validation.Errors
	}

	return files, totals, accepted, rejected
}

func addColumnViolation(summary *report.RuleSummary, column, targetType string) {
	for i := range summary.Columns {
		if summary.Columns[i].Column == column {
			summary.Columns[i].Violations++
			return
		}
	}
	summary.Columns = append(summary.Columns, report.ColumnSummary{Column: column, Violations: 1, TargetType: targetType})
}

func asValues(ptrs []*report.RuleSummary) []report.RuleSummary {
	out := make([]report.RuleSummary, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

// rejectedRow appends the two synthetic columns the rejected dataset
// always carries: the zero-based row index within its source file and
// the JSON-encoded list of derivation errors that sent the row there.
func rejectedRow(row rowResult) format.WriteRow {
	out := format.WriteRow(row.Values).Clone()
	out["__floe_row_index"] = row.Index
	if data, err := json.Marshal(row.Errors); err == nil {
		out["__floe_errors"] = string(data)
	} else {
		out["__floe_errors"] = ""
	}
	return out
}
