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
	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/format"
	"github.com/aaronlmathis/floe/internal/report"
)

// EntityResult is the complete outcome of RunEntity: the per-file
// report rows, the entity-wide totals, and (unless the entity aborted
// or a file failed outright) the rows ready for WriteOutputs.
type EntityResult struct {
	Entity         config.EntityConfig
	ResolvedInputs []string
	Files          []report.FileReport
	Totals         report.ResultsTotals
	Aborted        bool
	HasFailure     bool
	CancelledAt    string

	AcceptedRows []format.WriteRow
	RejectedRows []format.WriteRow

	// AcceptedOutput is populated by WriteOutputs with the path and
	// part-file list the accepted dataset actually landed at. Zero
	// value until WriteOutputs runs.
	AcceptedOutput report.AcceptedOutputSummary

	states []*fileState
}

// Status derives the entity's overall run status from its file
// statuses and warning count, per the same priority table the run
// driver applies across entities.
func (r *EntityResult) Status() (report.RunStatus, int) {
	statuses := make([]report.FileStatus, len(r.Files))
	for i, f := range r.Files {
		statuses[i] = f.Status
	}
	return report.ComputeRunOutcome(statuses, r.Totals.WarningsTotal)
}
