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

	"github.com/aaronlmathis/floe/internal/config"
)

// UniqueTracker evaluates unique=true columns across every file of an
// entity, in file-order then row-order. The first non-null occurrence
// of a value wins; every later occurrence is a duplicate. It is built
// once per entity and fed one file's accepted rows at a time, in the
// order files were processed.
type UniqueTracker struct {
	columns []string
	seen    map[string]map[string]fileRow
}

type fileRow struct {
	file     string
	rowIndex int
}

// NewUniqueTracker builds a tracker for the unique=true columns in
// plan. Columns without unique=true are ignored entirely.
func NewUniqueTracker(plan []config.ColumnConfig) *UniqueTracker {
	t := &UniqueTracker{seen: make(map[string]map[string]fileRow)}
	for _, col := range plan {
		if col.Unique {
			t.columns = append(t.columns, col.Name)
			t.seen[col.Name] = make(map[string]fileRow)
		}
	}
	return t
}

// Active reports whether any column in the plan is marked unique.
func (t *UniqueTracker) Active() bool { return len(t.columns) > 0 }

// CheckRow evaluates one row's unique columns against everything seen
// so far (including earlier files) and records the row as the
// first-seen occurrence when it is not a duplicate. Null values never
// collide. Returns the duplicate errors, if any, in column order.
func (t *UniqueTracker) CheckRow(file string, rowIndex int, values map[string]interface{}) []RowError {
	var errs []RowError
	for _, col := range t.columns {
		val := values[col]
		if val == nil {
			continue
		}
		key := fmt.Sprintf("%v", val)
		seenForCol := t.seen[col]
		if _, exists := seenForCol[key]; exists {
			errs = append(errs, newRowError(RuleUnique, col, rowIndex, "duplicate value"))
			continue
		}
		seenForCol[key] = fileRow{file: file, rowIndex: rowIndex}
	}
	return errs
}
