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

package core

// Record represents a single row as it moves through a format adapter.
// Each record is a map from column name to value. A raw-mode read only
// ever produces string or nil values; a typed-mode read produces the Go
// value matching the column's declared logical type (a sized integer or
// float, bool, string, time.Time, or nil).
type Record map[string]interface{}

// Clone returns a shallow copy of the record, safe to mutate independently
// of the original (used when the runner copies a validated row into the
// accepted or rejected dataset).
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
