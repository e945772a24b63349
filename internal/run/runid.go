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
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const runIDLayout = "2006-01-02T15-04-05Z"

// AllocateRunID formats the current UTC instant as a run_id. Colons
// aren't valid in Windows or S3 object-key-as-path conventions, so the
// layout uses dashes in the time portion instead, keeping only the
// trailing "Z" to mark UTC.
func AllocateRunID() string {
	return time.Now().UTC().Format(runIDLayout)
}

// DisambiguateRunID appends a short uuid suffix to runID if reportDir
// already has a run directory with that name, covering the case where
// two runs start within the same second against the same report
// directory.
func DisambiguateRunID(reportDir, runID string) string {
	candidate := runID
	for i := 0; i < 5; i++ {
		dir := filepath.Join(reportDir, "run_"+candidate)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return candidate
		}
		candidate = runID + "-" + uuid.New().String()[:8]
	}
	return candidate
}
