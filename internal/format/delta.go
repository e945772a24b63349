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

package format

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aaronlmathis/floe/internal/config"
)

// deltaClient is the subset of storage.Client a Delta commit needs: an
// upload primitive, kept narrow here so this package does not import
// internal/storage.
type deltaClient interface {
	Put(ctx context.Context, localPath, uri string) error
}

// DeltaAdapter writes an overwrite commit to a Delta table location. It
// writes the whole table as one Parquet part plus a _delta_log entry
// into a local temp directory, then uploads part-00000.parquet and log
// version 00000000000000000000.json with Client.Put; it does not
// stream to the object store or use a store-side transaction API, and
// further Parquet parts are not uploaded. The runner injects Client and
// RemoteURI before calling Write; WritesDirectly reports true so the
// runner skips its generic stage-then-upload step for this sink.
type DeltaAdapter struct {
	Client    deltaClient
	RemoteURI string
}

func (a *DeltaAdapter) Probe(ctx context.Context, localPath string) ([]string, error) {
	return nil, &Error{Op: "delta_probe", Err: fmt.Errorf("delta is a sink-only format")}
}

func (a *DeltaAdapter) ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error) {
	return nil, &Error{Op: "delta_read", Err: fmt.Errorf("delta is a sink-only format")}
}

// deltaAction is one entry of a _delta_log transaction JSON file, a
// minimal subset of the protocol: a commit info record plus one add
// record per data file, each on its own line (newline-delimited JSON,
// per the real _delta_log format).
type deltaAction struct {
	CommitInfo *deltaCommitInfo `json:"commitInfo,omitempty"`
	Add        *deltaAdd        `json:"add,omitempty"`
}

type deltaCommitInfo struct {
	Timestamp   int64  `json:"timestamp"`
	Operation   string `json:"operation"`
	IsBlindAppend bool `json:"isBlindAppend"`
}

type deltaAdd struct {
	Path           string `json:"path"`
	Size           int64  `json:"size"`
	ModTime        int64  `json:"modificationTime"`
	DataChange     bool   `json:"dataChange"`
}

func (a *DeltaAdapter) Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error {
	if a.Client == nil || a.RemoteURI == "" {
		return &Error{Op: "delta_write", Err: fmt.Errorf("delta adapter missing client/remote uri")}
	}

	stage, err := os.MkdirTemp("", "floe-delta-*")
	if err != nil {
		return &Error{Op: "delta_write", Err: err}
	}
	defer os.RemoveAll(stage)

	dataPath := filepath.Join(stage, "part-00000.parquet")
	parquet := &ParquetAdapter{}
	if err := parquet.Write(ctx, rows, columns, filepath.Dir(dataPath), opts); err != nil {
		return err
	}

	info, err := os.Stat(filepath.Join(filepath.Dir(dataPath), "part-00000.parquet"))
	if err != nil {
		return &Error{Op: "delta_write", Err: err}
	}

	version := time.Now().UTC().UnixNano()
	logDir := filepath.Join(stage, "_delta_log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return &Error{Op: "delta_write", Err: err}
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%020d.json", 0))

	actions := []deltaAction{
		{CommitInfo: &deltaCommitInfo{Timestamp: version, Operation: "WRITE", IsBlindAppend: false}},
		{Add: &deltaAdd{Path: "part-00000.parquet", Size: info.Size(), ModTime: info.ModTime().UnixMilli(), DataChange: true}},
	}
	f, err := os.Create(logPath)
	if err != nil {
		return &Error{Op: "delta_write", Err: err}
	}
	enc := json.NewEncoder(f)
	for _, action := range actions {
		if err := enc.Encode(action); err != nil {
			f.Close()
			return &Error{Op: "delta_write", Err: err}
		}
	}
	f.Close()

	if err := a.Client.Put(ctx, filepath.Join(filepath.Dir(dataPath), "part-00000.parquet"), a.RemoteURI+"/part-00000.parquet"); err != nil {
		return &Error{Op: "delta_write", Err: err}
	}
	if err := a.Client.Put(ctx, logPath, a.RemoteURI+"/_delta_log/00000000000000000000.json"); err != nil {
		return &Error{Op: "delta_write", Err: err}
	}
	return nil
}

func (a *DeltaAdapter) WritesDirectly() bool { return true }
