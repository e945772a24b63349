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

// Package format implements the per-format probe/read/write adapters:
// CSV, Parquet, NDJSON, JSON-array sources, and Parquet/Delta/CSV sinks.
// Every source adapter performs the dual raw/typed read the validator
// needs to tell a missing value apart from one that failed to cast.
package format

import (
	"context"

	"github.com/aaronlmathis/floe/core"
	"github.com/aaronlmathis/floe/internal/config"
)

// Row is one dual-read record. Raw holds the untyped textual value per
// column (nil when the source had no value at all); Typed holds the
// cast value per the declared column plan (nil when absent or when
// casting failed and was coerced to null).
type Row struct {
	Index int
	Raw   map[string]*string
	Typed map[string]interface{}
}

// Batch is a dual-read projection of one input file in column-plan
// order.
type Batch struct {
	Columns []string
	Rows    []Row
}

// WriteRow is one row of the accepted or rejected dataset, already
// reduced to final typed values (no raw/typed distinction past the
// validator). It is a core.Record, so the runner can clone rows out
// of its working state without a separate record type.
type WriteRow = core.Record

// WriteOptions configures a sink write.
type WriteOptions struct {
	Compression    string
	RowGroupSize   int64
	MaxSizePerFile int64
	Separator      byte
}

// Adapter is the per-format capability set: probing a header/schema
// without reading the whole file, performing the validator's dual read,
// and writing a finished batch to a sink.
type Adapter interface {
	// Probe returns the column names found in the file, without
	// applying any cast.
	Probe(ctx context.Context, localPath string) ([]string, error)
	// ReadTyped performs the dual raw/typed read against the declared
	// column plan, honoring castMode only in how callers interpret the
	// resulting cast_error cells — the adapter always populates both
	// projections.
	ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error)
	// Write emits rows to localPath. Adapters with
	// WritesDirectly()==true ignore localPath and write to the remote
	// URI they were configured with.
	Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error
	// WritesDirectly reports whether Write speaks to the destination
	// URI itself rather than a local staging path the caller must
	// upload afterward.
	WritesDirectly() bool
}

// ByName returns the adapter for a source/sink format name.
func ByName(name string) (Adapter, error) {
	switch name {
	case "csv":
		return &CSVAdapter{}, nil
	case "parquet":
		return &ParquetAdapter{}, nil
	case "json", "ndjson":
		return &NDJSONAdapter{}, nil
	case "json_array", "jsonarray":
		return &JSONArrayAdapter{}, nil
	case "delta":
		return &DeltaAdapter{}, nil
	default:
		return nil, &Error{Op: "by_name", Err: unsupportedFormat(name)}
	}
}

// Error wraps a format-adapter failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "format " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func unsupportedFormat(name string) error {
	return &unsupportedFormatError{name: name}
}

type unsupportedFormatError struct{ name string }

func (e *unsupportedFormatError) Error() string { return "unsupported format: " + e.name }
