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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aaronlmathis/floe/internal/config"
)

// CSVAdapter reads and writes CSV, performing the validator's dual
// read directly off the encoding/csv token stream: every field is
// captured verbatim into Raw, then cast per the column plan into Typed.
type CSVAdapter struct {
	Separator byte
	HasHeader bool
}

func (a *CSVAdapter) reader(f *os.File) *csv.Reader {
	r := csv.NewReader(f)
	sep := a.Separator
	if sep == 0 {
		sep = ';'
	}
	r.Comma = rune(sep)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

func (a *CSVAdapter) Probe(ctx context.Context, localPath string) ([]string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, &Error{Op: "csv_probe", Err: err}
	}
	defer f.Close()

	r := a.reader(f)
	if !a.HasHeader {
		record, err := r.Read()
		if err != nil {
			return nil, &Error{Op: "csv_probe", Err: err}
		}
		headers := make([]string, len(record))
		for i := range record {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
		return headers, nil
	}
	headers, err := r.Read()
	if err != nil {
		return nil, &Error{Op: "csv_probe", Err: err}
	}
	return headers, nil
}

func (a *CSVAdapter) ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, &Error{Op: "csv_read", Err: err}
	}
	defer f.Close()

	r := a.reader(f)

	var headers []string
	if a.HasHeader {
		headers, err = r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &Batch{Columns: planColumns(plan)}, nil
			}
			return nil, &Error{Op: "csv_read_header", Err: err}
		}
	}

	columns := planColumns(plan)
	types := make(map[string]config.DataType, len(plan))
	for _, c := range plan {
		t, _ := config.ParseDataType(c.Type)
		types[c.Name] = t
	}

	batch := &Batch{Columns: columns}
	rowIndex := 0
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &Error{Op: "csv_read_row", Err: err}
		}

		row := Row{Index: rowIndex, Raw: make(map[string]*string, len(columns)), Typed: make(map[string]interface{}, len(columns))}
		for i, col := range columns {
			var cell string
			if headers != nil {
				if idx := indexOf(headers, col); idx >= 0 && idx < len(record) {
					cell = record[idx]
				}
			} else if i < len(record) {
				cell = record[i]
			}

			if IsNullValue(cell, nullValues) {
				row.Raw[col] = nil
				row.Typed[col] = nil
				continue
			}
			v := cell
			row.Raw[col] = &v
			value, ok := CastCell(cell, types[col])
			if ok {
				row.Typed[col] = value
			} else {
				row.Typed[col] = nil
			}
		}
		batch.Rows = append(batch.Rows, row)
		rowIndex++
	}
	return batch, nil
}

func (a *CSVAdapter) Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error {
	f, err := os.Create(localPath)
	if err != nil {
		return &Error{Op: "csv_write", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	sep := opts.Separator
	if sep == 0 {
		sep = ';'
	}
	w.Comma = rune(sep)

	headers := planColumns(columns)
	if err := w.Write(headers); err != nil {
		return &Error{Op: "csv_write_header", Err: err}
	}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, col := range headers {
			if v, ok := row[col]; ok && v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		if err := w.Write(record); err != nil {
			return &Error{Op: "csv_write_row", Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &Error{Op: "csv_flush", Err: err}
	}
	return nil
}

func (a *CSVAdapter) WritesDirectly() bool { return false }

func planColumns(plan []config.ColumnConfig) []string {
	out := make([]string, len(plan))
	for i, c := range plan {
		out[i] = c.Name
	}
	return out
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
