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
	"os"

	"github.com/aaronlmathis/floe/internal/config"
)

// JSONArrayAdapter reads a single top-level JSON array of flat objects.
type JSONArrayAdapter struct{}

func (a *JSONArrayAdapter) decodeAll(localPath string) ([]map[string]interface{}, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, &Error{Op: "json_array_read", Err: err}
	}
	defer f.Close()

	var objs []map[string]interface{}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&objs); err != nil {
		return nil, &Error{Op: "json_array_read", Err: err}
	}
	return objs, nil
}

func (a *JSONArrayAdapter) Probe(ctx context.Context, localPath string) ([]string, error) {
	objs, err := a.decodeAll(localPath)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	columns := make([]string, 0, len(objs[0]))
	for k := range objs[0] {
		columns = append(columns, k)
	}
	return columns, nil
}

func (a *JSONArrayAdapter) ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error) {
	objs, err := a.decodeAll(localPath)
	if err != nil {
		return nil, err
	}

	columns := planColumns(plan)
	types := columnTypes(plan)
	batch := &Batch{Columns: columns}
	for i, obj := range objs {
		batch.Rows = append(batch.Rows, jsonRowToDual(i, obj, columns, types, nullValues))
	}
	return batch, nil
}

func (a *JSONArrayAdapter) Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error {
	f, err := os.Create(localPath)
	if err != nil {
		return &Error{Op: "json_array_write", Err: err}
	}
	defer f.Close()

	names := planColumns(columns)
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]interface{}, len(names))
		for _, col := range names {
			obj[col] = row[col]
		}
		out = append(out, obj)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return &Error{Op: "json_array_write", Err: err}
	}
	return nil
}

func (a *JSONArrayAdapter) WritesDirectly() bool { return false }
