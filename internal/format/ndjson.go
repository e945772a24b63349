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
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/aaronlmathis/floe/internal/config"
)

// NDJSONAdapter reads one flat JSON object per line.
type NDJSONAdapter struct{}

func (a *NDJSONAdapter) Probe(ctx context.Context, localPath string) ([]string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, &Error{Op: "ndjson_probe", Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, &Error{Op: "ndjson_probe", Err: err}
		}
		columns := make([]string, 0, len(obj))
		for k := range obj {
			columns = append(columns, k)
		}
		return columns, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Op: "ndjson_probe", Err: err}
	}
	return nil, nil
}

func (a *NDJSONAdapter) ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, &Error{Op: "ndjson_read", Err: err}
	}
	defer f.Close()

	columns := planColumns(plan)
	types := columnTypes(plan)
	batch := &Batch{Columns: columns}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	index := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return nil, &Error{Op: "ndjson_read_row", Err: err}
		}
		batch.Rows = append(batch.Rows, jsonRowToDual(index, obj, columns, types, nullValues))
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, &Error{Op: "ndjson_read", Err: err}
	}
	return batch, nil
}

func (a *NDJSONAdapter) Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error {
	f, err := os.Create(localPath)
	if err != nil {
		return &Error{Op: "ndjson_write", Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	names := planColumns(columns)
	for _, row := range rows {
		obj := make(map[string]interface{}, len(names))
		for _, col := range names {
			obj[col] = row[col]
		}
		if err := enc.Encode(obj); err != nil {
			return &Error{Op: "ndjson_write_row", Err: err}
		}
	}
	return nil
}

func (a *NDJSONAdapter) WritesDirectly() bool { return false }
