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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/arrow/memory"
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/floe/internal/config"
)

// ParquetAdapter reads and writes Parquet. Since Parquet is typed at
// rest, the dual read's "raw" projection is a stringified copy of each
// stored value rather than a second decode pass; cast_error fires when
// the declared column type can't hold the value Arrow already
// produced, not when text fails to parse.
type ParquetAdapter struct{}

func (a *ParquetAdapter) openSchema(localPath string) (*pqarrow.FileReader, *arrow.Schema, *os.File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, nil, nil, &Error{Op: "parquet_open", Err: err}
	}
	pf, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, &Error{Op: "parquet_open", Err: err}
	}
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		f.Close()
		return nil, nil, nil, &Error{Op: "parquet_open", Err: err}
	}
	schema, err := reader.Schema()
	if err != nil {
		f.Close()
		return nil, nil, nil, &Error{Op: "parquet_schema", Err: err}
	}
	return reader, schema, f, nil
}

func (a *ParquetAdapter) Probe(ctx context.Context, localPath string) ([]string, error) {
	reader, schema, f, err := a.openSchema(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	_ = reader
	names := make([]string, len(schema.Fields()))
	for i, field := range schema.Fields() {
		names[i] = field.Name
	}
	return names, nil
}

func (a *ParquetAdapter) ReadTyped(ctx context.Context, localPath string, plan []config.ColumnConfig, nullValues []string) (*Batch, error) {
	reader, schema, f, err := a.openSchema(localPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recordReader, err := reader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, &Error{Op: "parquet_record_reader", Err: err}
	}
	defer recordReader.Release()

	columns := planColumns(plan)
	types := columnTypes(plan)
	fieldIndex := make(map[string]int, len(schema.Fields()))
	for i, field := range schema.Fields() {
		fieldIndex[field.Name] = i
	}

	batch := &Batch{Columns: columns}
	index := 0
	for {
		rec, err := recordReader.Read()
		if err != nil {
			break
		}
		if rec == nil || rec.NumRows() == 0 {
			break
		}
		for pos := 0; pos < int(rec.NumRows()); pos++ {
			row := Row{Index: index, Raw: make(map[string]*string, len(columns)), Typed: make(map[string]interface{}, len(columns))}
			for _, col := range columns {
				fi, ok := fieldIndex[col]
				if !ok {
					row.Raw[col] = nil
					row.Typed[col] = nil
					continue
				}
				native := arrowValueAt(rec.Column(fi), pos)
				if native == nil {
					row.Raw[col] = nil
					row.Typed[col] = nil
					continue
				}
				text := fmt.Sprintf("%v", native)
				row.Raw[col] = &text
				row.Typed[col] = convertNative(native, types[col])
			}
			batch.Rows = append(batch.Rows, row)
			index++
		}
		rec.Release()
	}
	return batch, nil
}

func arrowValueAt(col arrow.Array, pos int) interface{} {
	if col.IsNull(pos) {
		return nil
	}
	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(pos)
	case *array.Int8:
		return arr.Value(pos)
	case *array.Int16:
		return arr.Value(pos)
	case *array.Int32:
		return arr.Value(pos)
	case *array.Int64:
		return arr.Value(pos)
	case *array.Uint8:
		return arr.Value(pos)
	case *array.Uint16:
		return arr.Value(pos)
	case *array.Uint32:
		return arr.Value(pos)
	case *array.Uint64:
		return arr.Value(pos)
	case *array.Float32:
		return arr.Value(pos)
	case *array.Float64:
		return arr.Value(pos)
	case *array.String:
		return arr.Value(pos)
	case *array.Timestamp:
		return arr.Value(pos).ToTime(arrow.Microsecond)
	case *array.Date32:
		return arr.Value(pos).ToTime()
	case *array.Date64:
		return arr.Value(pos).ToTime()
	default:
		return fmt.Sprintf("%v", col.GetOneForMarshal(pos))
	}
}

// convertNative attempts to reconcile a value Arrow already decoded
// with the declared column type, returning nil (a cast_error) when the
// native type can't be reconciled.
func convertNative(native interface{}, dt config.DataType) interface{} {
	if dt == config.TypeString {
		return fmt.Sprintf("%v", native)
	}
	if t, ok := native.(time.Time); ok {
		switch dt {
		case config.TypeDate, config.TypeDatetime, config.TypeTime:
			return t
		default:
			return nil
		}
	}
	text := fmt.Sprintf("%v", native)
	value, ok := CastCell(text, dt)
	if !ok {
		return nil
	}
	return value
}

func (a *ParquetAdapter) Write(ctx context.Context, rows []WriteRow, columns []config.ColumnConfig, localPath string, opts WriteOptions) error {
	if err := os.MkdirAll(localPath, 0o755); err != nil {
		return &Error{Op: "parquet_write", Err: err}
	}

	schema := arrowSchemaFor(columns)
	maxSize := opts.MaxSizePerFile
	if maxSize <= 0 {
		maxSize = 256 * 1024 * 1024
	}
	rowGroup := opts.RowGroupSize
	if rowGroup <= 0 {
		rowGroup = 10000
	}

	partIndex := 0
	partRows := rows
	for partIndex == 0 || len(partRows) > 0 {
		partPath := filepath.Join(localPath, fmt.Sprintf("part-%05d.parquet", partIndex))
		written, err := writeParquetPart(partPath, partRows, schema, columns, rowGroup, parquetCompression(opts.Compression), maxSize)
		if err != nil {
			return err
		}
		partRows = partRows[written:]
		partIndex++
		if len(rows) == 0 {
			break
		}
	}
	return nil
}

// writeParquetPart writes as many leading rows as fit under maxSize
// bytes (estimated, not exact) and returns how many it consumed.
func writeParquetPart(path string, rows []WriteRow, schema *arrow.Schema, columns []config.ColumnConfig, rowGroup int64, codec compress.Compression, maxSize int64) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, &Error{Op: "parquet_write", Err: err}
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(codec), parquet.WithMaxRowGroupLength(rowGroup))
	writer, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return 0, &Error{Op: "parquet_write", Err: err}
	}

	allocator := memory.NewGoAllocator()
	names := planColumns(columns)
	builders := make([]array.Builder, len(names))
	for i, field := range schema.Fields() {
		builders[i] = array.NewBuilder(allocator, field.Type)
	}

	written := 0
	estimatedBytes := int64(0)
	for _, row := range rows {
		rowBytes := estimateRowBytes(row, names)
		if written > 0 && estimatedBytes+rowBytes > maxSize {
			break
		}
		for i, col := range names {
			appendBuilderValue(builders[i], row[col])
		}
		estimatedBytes += rowBytes
		written++
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
		defer arrays[i].Release()
		defer b.Release()
	}
	record := array.NewRecord(schema, arrays, int64(written))
	defer record.Release()

	if err := writer.Write(record); err != nil {
		return 0, &Error{Op: "parquet_write", Err: err}
	}
	if err := writer.Close(); err != nil {
		return 0, &Error{Op: "parquet_write", Err: err}
	}
	if written == 0 {
		os.Remove(path)
	}
	return written, nil
}

func estimateRowBytes(row WriteRow, columns []string) int64 {
	var total int64
	for _, col := range columns {
		v := row[col]
		switch val := v.(type) {
		case string:
			total += int64(len(val))
		default:
			total += 8
		}
	}
	return total
}

func appendBuilderValue(builder array.Builder, value interface{}) {
	if value == nil {
		builder.AppendNull()
		return
	}
	switch b := builder.(type) {
	case *array.BooleanBuilder:
		if v, ok := value.(bool); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Int8Builder:
		if v, ok := value.(int8); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Int16Builder:
		if v, ok := value.(int16); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Int32Builder:
		if v, ok := value.(int32); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Int64Builder:
		if v, ok := value.(int64); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Uint8Builder:
		if v, ok := value.(uint8); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Uint16Builder:
		if v, ok := value.(uint16); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Uint32Builder:
		if v, ok := value.(uint32); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Uint64Builder:
		if v, ok := value.(uint64); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Float32Builder:
		if v, ok := value.(float32); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.Float64Builder:
		if v, ok := value.(float64); ok {
			b.Append(v)
		} else {
			b.AppendNull()
		}
	case *array.StringBuilder:
		b.Append(fmt.Sprintf("%v", value))
	case *array.TimestampBuilder:
		if v, ok := value.(time.Time); ok {
			b.Append(arrow.Timestamp(v.UnixMicro()))
		} else {
			b.AppendNull()
		}
	default:
		builder.AppendNull()
	}
}

func arrowSchemaFor(columns []config.ColumnConfig) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		dt, _ := config.ParseDataType(c.Type)
		fields[i] = arrow.Field{Name: c.Name, Type: arrowTypeFor(dt), Nullable: c.IsNullable()}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowTypeFor(dt config.DataType) arrow.DataType {
	switch dt {
	case config.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case config.TypeInt8:
		return arrow.PrimitiveTypes.Int8
	case config.TypeInt16:
		return arrow.PrimitiveTypes.Int16
	case config.TypeInt32:
		return arrow.PrimitiveTypes.Int32
	case config.TypeInt64:
		return arrow.PrimitiveTypes.Int64
	case config.TypeUint8:
		return arrow.PrimitiveTypes.Uint8
	case config.TypeUint16:
		return arrow.PrimitiveTypes.Uint16
	case config.TypeUint32:
		return arrow.PrimitiveTypes.Uint32
	case config.TypeUint64:
		return arrow.PrimitiveTypes.Uint64
	case config.TypeFloat32:
		return arrow.PrimitiveTypes.Float32
	case config.TypeFloat64:
		return arrow.PrimitiveTypes.Float64
	case config.TypeDate, config.TypeDatetime, config.TypeTime:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func parquetCompression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

func (a *ParquetAdapter) WritesDirectly() bool { return false }
