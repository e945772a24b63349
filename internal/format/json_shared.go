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
	"encoding/json"
	"fmt"

	"github.com/aaronlmathis/floe/internal/config"
)

// jsonRowToDual converts one decoded flat JSON object into a dual-read
// Row. A nested object or array under a declared column is rejected
// with a cast_error on that field rather than a decode failure, per
// the flat-object-only rule JSON ingestion enforces.
func jsonRowToDual(index int, obj map[string]interface{}, columns []string, types map[string]config.DataType, nullValues []string) Row {
	row := Row{Index: index, Raw: make(map[string]*string, len(columns)), Typed: make(map[string]interface{}, len(columns))}
	for _, col := range columns {
		val, present := obj[col]
		if !present || val == nil {
			row.Raw[col] = nil
			row.Typed[col] = nil
			continue
		}

		switch v := val.(type) {
		case map[string]interface{}, []interface{}:
			raw := fmt.Sprintf("%v", v)
			row.Raw[col] = &raw
			row.Typed[col] = nil // nested value: a cast_error on any column type
			continue
		}

		text := jsonScalarToString(val)
		if IsNullValue(text, nullValues) {
			row.Raw[col] = nil
			row.Typed[col] = nil
			continue
		}
		row.Raw[col] = &text

		dt := types[col]
		if dt == config.TypeString {
			row.Typed[col] = text
			continue
		}
		if num, ok := val.(float64); ok && isNumericType(dt) {
			row.Typed[col] = numberToTyped(num, dt)
			continue
		}
		if b, ok := val.(bool); ok && dt == config.TypeBoolean {
			row.Typed[col] = b
			continue
		}
		if value, ok := CastCell(text, dt); ok {
			row.Typed[col] = value
		} else {
			row.Typed[col] = nil
		}
	}
	return row
}

func jsonScalarToString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconvFormatFloat(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isNumericType(dt config.DataType) bool {
	switch dt {
	case config.TypeInt8, config.TypeInt16, config.TypeInt32, config.TypeInt64,
		config.TypeUint8, config.TypeUint16, config.TypeUint32, config.TypeUint64,
		config.TypeFloat32, config.TypeFloat64:
		return true
	default:
		return false
	}
}

func numberToTyped(num float64, dt config.DataType) interface{} {
	switch dt {
	case config.TypeInt8:
		return int8(num)
	case config.TypeInt16:
		return int16(num)
	case config.TypeInt32:
		return int32(num)
	case config.TypeInt64:
		return int64(num)
	case config.TypeUint8:
		return uint8(num)
	case config.TypeUint16:
		return uint16(num)
	case config.TypeUint32:
		return uint32(num)
	case config.TypeUint64:
		return uint64(num)
	case config.TypeFloat32:
		return float32(num)
	default:
		return num
	}
}

func strconvFormatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func columnTypes(plan []config.ColumnConfig) map[string]config.DataType {
	types := make(map[string]config.DataType, len(plan))
	for _, c := range plan {
		t, _ := config.ParseDataType(c.Type)
		types[c.Name] = t
	}
	return types
}
