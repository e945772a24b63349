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

package config

import "strings"

// DataType is one of Floe's logical column types.
type DataType int

const (
	TypeString DataType = iota
	TypeBoolean
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeDate
	TypeDatetime
	TypeTime
)

// IsString reports whether the type has no cast step (only not_null applies).
func (d DataType) IsString() bool { return d == TypeString }

// ParseDataType resolves a column type name to a DataType. Matching is
// case-insensitive with '-' and '_' stripped, and accepts the same
// alias table as the original ingestion engine.
func ParseDataType(value string) (DataType, error) {
	normalized := strings.ToLower(value)
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch normalized {
	case "string", "str", "text":
		return TypeString, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "int8":
		return TypeInt8, nil
	case "int16":
		return TypeInt16, nil
	case "int32":
		return TypeInt32, nil
	case "int64", "int", "integer", "long":
		return TypeInt64, nil
	case "uint8":
		return TypeUint8, nil
	case "uint16":
		return TypeUint16, nil
	case "uint32":
		return TypeUint32, nil
	case "uint64":
		return TypeUint64, nil
	case "float32":
		return TypeFloat32, nil
	case "float64", "float", "double", "number", "decimal":
		return TypeFloat64, nil
	case "date":
		return TypeDate, nil
	case "datetime", "timestamp":
		return TypeDatetime, nil
	case "time":
		return TypeTime, nil
	default:
		return 0, &Error{Msg: "unsupported column type: " + value}
	}
}

// IsStringTypeName reports whether a raw (unparsed) type name normalizes to
// the string type, used by the cast checker without needing a ColumnConfig.
func IsStringTypeName(value string) bool {
	t, err := ParseDataType(value)
	return err == nil && t == TypeString
}
