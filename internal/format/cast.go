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
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/floe/internal/config"
)

var (
	dateLayouts     = []string{"2006-01-02"}
	datetimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"}
	timeLayouts     = []string{"15:04:05", "15:04"}
)

// CastCell converts a textual value to the logical type dt. ok is false
// when the value does not parse as that type — callers attribute a
// cast_error to the cell in that case, never an error return, since a
// failed cast is expected, recoverable input, not a program fault.
func CastCell(raw string, dt config.DataType) (value interface{}, ok bool) {
	switch dt {
	case config.TypeString:
		return raw, true
	case config.TypeBoolean:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	case config.TypeInt8:
		n, err := strconv.ParseInt(raw, 10, 8)
		return int8(n), err == nil
	case config.TypeInt16:
		n, err := strconv.ParseInt(raw, 10, 16)
		return int16(n), err == nil
	case config.TypeInt32:
		n, err := strconv.ParseInt(raw, 10, 32)
		return int32(n), err == nil
	case config.TypeInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	case config.TypeUint8:
		n, err := strconv.ParseUint(raw, 10, 8)
		return uint8(n), err == nil
	case config.TypeUint16:
		n, err := strconv.ParseUint(raw, 10, 16)
		return uint16(n), err == nil
	case config.TypeUint32:
		n, err := strconv.ParseUint(raw, 10, 32)
		return uint32(n), err == nil
	case config.TypeUint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		return n, err == nil
	case config.TypeFloat32:
		f, err := strconv.ParseFloat(raw, 32)
		return float32(f), err == nil
	case config.TypeFloat64:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	case config.TypeDate:
		return parseWithLayouts(raw, dateLayouts)
	case config.TypeDatetime:
		return parseWithLayouts(raw, datetimeLayouts)
	case config.TypeTime:
		return parseWithLayouts(raw, timeLayouts)
	default:
		return nil, false
	}
}

func parseWithLayouts(raw string, layouts []string) (interface{}, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return nil, false
}

// IsNullValue reports whether raw matches one of the configured null
// sentinels, or is empty when no sentinels were configured.
func IsNullValue(raw string, nullValues []string) bool {
	if len(nullValues) == 0 {
		return strings.TrimSpace(raw) == ""
	}
	for _, v := range nullValues {
		if raw == v {
			return true
		}
	}
	return false
}
