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

package check

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aaronlmathis/floe/internal/config"
)

// NormalizeName rewrites a column name under one of the supported
// normalization strategies. "none" (or an unrecognized strategy)
// passes the name through unchanged.
func NormalizeName(name, strategy string) string {
	switch strategy {
	case "snake_case":
		return toSnakeCase(name)
	case "lower":
		return strings.ToLower(name)
	case "camel_case":
		return toCamelCase(name)
	default:
		return name
	}
}

// DetectCollisions reports a configuration error when normalizing
// every declared column name under strategy would make two distinct
// names equal — a contract error that must surface before any file is
// read, per the schema's normalize_columns rule.
func DetectCollisions(columns []config.ColumnConfig, strategy string) error {
	seen := make(map[string]string, len(columns))
	for _, col := range columns {
		normalized := NormalizeName(col.Name, strategy)
		if original, exists := seen[normalized]; exists && original != col.Name {
			return fmt.Errorf("schema columns %q and %q collide under normalize_columns strategy %q", original, col.Name, strategy)
		}
		seen[normalized] = col.Name
	}
	return nil
}

// NormalizeNames maps a slice of raw column names through NormalizeName.
func NormalizeNames(names []string, strategy string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = NormalizeName(n, strategy)
	}
	return out
}

func toSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if r == ' ' || r == '-' {
			b.WriteByte('_')
			continue
		}
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		if i == 0 {
			b.WriteString(lower)
			continue
		}
		b.WriteString(strings.ToUpper(lower[:1]))
		b.WriteString(lower[1:])
	}
	return b.String()
}
