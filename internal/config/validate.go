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

import "fmt"

var validSeverities = map[string]bool{"warn": true, "reject": true, "abort": true}
var validSourceFormats = map[string]bool{"csv": true, "parquet": true, "json": true}
var validSinkFormats = map[string]bool{"csv": true, "parquet": true, "delta": true}

// Validate checks structural and cross-field rules against cfg, returning
// the first fatal config.Error encountered. It never performs I/O.
func Validate(cfg *RootConfig) error {
	if cfg.Version == "" {
		return &Error{Msg: "version is required"}
	}
	if cfg.Report.Path == "" {
		return &Error{Msg: "report.path is required"}
	}
	if len(cfg.Entities) == 0 {
		return &Error{Msg: "at least one entity is required"}
	}

	storageNames := map[string]bool{"local": true}
	if cfg.Storages != nil {
		seen := map[string]bool{}
		for _, def := range cfg.Storages.Definitions {
			if seen[def.Name] {
				return &Error{Msg: fmt.Sprintf("storages.definitions name=%s is duplicated", def.Name)}
			}
			seen[def.Name] = true
			storageNames[def.Name] = true
			if err := validateStorageDefinition(def); err != nil {
				return err
			}
		}
		if cfg.Storages.Default != "" && !storageNames[cfg.Storages.Default] {
			return &Error{Msg: fmt.Sprintf("storages.default=%s does not match any definition", cfg.Storages.Default)}
		}
	}

	entityNames := map[string]bool{}
	for _, entity := range cfg.Entities {
		if entity.Name == "" {
			return &Error{Msg: "entity name is required"}
		}
		if entityNames[entity.Name] {
			return &Error{Msg: fmt.Sprintf("entity.name=%s is duplicated", entity.Name)}
		}
		entityNames[entity.Name] = true

		if err := validateEntity(entity, storageNames); err != nil {
			return err
		}
	}

	return nil
}

func validateStorageDefinition(def StorageDefinition) error {
	switch def.Type {
	case "local":
	case "s3", "gcs":
		if def.Bucket == "" {
			return &Error{Msg: fmt.Sprintf("storage %s requires bucket for type %s", def.Name, def.Type)}
		}
	case "adls":
		if def.Account == "" || def.Container == "" {
			return &Error{Msg: fmt.Sprintf("storage %s requires account and container for type adls", def.Name)}
		}
	default:
		return &Error{Msg: fmt.Sprintf("storage type %s is unsupported", def.Type)}
	}
	return nil
}

func validateEntity(entity EntityConfig, storageNames map[string]bool) error {
	if !validSourceFormats[entity.Source.Format] {
		return &Error{Msg: fmt.Sprintf("entity.name=%s source.format=%s is unsupported", entity.Name, entity.Source.Format)}
	}
	if entity.Source.Path == "" {
		return &Error{Msg: fmt.Sprintf("entity.name=%s source.path is required", entity.Name)}
	}
	if entity.Source.Storage != "" && !storageNames[entity.Source.Storage] {
		return &Error{Msg: fmt.Sprintf("entity.name=%s source.storage references unknown storage %s", entity.Name, entity.Source.Storage)}
	}
	if entity.Source.Format == "parquet" && entity.Source.Storage != "" && entity.Source.Storage != "local" {
		return &Error{Msg: fmt.Sprintf("entity.name=%s parquet input is local-only", entity.Name)}
	}
	mode := entity.Source.EffectiveCastMode()
	if mode != "strict" && mode != "coerce" {
		return &Error{Msg: fmt.Sprintf("entity.name=%s source.cast_mode=%s is unsupported", entity.Name, mode)}
	}

	if !validSinkFormats[entity.Sink.Accepted.Format] {
		return &Error{Msg: fmt.Sprintf("entity.name=%s sink.accepted.format=%s is unsupported", entity.Name, entity.Sink.Accepted.Format)}
	}
	if entity.Sink.Accepted.Path == "" {
		return &Error{Msg: fmt.Sprintf("entity.name=%s sink.accepted.path is required", entity.Name)}
	}
	if entity.Sink.Rejected != nil && entity.Sink.Rejected.Format != "csv" {
		return &Error{Msg: fmt.Sprintf("entity.name=%s sink.rejected.format must be csv", entity.Name)}
	}
	for _, target := range []string{entity.Sink.Accepted.Storage, sinkRejectedStorage(entity), archiveStorage(entity)} {
		if target != "" && !storageNames[target] {
			return &Error{Msg: fmt.Sprintf("entity.name=%s sink references unknown storage %s", entity.Name, target)}
		}
	}

	if !validSeverities[entity.Policy.Severity] {
		return &Error{Msg: fmt.Sprintf("entity.name=%s policy.severity=%s is unsupported", entity.Name, entity.Policy.Severity)}
	}

	if len(entity.Schema.Columns) == 0 {
		return &Error{Msg: fmt.Sprintf("entity.name=%s schema.columns must not be empty", entity.Name)}
	}
	seenColumns := map[string]bool{}
	names := make([]string, 0, len(entity.Schema.Columns))
	for _, col := range entity.Schema.Columns {
		if col.Name == "" {
			return &Error{Msg: fmt.Sprintf("entity.name=%s schema column name is required", entity.Name)}
		}
		if seenColumns[col.Name] {
			return &Error{Msg: fmt.Sprintf("entity.name=%s duplicate column name in schema: %s", entity.Name, col.Name)}
		}
		seenColumns[col.Name] = true
		if _, err := ParseDataType(col.Type); err != nil {
			return &Error{Msg: fmt.Sprintf("entity.name=%s column=%s %v", entity.Name, col.Name, err)}
		}
		names = append(names, col.Name)
	}

	if entity.Schema.NormalizeColumns != nil && entity.Schema.NormalizeColumns.Enabled {
		if err := ValidateNoCollisions(entity.Name, entity.Schema.NormalizeColumns.Strategy, names); err != nil {
			return err
		}
	}

	return nil
}

func sinkRejectedStorage(entity EntityConfig) string {
	if entity.Sink.Rejected == nil {
		return ""
	}
	return entity.Sink.Rejected.Storage
}

func archiveStorage(entity EntityConfig) string {
	if entity.Sink.Archive == nil {
		return ""
	}
	return entity.Sink.Archive.Storage
}
