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

// Package config decodes and validates the YAML ingestion contract: the
// registry of named storages, the ordered list of entities, and each
// entity's source, sink, policy, and schema.
package config

// RootConfig is the top-level decoded contract.
type RootConfig struct {
	Version  string            `yaml:"version"`
	Metadata *ProjectMetadata  `yaml:"metadata,omitempty"`
	Storages *StoragesConfig   `yaml:"storages,omitempty"`
	Report   ReportConfig      `yaml:"report"`
	Entities []EntityConfig    `yaml:"entities"`
}

type ProjectMetadata struct {
	Project     string   `yaml:"project"`
	Description string   `yaml:"description,omitempty"`
	Owner       string   `yaml:"owner,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

type EntityConfig struct {
	Name     string         `yaml:"name"`
	Metadata *EntityMetadata `yaml:"metadata,omitempty"`
	Source   SourceConfig   `yaml:"source"`
	Sink     SinkConfig     `yaml:"sink"`
	Policy   PolicyConfig   `yaml:"policy"`
	Schema   SchemaConfig   `yaml:"schema"`
}

type EntityMetadata struct {
	DataProduct string   `yaml:"data_product,omitempty"`
	Domain      string   `yaml:"domain,omitempty"`
	Owner       string   `yaml:"owner,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

type SourceConfig struct {
	Format   string         `yaml:"format"`
	Path     string         `yaml:"path"`
	Storage  string         `yaml:"storage,omitempty"`
	Options  *SourceOptions `yaml:"options,omitempty"`
	CastMode string         `yaml:"cast_mode,omitempty"`
}

// EffectiveCastMode returns the configured cast mode, defaulting to "strict".
func (s SourceConfig) EffectiveCastMode() string {
	if s.CastMode == "" {
		return "strict"
	}
	return s.CastMode
}

type SourceOptions struct {
	Header     *bool    `yaml:"header,omitempty"`
	Separator  string   `yaml:"separator,omitempty"`
	Encoding   string   `yaml:"encoding,omitempty"`
	NullValues []string `yaml:"null_values,omitempty"`
	Recursive  bool     `yaml:"recursive,omitempty"`
	Glob       string   `yaml:"glob,omitempty"`
	NDJSON     bool     `yaml:"ndjson,omitempty"`
	Array      bool     `yaml:"array,omitempty"`
}

// HasHeader reports the effective header flag, defaulting to true.
func (o *SourceOptions) HasHeader() bool {
	if o == nil || o.Header == nil {
		return true
	}
	return *o.Header
}

// SeparatorByte returns the configured CSV separator, defaulting to ';'.
func (o *SourceOptions) SeparatorByte() (byte, error) {
	if o == nil || o.Separator == "" {
		return ';', nil
	}
	if len(o.Separator) != 1 {
		return 0, &Error{Msg: "separator must be a single byte, got " + o.Separator}
	}
	return o.Separator[0], nil
}

// EffectiveNullValues returns the configured null-value sentinels.
func (o *SourceOptions) EffectiveNullValues() []string {
	if o == nil {
		return nil
	}
	return o.NullValues
}

type SinkConfig struct {
	Accepted SinkTarget     `yaml:"accepted"`
	Rejected *SinkTarget    `yaml:"rejected,omitempty"`
	Archive  *ArchiveTarget `yaml:"archive,omitempty"`
}

type SinkTarget struct {
	Format  string       `yaml:"format"`
	Path    string       `yaml:"path"`
	Storage string       `yaml:"storage,omitempty"`
	Options *SinkOptions `yaml:"options,omitempty"`
}

type SinkOptions struct {
	Compression      string `yaml:"compression,omitempty"`
	RowGroupSize     int64  `yaml:"row_group_size,omitempty"`
	MaxSizePerFile   int64  `yaml:"max_size_per_file,omitempty"`
}

// EffectiveMaxSizePerFile defaults to 256 MiB.
func (o *SinkOptions) EffectiveMaxSizePerFile() int64 {
	if o == nil || o.MaxSizePerFile <= 0 {
		return 256 * 1024 * 1024
	}
	return o.MaxSizePerFile
}

type StoragesConfig struct {
	Default     string              `yaml:"default"`
	Definitions []StorageDefinition `yaml:"definitions"`
}

// StorageDefinition names a storage backend. Account and Container are
// used only by the adls type; bucket and region only by s3/gcs.
type StorageDefinition struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Bucket    string `yaml:"bucket,omitempty"`
	Account   string `yaml:"account,omitempty"`
	Container string `yaml:"container,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
}

type ReportConfig struct {
	Path      string `yaml:"path"`
	Storage   string `yaml:"storage,omitempty"`
	Formatter string `yaml:"formatter,omitempty"`
}

type ArchiveTarget struct {
	Path    string `yaml:"path"`
	Storage string `yaml:"storage,omitempty"`
}

type PolicyConfig struct {
	Severity string `yaml:"severity"`
}

type SchemaConfig struct {
	NormalizeColumns *NormalizeColumnsConfig `yaml:"normalize_columns,omitempty"`
	Mismatch         *SchemaMismatchConfig   `yaml:"mismatch,omitempty"`
	Columns          []ColumnConfig          `yaml:"columns"`
}

type NormalizeColumnsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Strategy string `yaml:"strategy,omitempty"`
}

type SchemaMismatchConfig struct {
	MissingColumns string `yaml:"missing_columns,omitempty"`
	ExtraColumns   string `yaml:"extra_columns,omitempty"`
}

// EffectiveMissingPolicy defaults to "reject_file".
func (s *SchemaMismatchConfig) EffectiveMissingPolicy() string {
	if s == nil || s.MissingColumns == "" {
		return "reject_file"
	}
	return s.MissingColumns
}

// EffectiveExtraPolicy defaults to "ignore".
func (s *SchemaMismatchConfig) EffectiveExtraPolicy() string {
	if s == nil || s.ExtraColumns == "" {
		return "ignore"
	}
	return s.ExtraColumns
}

type ColumnConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable,omitempty"`
	Unique   bool   `yaml:"unique,omitempty"`
}

// IsNullable defaults to true.
func (c ColumnConfig) IsNullable() bool {
	if c.Nullable == nil {
		return true
	}
	return *c.Nullable
}

// Error is a fatal configuration problem. It is raised at validate time or
// at run start-up, before any I/O against an entity's inputs.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }
