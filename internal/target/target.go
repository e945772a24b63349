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

// Package target resolves configured storage+path pairs into canonical
// URIs and expands source specs into ordered lists of concrete input
// files, mirroring the join/format rules each storage scheme requires.
package target

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/storage"
)

// ResolvedPath is the outcome of joining a storage definition with a
// configured path: the storage name it resolved against, the canonical
// URI, and, for local storage only, the filesystem path backing it.
type ResolvedPath struct {
	Storage   string
	URI       string
	LocalPath string
	IsLocal   bool
}

// Target is one input or output location an entity's source or sink
// resolved to: a storage name plus canonical URI, with the decision on
// whether operating on it requires a local staging copy.
type Target struct {
	Storage        string
	URI            string
	SourceName     string
	SourceStem     string
	NeedsLocalCopy bool
}

// Resolver joins entity-declared storage references against a
// Registry's definitions, producing canonical URIs the way the
// original config resolver does: relative local paths join against the
// config file's directory, remote paths join against the storage
// definition's prefix, and a path already written as a full URI for
// the matching scheme is validated rather than re-joined.
type Resolver struct {
	reg       *storage.Registry
	configDir string
}

// NewResolver builds a Resolver rooted at configDir, the directory
// containing the loaded YAML contract. Relative local paths in source
// and sink specs join against this directory.
func NewResolver(reg *storage.Registry, configDir string) *Resolver {
	return &Resolver{reg: reg, configDir: configDir}
}

// Resolve joins storageName with rawPath, producing a canonical URI for
// entityName's field (used only in error messages to name the offending
// config key). An empty storageName resolves to local storage; the
// registry's configured default storage is not consulted.
func (r *Resolver) Resolve(entityName, field, storageName, rawPath string) (ResolvedPath, error) {
	name := storageName
	def, hasDef := r.reg.Definition(name)
	if name == "" {
		name = "local"
	}

	fsType := "local"
	if hasDef {
		fsType = def.Type
		if fsType == "" {
			fsType = "local"
		}
	} else if storageName != "" {
		return ResolvedPath{}, fmt.Errorf("entity.name=%s %s references unknown storage %s", entityName, field, storageName)
	}

	switch fsType {
	case "local", "":
		if isRemoteURI(rawPath) {
			return ResolvedPath{}, fmt.Errorf("entity.name=%s %s must be a local path (got %s)", entityName, field, rawPath)
		}
		resolved := resolveLocalPath(r.configDir, rawPath)
		return ResolvedPath{Storage: name, URI: "local://" + resolved, LocalPath: resolved, IsLocal: true}, nil
	case "s3":
		uri, err := resolveBucketURI("s3", "s3://", def, rawPath)
		if err != nil {
			return ResolvedPath{}, fmt.Errorf("entity.name=%s %s: %w", entityName, field, err)
		}
		return ResolvedPath{Storage: name, URI: uri}, nil
	case "gcs":
		uri, err := resolveBucketURI("gcs", "gs://", def, rawPath)
		if err != nil {
			return ResolvedPath{}, fmt.Errorf("entity.name=%s %s: %w", entityName, field, err)
		}
		return ResolvedPath{Storage: name, URI: uri}, nil
	case "adls":
		uri, err := resolveADLSURI(def, rawPath)
		if err != nil {
			return ResolvedPath{}, fmt.Errorf("entity.name=%s %s: %w", entityName, field, err)
		}
		return ResolvedPath{Storage: name, URI: uri}, nil
	default:
		return ResolvedPath{}, fmt.Errorf("storage type %s is unsupported", fsType)
	}
}

func resolveLocalPath(configDir, rawPath string) string {
	if filepath.IsAbs(rawPath) {
		return rawPath
	}
	return filepath.Join(configDir, rawPath)
}

func resolveBucketURI(schemeName, schemePrefix string, def config.StorageDefinition, rawPath string) (string, error) {
	if def.Bucket == "" {
		return "", fmt.Errorf("storage %s requires bucket for type %s", def.Name, schemeName)
	}
	if strings.HasPrefix(rawPath, schemePrefix) {
		bucket, key := splitBucketURI(rawPath, schemePrefix)
		if bucket != def.Bucket {
			return "", fmt.Errorf("storage %s bucket mismatch: %s", def.Name, bucket)
		}
		return formatBucketURI(schemePrefix, bucket, key), nil
	}
	key := joinKey(def.Prefix, rawPath)
	return formatBucketURI(schemePrefix, def.Bucket, key), nil
}

func splitBucketURI(uri, schemePrefix string) (bucket, key string) {
	trimmed := strings.TrimPrefix(uri, schemePrefix)
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], trimmed[idx+1:]
	}
	return trimmed, ""
}

func formatBucketURI(schemePrefix, bucket, key string) string {
	if key == "" {
		return schemePrefix + bucket
	}
	return schemePrefix + bucket + "/" + key
}

func joinKey(prefix, rawPath string) string {
	prefix = strings.Trim(prefix, "/")
	trimmed := strings.TrimPrefix(rawPath, "/")
	switch {
	case prefix == "" && trimmed == "":
		return ""
	case prefix == "":
		return trimmed
	case trimmed == "":
		return prefix
	default:
		return prefix + "/" + trimmed
	}
}

func resolveADLSURI(def config.StorageDefinition, rawPath string) (string, error) {
	if def.Account == "" {
		return "", fmt.Errorf("storage %s requires account for type adls", def.Name)
	}
	if def.Container == "" {
		return "", fmt.Errorf("storage %s requires container for type adls", def.Name)
	}
	if container, account, path, ok := parseADLSURI(rawPath); ok {
		if container != def.Container || account != def.Account {
			return "", fmt.Errorf("storage %s adls account/container mismatch", def.Name)
		}
		return formatADLSURI(def.Container, def.Account, path), nil
	}
	combined := joinKey(def.Prefix, rawPath)
	return formatADLSURI(def.Container, def.Account, combined), nil
}

func parseADLSURI(uri string) (container, account, path string, ok bool) {
	trimmed := strings.TrimPrefix(uri, "abfs://")
	if trimmed == uri {
		return "", "", "", false
	}
	at := strings.IndexByte(trimmed, '@')
	if at < 0 {
		return "", "", "", false
	}
	container = trimmed[:at]
	rest := trimmed[at+1:]
	const suffix = ".dfs.core.windows.net"
	idx := strings.Index(rest, suffix)
	if idx < 0 || container == "" {
		return "", "", "", false
	}
	account = rest[:idx]
	if account == "" {
		return "", "", "", false
	}
	path = strings.TrimPrefix(rest[idx+len(suffix):], "/")
	return container, account, path, true
}

func formatADLSURI(container, account, path string) string {
	if path == "" {
		return fmt.Sprintf("abfs://%s@%s.dfs.core.windows.net", container, account)
	}
	return fmt.Sprintf("abfs://%s@%s.dfs.core.windows.net/%s", container, account, path)
}

func isRemoteURI(value string) bool {
	return strings.HasPrefix(value, "s3://") || strings.HasPrefix(value, "gs://") || strings.HasPrefix(value, "abfs://")
}

// NeedsLocalCopy reports whether operating on a target of the given
// storage and format requires staging a local file first. Parquet
// inputs always need a local copy (the reader seeks); every writer
// needs one except Delta, which appends transaction log entries that
// reference remote paths directly.
func NeedsLocalCopy(storageLocal bool, format string, isWrite bool) bool {
	if storageLocal {
		return false
	}
	if isWrite {
		return format != "delta"
	}
	return format == "parquet"
}
