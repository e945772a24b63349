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

package target

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/storage"
)

// defaultSuffixes lists the filename suffixes an input directory scan
// accepts for each source format. Object-store listings match them
// case-insensitively; local directory scans match them as
// case-sensitive glob patterns.
func defaultSuffixes(format string) ([]string, error) {
	switch format {
	case "csv":
		return []string{".csv"}, nil
	case "parquet":
		return []string{".parquet"}, nil
	case "json":
		return []string{".json", ".jsonl", ".ndjson", ".djson"}, nil
	default:
		return nil, fmt.Errorf("unsupported source format for input resolution: %s", format)
	}
}

// ResolveInputs expands an entity's source spec into an ordered list of
// concrete targets. A path ending in a file that exists resolves to
// exactly one target; otherwise the path is treated as a directory (or
// object-store prefix) and every entry whose name ends in a suffix the
// format accepts is kept. For local storage an explicit glob option,
// when set, replaces the suffix patterns; object-store listings do not
// use the glob option.
func (r *Resolver) ResolveInputs(ctx context.Context, entityName string, src config.SourceConfig) ([]Target, error) {
	resolved, err := r.Resolve(entityName, "source.path", src.Storage, src.Path)
	if err != nil {
		return nil, err
	}

	suffixes, err := defaultSuffixes(src.Format)
	if err != nil {
		return nil, err
	}

	client, err := r.reg.Resolve(ctx, resolved.Storage)
	if err != nil {
		return nil, err
	}

	var uris []string
	if resolved.IsLocal {
		uris, err = r.resolveLocalInputs(resolved.LocalPath, src, suffixes)
		if err != nil {
			return nil, err
		}
		for i := range uris {
			uris[i] = "local://" + uris[i]
		}
	} else {
		uris, err = r.resolveRemoteInputs(ctx, client, resolved.URI, suffixes)
		if err != nil {
			return nil, err
		}
	}

	if len(uris) == 0 {
		return nil, fmt.Errorf("entity.name=%s source.storage=%s no input files matched (path=%s)", entityName, resolved.Storage, resolved.URI)
	}

	sort.Strings(uris)
	targets := make([]Target, 0, len(uris))
	for _, uri := range uris {
		name := filepath.Base(strings.TrimSuffix(uri, "/"))
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		targets = append(targets, Target{
			Storage:        resolved.Storage,
			URI:            uri,
			SourceName:     name,
			SourceStem:     stem,
			NeedsLocalCopy: NeedsLocalCopy(resolved.IsLocal, src.Format, false),
		})
	}
	return targets, nil
}

func (r *Resolver) resolveLocalInputs(localPath string, src config.SourceConfig, suffixes []string) ([]string, error) {
	info, err := fileInfoOrNil(localPath)
	if err != nil {
		return nil, err
	}
	if info != nil && !info.IsDir() {
		return []string{localPath}, nil
	}

	opts := src.Options
	recursive := opts != nil && opts.Recursive
	var patterns []string
	if opts != nil && opts.Glob != "" {
		patterns = []string{opts.Glob}
	} else {
		for _, suf := range suffixes {
			patterns = append(patterns, "*"+suf)
		}
	}

	seen := make(map[string]struct{})
	var matches []string
	for _, pattern := range patterns {
		found, err := storage.Glob(localPath, pattern, recursive)
		if err != nil {
			return nil, err
		}
		for _, m := range found {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func fileInfoOrNil(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

func (r *Resolver) resolveRemoteInputs(ctx context.Context, client storage.Client, prefix string, suffixes []string) ([]string, error) {
	objects, err := client.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, obj := range objects {
		lower := strings.ToLower(obj.Key)
		for _, suf := range suffixes {
			if strings.HasSuffix(lower, suf) {
				out = append(out, obj.Key)
				break
			}
		}
	}
	return out, nil
}
