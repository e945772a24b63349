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

package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalClient implements Client directly against the host filesystem.
// Unlike the object-store clients it supports glob expansion and
// recursive directory walks; Get returns the file's own path with no
// temp download, and Put copies the file to the destination path.
type LocalClient struct{}

// NewLocalClient returns the local filesystem client.
func NewLocalClient() *LocalClient { return &LocalClient{} }

func localPathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "local://")
}

func (c *LocalClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	dir := localPathFromURI(prefix)
	var out []ObjectInfo
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectInfo{Key: "local://" + path, Size: info.Size(), LastModified: info.ModTime().Unix()})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFound{Storage: "local", URI: prefix}
		}
		return nil, &Error{Storage: "local", URI: prefix, Op: "list", Err: err}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Get returns the path directly; local reads never require staging.
func (c *LocalClient) Get(ctx context.Context, uri string) (string, func(), error) {
	path := localPathFromURI(uri)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil, &NotFound{Storage: "local", URI: uri}
		}
		return "", nil, &Error{Storage: "local", URI: uri, Op: "get", Err: err}
	}
	return path, func() {}, nil
}

// Put copies localPath to the destination path, creating parent dirs.
func (c *LocalClient) Put(ctx context.Context, localPath, uri string) error {
	dst := localPathFromURI(uri)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &Error{Storage: "local", URI: uri, Op: "put", Err: err}
	}
	src, err := os.Open(localPath)
	if err != nil {
		return &Error{Storage: "local", URI: uri, Op: "put", Err: err}
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return &Error{Storage: "local", URI: uri, Op: "put", Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return &Error{Storage: "local", URI: uri, Op: "put", Err: err}
	}
	return nil
}

func (c *LocalClient) Delete(ctx context.Context, uri string) error {
	if err := os.RemoveAll(localPathFromURI(uri)); err != nil {
		return &Error{Storage: "local", URI: uri, Op: "delete", Err: err}
	}
	return nil
}

func (c *LocalClient) Exists(ctx context.Context, uri string) (bool, error) {
	_, err := os.Stat(localPathFromURI(uri))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, &Error{Storage: "local", URI: uri, Op: "exists", Err: err}
}

func (c *LocalClient) Mkdirs(ctx context.Context, uri string) error {
	if err := os.MkdirAll(localPathFromURI(uri), 0o755); err != nil {
		return &Error{Storage: "local", URI: uri, Op: "mkdirs", Err: err}
	}
	return nil
}

func (c *LocalClient) Move(ctx context.Context, src, dst string) error {
	dstPath := localPathFromURI(dst)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return &Error{Storage: "local", URI: dst, Op: "move", Err: err}
	}
	if err := os.Rename(localPathFromURI(src), dstPath); err != nil {
		return &Error{Storage: "local", URI: src, Op: "move", Err: err}
	}
	return nil
}

// Glob expands a directory + pattern into a lexicographically sorted list
// of local file paths. recursive turns pattern into "**/pattern".
func Glob(dir, pattern string, recursive bool) ([]string, error) {
	if recursive {
		var out []string
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			match, err := filepath.Match(pattern, d.Name())
			if err != nil {
				return err
			}
			if match {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(out)
		return out, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
