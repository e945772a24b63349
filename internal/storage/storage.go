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

// Package storage implements the uniform list/get/put/delete/exists
// capability set over the local filesystem and the three supported
// object stores (S3, ADLS, GCS). Four implementations share one
// interface; a Registry holds the single instance created per storage
// definition for the lifetime of a run.
package storage

import (
	"context"
	"fmt"
)

// ObjectInfo describes one listed object or file.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified int64
}

// Client is the capability set every storage backend implements.
type Client interface {
	// List returns entries under prefix, lexicographically sorted by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// Get downloads uri to a local temp file and returns its path plus a
	// cleanup function the caller must invoke when done with it.
	Get(ctx context.Context, uri string) (localPath string, cleanup func(), err error)
	// Put uploads the contents of localPath to uri.
	Put(ctx context.Context, localPath, uri string) error
	// Delete removes the object at uri.
	Delete(ctx context.Context, uri string) error
	// Exists reports whether uri currently resolves to an object.
	Exists(ctx context.Context, uri string) (bool, error)
	// Mkdirs ensures the directory structure implied by uri exists. A
	// no-op for object stores, where "directories" are a naming
	// convention rather than first-class entries.
	Mkdirs(ctx context.Context, uri string) error
	// Move relocates the object at src to dst.
	Move(ctx context.Context, src, dst string) error
}

// Error wraps a failure from a Client implementation, always carrying the
// storage name and URI the operation was attempted against, per the
// {storage, uri} tagging the error-handling design requires.
type Error struct {
	Storage string
	URI     string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %s %s: %v", e.Storage, e.Op, e.URI, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound indicates the object does not exist at the given URI.
type NotFound struct {
	Storage string
	URI     string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("storage %s: not found: %s", e.Storage, e.URI)
}

// PermissionDenied indicates the caller is not authorized for the object.
type PermissionDenied struct {
	Storage string
	URI     string
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("storage %s: permission denied: %s", e.Storage, e.URI)
}
