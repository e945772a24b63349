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
	"errors"
	"io"
	"os"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSClient implements Client against one GCS bucket, addressed by
// gs://bucket/key URIs. Object-store semantics: prefix listing and
// suffix filtering only.
type GCSClient struct {
	bucket string
	api    *storage.Client
}

// NewGCSClient builds a client for bucket using application-default
// credentials.
func NewGCSClient(ctx context.Context, bucket string) (*GCSClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, &Error{Storage: "gcs", URI: "gs://" + bucket, Op: "connect", Err: err}
	}
	return &GCSClient{bucket: bucket, api: client}, nil
}

func gcsKey(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return ""
}

func (c *GCSClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	key := gcsKey(prefix)
	it := c.api.Bucket(c.bucket).Objects(ctx, &storage.Query{Prefix: key})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &Error{Storage: "gcs", URI: prefix, Op: "list", Err: err}
		}
		out = append(out, ObjectInfo{Key: "gs://" + c.bucket + "/" + attrs.Name, Size: attrs.Size, LastModified: attrs.Updated.Unix()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *GCSClient) Get(ctx context.Context, uri string) (string, func(), error) {
	key := gcsKey(uri)
	reader, err := c.api.Bucket(c.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", nil, &NotFound{Storage: "gcs", URI: uri}
		}
		return "", nil, &Error{Storage: "gcs", URI: uri, Op: "get", Err: err}
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "floe-gcs-*")
	if err != nil {
		return "", nil, &Error{Storage: "gcs", URI: uri, Op: "get", Err: err}
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, &Error{Storage: "gcs", URI: uri, Op: "get", Err: err}
	}
	tmp.Close()
	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

func (c *GCSClient) Put(ctx context.Context, localPath, uri string) error {
	key := gcsKey(uri)
	file, err := os.Open(localPath)
	if err != nil {
		return &Error{Storage: "gcs", URI: uri, Op: "put", Err: err}
	}
	defer file.Close()

	writer := c.api.Bucket(c.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return &Error{Storage: "gcs", URI: uri, Op: "put", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &Error{Storage: "gcs", URI: uri, Op: "put", Err: err}
	}
	return nil
}

func (c *GCSClient) Delete(ctx context.Context, uri string) error {
	key := gcsKey(uri)
	if err := c.api.Bucket(c.bucket).Object(key).Delete(ctx); err != nil {
		return &Error{Storage: "gcs", URI: uri, Op: "delete", Err: err}
	}
	return nil
}

func (c *GCSClient) Exists(ctx context.Context, uri string) (bool, error) {
	key := gcsKey(uri)
	_, err := c.api.Bucket(c.bucket).Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, &Error{Storage: "gcs", URI: uri, Op: "exists", Err: err}
}

// Mkdirs is a no-op: GCS has no directory entries.
func (c *GCSClient) Mkdirs(ctx context.Context, uri string) error { return nil }

func (c *GCSClient) Move(ctx context.Context, src, dst string) error {
	srcKey := gcsKey(src)
	dstKey := gcsKey(dst)
	srcObj := c.api.Bucket(c.bucket).Object(srcKey)
	dstObj := c.api.Bucket(c.bucket).Object(dstKey)
	if _, err := dstObj.CopierFrom(srcObj).Run(ctx); err != nil {
		return &Error{Storage: "gcs", URI: dst, Op: "move", Err: err}
	}
	return c.Delete(ctx, src)
}
