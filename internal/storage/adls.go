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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ADLSClient implements Client against one ADLS Gen2 container, addressed
// by abfs://container@account.dfs.core.windows.net/path URIs. It behaves
// like an object store: prefix listing and suffix filtering only, no
// remote glob.
type ADLSClient struct {
	account   string
	container string
	api       *azblob.Client
}

// NewADLSClient builds a client for account/container using
// DefaultAzureCredential.
func NewADLSClient(account, container string) (*ADLSClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, &Error{Storage: "adls", URI: adlsURI(container, account, ""), Op: "connect", Err: err}
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClient(serviceURL, cred, nil)
	if err != nil {
		return nil, &Error{Storage: "adls", URI: adlsURI(container, account, ""), Op: "connect", Err: err}
	}
	return &ADLSClient{account: account, container: container, api: client}, nil
}

func adlsURI(container, account, path string) string {
	if path == "" {
		return fmt.Sprintf("abfs://%s@%s.dfs.core.windows.net", container, account)
	}
	return fmt.Sprintf("abfs://%s@%s.dfs.core.windows.net/%s", container, account, path)
}

func adlsBlobPath(uri string) string {
	idx := strings.Index(uri, ".dfs.core.windows.net")
	if idx < 0 {
		return ""
	}
	rest := uri[idx+len(".dfs.core.windows.net"):]
	return strings.TrimPrefix(rest, "/")
}

func (c *ADLSClient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	blobPrefix := adlsBlobPath(prefix)
	var out []ObjectInfo
	pager := c.api.NewListBlobsFlatPager(c.container, &azblob.ListBlobsFlatOptions{Prefix: &blobPrefix})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, &Error{Storage: "adls", URI: prefix, Op: "list", Err: err}
		}
		for _, item := range page.Segment.BlobItems {
			var size int64
			var modified int64
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					size = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					modified = item.Properties.LastModified.Unix()
				}
			}
			out = append(out, ObjectInfo{Key: adlsURI(c.container, c.account, *item.Name), Size: size, LastModified: modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *ADLSClient) Get(ctx context.Context, uri string) (string, func(), error) {
	blobPath := adlsBlobPath(uri)
	resp, err := c.api.DownloadStream(ctx, c.container, blobPath, nil)
	if err != nil {
		return "", nil, &Error{Storage: "adls", URI: uri, Op: "get", Err: err}
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "floe-adls-*")
	if err != nil {
		return "", nil, &Error{Storage: "adls", URI: uri, Op: "get", Err: err}
	}
	if _, err := tmp.ReadFrom(resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, &Error{Storage: "adls", URI: uri, Op: "get", Err: err}
	}
	tmp.Close()
	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

func (c *ADLSClient) Put(ctx context.Context, localPath, uri string) error {
	blobPath := adlsBlobPath(uri)
	file, err := os.Open(localPath)
	if err != nil {
		return &Error{Storage: "adls", URI: uri, Op: "put", Err: err}
	}
	defer file.Close()
	if _, err := c.api.UploadFile(ctx, c.container, blobPath, file, nil); err != nil {
		return &Error{Storage: "adls", URI: uri, Op: "put", Err: err}
	}
	return nil
}

func (c *ADLSClient) Delete(ctx context.Context, uri string) error {
	blobPath := adlsBlobPath(uri)
	if _, err := c.api.DeleteBlob(ctx, c.container, blobPath, nil); err != nil {
		return &Error{Storage: "adls", URI: uri, Op: "delete", Err: err}
	}
	return nil
}

func (c *ADLSClient) Exists(ctx context.Context, uri string) (bool, error) {
	blobPath := adlsBlobPath(uri)
	pager := c.api.NewListBlobsFlatPager(c.container, &azblob.ListBlobsFlatOptions{Prefix: &blobPath})
	if pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, &Error{Storage: "adls", URI: uri, Op: "exists", Err: err}
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil && *item.Name == blobPath {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

// Mkdirs is a no-op: ADLS blob paths have no directory entries.
func (c *ADLSClient) Mkdirs(ctx context.Context, uri string) error { return nil }

func (c *ADLSClient) Move(ctx context.Context, src, dst string) error {
	path, cleanup, err := c.Get(ctx, src)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := c.Put(ctx, path, dst); err != nil {
		return err
	}
	return c.Delete(ctx, src)
}
