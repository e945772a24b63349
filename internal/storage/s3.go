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
	"os"
	"sort"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client implements Client against a single bucket. Reads stage a temp
// local file; writes buffer through the managed uploader. Credentials
// come from the SDK's default chain.
type S3Client struct {
	bucket   string
	region   string
	api      *s3.Client
	uploader *s3manager.Uploader
}

// NewS3Client builds a client for bucket in region, using the default AWS
// credential chain.
func NewS3Client(ctx context.Context, bucket, region string) (*S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, &Error{Storage: "s3", URI: "s3://" + bucket, Op: "connect", Err: err}
	}
	api := s3.NewFromConfig(cfg)
	return &S3Client{
		bucket:   bucket,
		region:   region,
		api:      api,
		uploader: s3manager.NewUploader(api),
	}, nil
}

func s3Key(uri string) string {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return ""
}

func (c *S3Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	key := s3Key(prefix)
	var out []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: &c.bucket,
		Prefix: &key,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error("s3", prefix, "list", err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:          "s3://" + c.bucket + "/" + *obj.Key,
				Size:         *obj.Size,
				LastModified: obj.LastModified.Unix(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *S3Client) Get(ctx context.Context, uri string) (string, func(), error) {
	key := s3Key(uri)
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: &c.bucket, Key: &key})
	if err != nil {
		return "", nil, classifyS3Error("s3", uri, "get", err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "floe-s3-*")
	if err != nil {
		return "", nil, &Error{Storage: "s3", URI: uri, Op: "get", Err: err}
	}
	if _, err := tmp.ReadFrom(resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, &Error{Storage: "s3", URI: uri, Op: "get", Err: err}
	}
	tmp.Close()
	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

func (c *S3Client) Put(ctx context.Context, localPath, uri string) error {
	key := s3Key(uri)
	file, err := os.Open(localPath)
	if err != nil {
		return &Error{Storage: "s3", URI: uri, Op: "put", Err: err}
	}
	defer file.Close()
	_, err = c.uploader.Upload(ctx, &s3.PutObjectInput{Bucket: &c.bucket, Key: &key, Body: file})
	if err != nil {
		return classifyS3Error("s3", uri, "put", err)
	}
	return nil
}

func (c *S3Client) Delete(ctx context.Context, uri string) error {
	key := s3Key(uri)
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &c.bucket, Key: &key})
	if err != nil {
		return classifyS3Error("s3", uri, "delete", err)
	}
	return nil
}

func (c *S3Client) Exists(ctx context.Context, uri string) (bool, error) {
	key := s3Key(uri)
	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &c.bucket, Key: &key})
	if err == nil {
		return true, nil
	}
	classified := classifyS3Error("s3", uri, "exists", err)
	var notFound *NotFound
	if errors.As(classified, &notFound) {
		return false, nil
	}
	return false, classified
}

// Mkdirs is a no-op: S3 has no directory entries.
func (c *S3Client) Mkdirs(ctx context.Context, uri string) error { return nil }

func (c *S3Client) Move(ctx context.Context, src, dst string) error {
	srcKey := s3Key(src)
	dstKey := s3Key(dst)
	copySource := c.bucket + "/" + srcKey
	_, err := c.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     &c.bucket,
		Key:        &dstKey,
		CopySource: &copySource,
	})
	if err != nil {
		return classifyS3Error("s3", dst, "move", err)
	}
	return c.Delete(ctx, src)
}

func classifyS3Error(storageName, uri, op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return &NotFound{Storage: storageName, URI: uri}
		case "AccessDenied":
			return &PermissionDenied{Storage: storageName, URI: uri}
		}
	}
	return &Error{Storage: storageName, URI: uri, Op: op, Err: err}
}
