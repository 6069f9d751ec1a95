// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectstore defines the PUT/GET/LIST/DELETE blob interface every
// artifact writer (C6, C7, C8) uses, plus a GCS-backed implementation
// grounded on the gcsFS wrapper used for the dependency-graph store.
package objectstore

import "context"

// BlobMeta is the per-object content-type/encoding/user-metadata header
// set alongside a PUT.
type BlobMeta struct {
	ContentType     string
	ContentEncoding string
	UserMetadata    map[string]string
}

// Store is the blob storage contract every artifact-producing component
// depends on. Implementations must cap batch_delete at 1000 keys per call
// and paginate DeletePrefix internally via ListPrefix+BatchDelete.
type Store interface {
	PutBlob(ctx context.Context, key string, data []byte, meta BlobMeta) error
	GetBlob(ctx context.Context, key string) ([]byte, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) error
	BatchDelete(ctx context.Context, keys []string) error
	UploadTree(ctx context.Context, localDir, keyPrefix string) error
	DownloadTree(ctx context.Context, keyPrefix, localDir string) error
}

// maxBatchDeleteKeys is the per-call cap on BatchDelete (spec.md §4.2).
const maxBatchDeleteKeys = 1000

// CompressionThreshold is the size above which PutBlob callers are expected
// to compress the payload before calling PutBlob (spec.md §4.2: "All blobs
// larger than ~64 KiB are compressed"). The Store implementation itself is
// compression-agnostic; callers (C6/C7/C8) choose brotli or zstd and set
// ContentEncoding accordingly.
const CompressionThreshold = 64 * 1024
