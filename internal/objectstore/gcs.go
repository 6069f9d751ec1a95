// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store against a single GCS bucket, rooted at an
// optional key prefix.
type GCSStore struct {
	bucket *storage.BucketHandle
	root   string
}

var _ Store = (*GCSStore)(nil)

// NewGCSStore returns a Store rooted at the given gs:// URI.
func NewGCSStore(ctx context.Context, gsURI string) (*GCSStore, error) {
	bucket, root, err := parseGSURI(gsURI)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return &GCSStore{bucket: client.Bucket(bucket), root: root}, nil
}

func parseGSURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", errors.Errorf("invalid gs:// uri: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.TrimSuffix(parts[1], "/")
	}
	return bucket, prefix, nil
}

func (s *GCSStore) fullKey(key string) string {
	if s.root == "" {
		return key
	}
	return s.root + "/" + key
}

// PutBlob uploads data under key with the given content headers.
func (s *GCSStore) PutBlob(ctx context.Context, key string, data []byte, meta BlobMeta) error {
	obj := s.bucket.Object(s.fullKey(key))
	w := obj.NewWriter(ctx)
	w.ContentType = meta.ContentType
	w.ContentEncoding = meta.ContentEncoding
	w.Metadata = meta.UserMetadata
	if _, err := w.Write(data); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing blob %q", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "closing blob %q", key)
	}
	return nil
}

// GetBlob downloads the object at key.
func (s *GCSStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	r, err := s.bucket.Object(s.fullKey(key)).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "opening blob %q", key)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading blob %q", key)
	}
	return data, nil
}

// ListPrefix returns every key under prefix, paginating the GCS iterator
// internally.
func (s *GCSStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	full := s.fullKey(prefix)
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: full})
	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "listing prefix")
		}
		key := attrs.Name
		if s.root != "" {
			key = strings.TrimPrefix(key, s.root+"/")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// BatchDelete removes up to maxBatchDeleteKeys keys per call; callers with
// more than that must chunk themselves (DeletePrefix does this internally).
func (s *GCSStore) BatchDelete(ctx context.Context, keys []string) error {
	if len(keys) > maxBatchDeleteKeys {
		return errors.Errorf("batch_delete: %d keys exceeds cap of %d", len(keys), maxBatchDeleteKeys)
	}
	for _, k := range keys {
		if err := s.bucket.Object(s.fullKey(k)).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			return errors.Wrapf(err, "deleting %q", k)
		}
	}
	return nil
}

// DeletePrefix paginates list_prefix and batch-deletes in groups of up to
// maxBatchDeleteKeys, as spec.md §4.2 requires.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += maxBatchDeleteKeys {
		end := start + maxBatchDeleteKeys
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.BatchDelete(ctx, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// UploadTree walks localDir and PUTs every regular file under
// keyPrefix/<relative path>.
func (s *GCSStore) UploadTree(ctx context.Context, localDir, keyPrefix string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %q", path)
		}
		key := filepath.ToSlash(filepath.Join(keyPrefix, rel))
		return s.PutBlob(ctx, key, data, BlobMeta{ContentType: "application/octet-stream"})
	})
}

// DownloadTree fetches every key under keyPrefix into localDir, preserving
// the key suffix as a relative path.
func (s *GCSStore) DownloadTree(ctx context.Context, keyPrefix, localDir string) error {
	keys, err := s.ListPrefix(ctx, keyPrefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		rel := strings.TrimPrefix(key, keyPrefix)
		rel = strings.TrimPrefix(rel, "/")
		dest := filepath.Join(localDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.Wrapf(err, "creating dir for %q", dest)
		}
		data, err := s.GetBlob(ctx, key)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return errors.Wrapf(err, "writing %q", dest)
		}
	}
	return nil
}
