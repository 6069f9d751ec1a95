// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectstoretest provides an in-memory objectstore.Store fake for
// tests, mirroring the shape of internal/httpx/httpxtest's mock client.
package objectstoretest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/objectstore"
)

// MemStore is an in-memory objectstore.Store, safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]objectstore.BlobMeta
}

var _ objectstore.Store = (*MemStore)(nil)

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		meta:    make(map[string]objectstore.BlobMeta),
	}
}

func (m *MemStore) PutBlob(_ context.Context, key string, data []byte, meta objectstore.BlobMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), data...)
	m.objects[key] = cp
	m.meta[key] = meta
	return nil
}

func (m *MemStore) GetBlob(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.Errorf("object not found: %s", key)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemStore) ListPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) BatchDelete(_ context.Context, keys []string) error {
	if len(keys) > 1000 {
		return errors.Errorf("batch_delete: %d keys exceeds cap of 1000", len(keys))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
		delete(m.meta, k)
	}
	return nil
}

func (m *MemStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := m.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += 1000 {
		end := start + 1000
		if end > len(keys) {
			end = len(keys)
		}
		if err := m.BatchDelete(ctx, keys[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemStore) UploadTree(_ context.Context, _, _ string) error {
	return errors.New("objectstoretest.MemStore: UploadTree is not supported, PutBlob per-key in tests instead")
}

func (m *MemStore) DownloadTree(_ context.Context, _, _ string) error {
	return errors.New("objectstoretest.MemStore: DownloadTree is not supported, GetBlob per-key in tests instead")
}

// Meta returns the BlobMeta recorded for the most recent PutBlob of key.
func (m *MemStore) Meta(key string) (objectstore.BlobMeta, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.meta[key]
	return meta, ok
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
