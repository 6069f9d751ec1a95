// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalogdb

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

func TestWriteAndLoadEmbeddings_RoundTrips(t *testing.T) {
	db := openTestDB(t)
	if _, err := WritePackages(context.Background(), db, []catalog.Package{
		{PackageID: "hello", PackageName: "hello", Version: "1", AttributePath: "hello", Available: true},
	}); err != nil {
		t.Fatalf("WritePackages() failed: %v", err)
	}

	want := []float32{0.1, 0.2, 0.3}
	err := WriteEmbeddings(context.Background(), db, []EmbeddingRecord{
		{PackageID: "hello", Vector: want, ContentHash: 42},
		{PackageID: "missing-vector", Vector: nil, ContentHash: 7}, // omitted, per EmbeddingFailed semantics
	})
	if err != nil {
		t.Fatalf("WriteEmbeddings() failed: %v", err)
	}

	byHash, err := LoadEmbeddingsByContentHash(context.Background(), db)
	if err != nil {
		t.Fatalf("LoadEmbeddingsByContentHash() failed: %v", err)
	}
	got, ok := byHash[uint64(42)]
	if !ok {
		t.Fatalf("LoadEmbeddingsByContentHash() missing hash 42, got %v", byHash)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("vector round-trip mismatch (-want +got):\n%s", diff)
	}
	if len(byHash) != 1 {
		t.Errorf("LoadEmbeddingsByContentHash() = %d entries, want 1 (empty vector omitted)", len(byHash))
	}
}
