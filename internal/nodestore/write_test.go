// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package nodestore

import (
	"context"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/depgraph"
	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/objectstore"
	"github.com/fdnix/fdnix-catalog/internal/objectstore/objectstoretest"
)

func buildTestGraph() (*depgraph.Graph, map[string]catalog.Package) {
	b := depgraph.NewBuilder()
	b.AddNode("a", "a", "1", "pkgs.a", "/nix/store/a.drv", []string{"/nix/store/b.drv"})
	b.AddNode("b", "b", "1", "pkgs.b", "/nix/store/b.drv", nil)
	g := b.Build()

	packages := map[string]catalog.Package{
		"a": {PackageID: "a", PackageName: "a", Version: "1", AttributePath: "pkgs.a", Description: "package a"},
		"b": {PackageID: "b", PackageName: "b", Version: "1", AttributePath: "pkgs.b", Description: "package b"},
	}
	return g, packages
}

func TestWrite_UploadsOneObjectPerNodePlusIndex(t *testing.T) {
	g, packages := buildTestGraph()
	payloads := g.AllNodePayloads()
	store := objectstoretest.New()

	stats, err := Write(context.Background(), store, "nodes", payloads, packages, depgraph.Stats{TotalPackages: 2}, RunMetadata{NixpkgsBranch: "nixos-unstable"}, Config{}, logging.New("nodestore-test"))
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if stats.Uploaded != 2 {
		t.Errorf("Uploaded = %d, want 2", stats.Uploaded)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stats.Failed)
	}

	keys, err := store.ListPrefix(context.Background(), "nodes")
	if err != nil {
		t.Fatalf("ListPrefix() failed: %v", err)
	}
	if len(keys) != 3 { // a.json.br, b.json.br, index.json.br
		t.Fatalf("ListPrefix() = %v, want 3 keys", keys)
	}

	compressed, err := store.GetBlob(context.Background(), "nodes/index.json.br")
	if err != nil {
		t.Fatalf("GetBlob(index) failed: %v", err)
	}
	if _, err := objectstore.DecompressJSON(compressed); err != nil {
		t.Errorf("DecompressJSON(index) failed: %v", err)
	}
}

func TestWrite_ClearsExistingPrefixFirst(t *testing.T) {
	store := objectstoretest.New()
	if err := store.PutBlob(context.Background(), "nodes/stale.json.br", []byte("x"), objectstore.BlobMeta{}); err != nil {
		t.Fatalf("seeding stale object failed: %v", err)
	}

	g, packages := buildTestGraph()
	_, err := Write(context.Background(), store, "nodes", g.AllNodePayloads(), packages, depgraph.Stats{}, RunMetadata{}, Config{ClearExistingKey: true}, logging.New("nodestore-test"))
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	if _, err := store.GetBlob(context.Background(), "nodes/stale.json.br"); err == nil {
		t.Errorf("stale object still present after ClearExistingKey write")
	}
}
