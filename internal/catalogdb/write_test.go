// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalogdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWritePackages_MergesVariantsAndDedupesLookups(t *testing.T) {
	db := openTestDB(t)

	parts := []catalog.Package{
		{
			PackageID: "hello", PackageName: "hello", Version: "2.12",
			AttributePath: "legacyPackages.x86_64-linux.hello",
			Description:   "GNU Hello", Available: true,
			Licenses:    []catalog.License{{ShortName: "gpl3Plus", SPDXID: "GPL-3.0-or-later"}},
			Maintainers: []catalog.Maintainer{{Name: "alice", Email: "alice@example.com"}},
			Platforms:   []string{"x86_64-linux"},
			Variants:    []catalog.Variant{{PackageID: "hello", System: "x86_64-linux", DrvPath: "/nix/store/abc.drv"}},
		},
		{
			PackageID: "hello", PackageName: "hello", Version: "2.12",
			AttributePath: "legacyPackages.aarch64-linux.hello",
			Available:     true,
			Licenses:      []catalog.License{{ShortName: "gpl3Plus", SPDXID: "GPL-3.0-or-later"}},
			Maintainers:   []catalog.Maintainer{{Name: "alice", Email: "alice@example.com"}},
			Platforms:     []string{"aarch64-linux"},
			Variants:      []catalog.Variant{{PackageID: "hello", System: "aarch64-linux", DrvPath: "/nix/store/def.drv"}},
		},
	}

	stats, err := WritePackages(context.Background(), db, parts)
	if err != nil {
		t.Fatalf("WritePackages() failed: %v", err)
	}
	if stats.PackagesWritten != 1 {
		t.Errorf("PackagesWritten = %d, want 1", stats.PackagesWritten)
	}
	if stats.MaintainersWritten != 1 {
		t.Errorf("MaintainersWritten = %d, want 1 (deduped across variants)", stats.MaintainersWritten)
	}

	var archCount int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM package_architectures WHERE package_id = 'hello'`).Scan(&archCount); err != nil {
		t.Fatalf("querying package_architectures: %v", err)
	}
	if archCount != 2 {
		t.Errorf("package_architectures rows = %d, want 2 (both platforms)", archCount)
	}

	var variationCount int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM package_variations WHERE package_id = 'hello'`).Scan(&variationCount); err != nil {
		t.Fatalf("querying package_variations: %v", err)
	}
	if variationCount != 2 {
		t.Errorf("package_variations rows = %d, want 2", variationCount)
	}

	var searchText string
	if err := db.conn.QueryRow(`SELECT search_text FROM packages WHERE package_id = 'hello'`).Scan(&searchText); err != nil {
		t.Fatalf("querying search_text: %v", err)
	}
	if searchText == "" {
		t.Errorf("search_text is empty, want concatenated fields")
	}

	var ftsCount int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM packages_fts WHERE packages_fts MATCH 'hello'`).Scan(&ftsCount); err != nil {
		t.Fatalf("querying packages_fts: %v", err)
	}
	if ftsCount != 1 {
		t.Errorf("packages_fts MATCH 'hello' rows = %d, want 1", ftsCount)
	}
}

func TestWritePackages_Idempotent(t *testing.T) {
	db := openTestDB(t)
	parts := []catalog.Package{
		{PackageID: "a", PackageName: "a", Version: "1", AttributePath: "a", Available: true},
	}
	if _, err := WritePackages(context.Background(), db, parts); err != nil {
		t.Fatalf("first WritePackages() failed: %v", err)
	}
	if _, err := WritePackages(context.Background(), db, parts); err != nil {
		t.Fatalf("second WritePackages() failed: %v", err)
	}
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM packages`).Scan(&count); err != nil {
		t.Fatalf("querying packages: %v", err)
	}
	if count != 1 {
		t.Errorf("packages rows after two writes = %d, want 1 (upsert, not duplicate)", count)
	}
}
