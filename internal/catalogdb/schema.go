// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalogdb writes the normalized, fully-queryable SQLite artifact
// (spec.md §4.6, C6): packages, licenses, architectures, maintainers, their
// junction tables, per-architecture variations, and an FTS5 search index.
package catalogdb

import "embed"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationFiles lists embedded migrations in application order. A new
// schema change is a new numbered file, never an edit to 0001_init.sql,
// so a catalog built by an older binary can still be opened and upgraded.
var migrationFiles = []string{
	"migrations/0001_init.sql",
	"migrations/0002_embeddings.sql",
}
