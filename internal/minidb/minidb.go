// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package minidb builds the distribution-sized, dictionary-compressed
// catalog artifact (spec.md §4.7, C7): a zstd key-value store plus an FTS5
// overlay in external-content mode, shipped alongside the dictionary that
// decompression depends on.
package minidb

import "embed"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationFiles = []string{
	"migrations/0001_init.sql",
}

// Config controls dictionary training and compression (spec.md §6 "Run
// configuration").
type Config struct {
	DictSize         int
	SampleCount      int
	CompressionLevel int
}

// Resolve applies spec.md §4.7 defaults.
func (c Config) Resolve() Config {
	if c.DictSize <= 0 {
		c.DictSize = 64 * 1024
	}
	if c.SampleCount <= 0 {
		c.SampleCount = 10000
	}
	if c.CompressionLevel <= 0 {
		c.CompressionLevel = 3
	}
	return c
}

// Stats summarizes one Build call.
type Stats struct {
	PackagesWritten int
	DictionaryBytes int
}
