// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package nodestore writes one compressed object per canonical package to
// an object store, alongside an index file summarizing the run (spec.md
// §4.8, C8).
package nodestore

import "time"

// Config controls worker pool sizing and prefix handling.
type Config struct {
	Workers          int
	BatchSize        int
	ClearExistingKey bool

	// UploadRPS caps outgoing PutBlob calls across all workers combined,
	// smoothing the burst a BatchSize*Workers fan-out would otherwise throw
	// at the object store all at once. Zero disables the limiter.
	UploadRPS float64
}

// Resolve applies spec.md §4.8 defaults.
func (c Config) Resolve() Config {
	if c.Workers <= 0 {
		c.Workers = 30
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

// RunMetadata is embedded in every node payload and the index file.
type RunMetadata struct {
	Timestamp     time.Time
	NixpkgsBranch string
	RunID         string
}

// Stats summarizes one Write call, aggregated under a single mutex and
// updated per-batch rather than per-file (spec.md §5 "Shared-resource
// policy").
type Stats struct {
	Uploaded int
	Failed   int
}
