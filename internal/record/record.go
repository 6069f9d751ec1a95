// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the raw, loosely-typed shape emitted by the
// external Nix evaluator, before any normalization has been applied.
package record

import "encoding/json"

// Raw is a single line of the evaluator's JSONL stream.
type Raw struct {
	AttrPath  []string          `json:"attrPath"`
	Name      string            `json:"name"`
	DrvPath   string            `json:"drvPath"`
	InputDrvs map[string]any    `json:"inputDrvs"`
	Meta      RawMeta           `json:"meta"`
}

// RawMeta mirrors the heterogeneous `meta` object the evaluator emits.
// License, Platforms and Maintainers are left as json.RawMessage because
// their shape is polymorphic; internal/normalize decodes them into tagged
// unions.
type RawMeta struct {
	Description     string          `json:"description"`
	LongDescription string          `json:"longDescription"`
	Homepage        any             `json:"homepage"`
	License         json.RawMessage `json:"license"`
	Platforms       json.RawMessage `json:"platforms"`
	Maintainers     json.RawMessage `json:"maintainers"`
	Broken          bool            `json:"broken"`
	Unfree          bool            `json:"unfree"`
	Available       *bool           `json:"available"`
	Insecure        bool            `json:"insecure"`
	Unsupported     bool            `json:"unsupported"`
	MainProgram     string          `json:"mainProgram"`
	Position        string          `json:"position"`
	OutputsToInstall []string       `json:"outputsToInstall"`
	Category        string          `json:"category"`
}

// Metadata is the synthetic first line of a combined JSONL stream.
type Metadata struct {
	ExtractionTimestamp int64  `json:"extraction_timestamp"`
	NixpkgsBranch       string `json:"nixpkgs_branch"`
	TotalPackages       int    `json:"total_packages"`
	ExtractorVersion    string `json:"extractor_version"`

	// RunID correlates this evaluation's raw artifact with the processed
	// artifacts (catalog DB, node objects) a later Stage2 run derives from
	// it, independent of the timestamp prefixes either stage chooses.
	RunID string `json:"run_id,omitempty"`
}

// MetadataLine wraps Metadata the way it appears on the wire:
// {"_metadata": {...}}.
type MetadataLine struct {
	Metadata *Metadata `json:"_metadata"`
}

// AvailableOrDefault returns the evaluator's `available` flag, defaulting to
// true when the evaluator omitted it (most packages are available).
func (m RawMeta) AvailableOrDefault() bool {
	if m.Available == nil {
		return true
	}
	return *m.Available
}

// HomepageString coerces the polymorphic homepage field (string or array of
// strings) to a single display string, taking the first entry of an array.
func (m RawMeta) HomepageString() string {
	switch v := m.Homepage.(type) {
	case string:
		return v
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				return s
			}
		}
	}
	return ""
}
