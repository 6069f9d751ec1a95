// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package nodestore

import "github.com/fdnix/fdnix-catalog/internal/depgraph"

const descriptionTruncateLen = 200

// IndexEntry is the abbreviated per-package record in the index file
// (spec.md §4.8 "Index file").
type IndexEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	AttributePath string `json:"attribute_path"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Broken        bool   `json:"broken"`
	Unfree        bool   `json:"unfree"`
}

// IndexFile is the `<prefix>/index.json.br` document.
type IndexFile struct {
	Entries     []IndexEntry  `json:"entries"`
	GraphStats  depgraph.Stats `json:"graph_stats"`
	Meta        RunMetadata   `json:"meta"`
}

func truncateDescription(s string) string {
	if len(s) <= descriptionTruncateLen {
		return s
	}
	return s[:descriptionTruncateLen] + "..."
}
