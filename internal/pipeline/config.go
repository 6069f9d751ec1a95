// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline sequences the full batch run: evaluate nixpkgs,
// normalize and merge the raw records, then fan the canonical package set
// out to the relational, compressed and per-node artifacts (spec.md §4,
// §6, C9).
package pipeline

// ProcessingMode selects which Stage2 artifacts a run produces.
type ProcessingMode string

const (
	ModeMetadata  ProcessingMode = "metadata"
	ModeEmbedding ProcessingMode = "embedding"
	ModeMinified  ProcessingMode = "minified"
	ModeBoth      ProcessingMode = "both"
)

// RunConfiguration is the full set of options spec.md §6 enumerates as
// influencing core behavior. Options read from a config file or flags are
// assembled into one of these before a run starts (`pkg/build/options.go`'s
// Options/Resources split: run-wide knobs here, injected collaborators
// passed separately to Stage1/Stage2).
type RunConfiguration struct {
	ProcessingMode         ProcessingMode
	ForceRebuildEmbeddings bool
	EnableEmbeddings       bool
	EnableStats            bool
	EnableNodeUpload       bool
	ClearExistingNodes     bool

	EmbeddingHost     string
	EmbeddingModelID  string
	OutputDimension   int
	MaxRPM            int
	MaxTPM            int

	VectorIndexPartitions int
	VectorIndexSubVectors int

	ZstdDictSize         int
	ZstdSampleCount      int
	ZstdCompressionLevel int

	// NodeUploadRPS caps the node-object upload fan-out (C8); zero leaves it
	// bounded only by worker count.
	NodeUploadRPS float64

	// FTSStopwords and FTSStemmerLanguage are accepted for compatibility
	// with spec.md §6's enumerated options, but nothing in this module
	// reads them: the FTS5 tables keep the tokenizer declared in the
	// schema's CREATE VIRTUAL TABLE statements, and neither field is
	// written to run metadata.
	FTSStopwords       []string
	FTSStemmerLanguage string

	NixpkgsRepoURL string
	NixpkgsBranch  string
	System         string
	Sharded        bool

	ArtifactsPrefix string
	ProcessedPrefix string
}

// Resolve applies spec.md §6 defaults.
func (c RunConfiguration) Resolve() RunConfiguration {
	if c.ProcessingMode == "" {
		c.ProcessingMode = ModeBoth
	}
	if c.OutputDimension <= 0 {
		c.OutputDimension = 256
	}
	if c.MaxRPM <= 0 {
		c.MaxRPM = 600
	}
	if c.MaxTPM <= 0 {
		c.MaxTPM = 300000
	}
	if c.ZstdDictSize <= 0 {
		c.ZstdDictSize = 64 * 1024
	}
	if c.ZstdSampleCount <= 0 {
		c.ZstdSampleCount = 10000
	}
	if c.ZstdCompressionLevel <= 0 {
		c.ZstdCompressionLevel = 3
	}
	if c.ArtifactsPrefix == "" {
		c.ArtifactsPrefix = "artifacts"
	}
	if c.ProcessedPrefix == "" {
		c.ProcessedPrefix = "processed"
	}
	return c
}

// wantsEmbeddings reports whether this run's processing mode requires the
// embedding stage.
func (c RunConfiguration) wantsEmbeddings() bool {
	return c.EnableEmbeddings && (c.ProcessingMode == ModeEmbedding || c.ProcessingMode == ModeBoth)
}

// wantsMinified reports whether this run's processing mode requires the
// compressed-artifact (C7) stage.
func (c RunConfiguration) wantsMinified() bool {
	return c.ProcessingMode == ModeMinified || c.ProcessingMode == ModeBoth
}
