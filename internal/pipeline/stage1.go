// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/evaluator"
	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/objectstore"
	"github.com/fdnix/fdnix-catalog/internal/record"
)

// Stage1Result carries Stage1's output forward into Stage2.
type Stage1Result struct {
	// RawPath is the local path of the combined, uncompressed JSONL file.
	RawPath       string
	TotalPackages int
	Timestamp     int64
}

// Stage1 clones nixpkgs, runs the external evaluator, combines its output
// into a single deduplicated JSONL stream, and uploads the compressed
// artifact to `<artifacts>/evaluations/<unix_ts>/nixpkgs-raw.jsonl.br`
// (spec.md §4.1, §6 "Persisted artifacts").
func Stage1(ctx context.Context, cfg RunConfiguration, store objectstore.Store, now int64, log *logging.Logger) (Stage1Result, error) {
	sourceDir, err := evaluator.AcquireSource(ctx, log, cfg.NixpkgsRepoURL, cfg.NixpkgsBranch)
	if err != nil {
		return Stage1Result{}, errors.Wrap(err, "acquiring nixpkgs source")
	}
	defer os.RemoveAll(sourceDir)

	eval := evaluator.New(log)
	evalCfg := evaluator.Config{
		NixpkgsBranch: cfg.NixpkgsBranch,
		System:        cfg.System,
		Sharded:       cfg.Sharded,
	}.Resolve()

	rawOut, err := eval.Run(ctx, evalCfg, sourceDir)
	if err != nil {
		return Stage1Result{}, errors.Wrap(err, "running evaluator")
	}
	defer os.Remove(rawOut)

	combinedPath := rawOut + ".combined"
	meta := record.Metadata{
		ExtractionTimestamp: now,
		NixpkgsBranch:       cfg.NixpkgsBranch,
		ExtractorVersion:    "fdnix-catalog",
		RunID:               uuid.New().String(),
	}
	total, err := evaluator.Combine([]string{rawOut}, combinedPath, meta)
	if err != nil {
		return Stage1Result{}, errors.Wrap(err, "combining evaluator output")
	}

	plain, err := os.ReadFile(combinedPath)
	if err != nil {
		return Stage1Result{}, errors.Wrap(err, "reading combined output")
	}
	compressed, err := objectstore.CompressJSON(plain)
	if err != nil {
		return Stage1Result{}, errors.Wrap(err, "compressing raw jsonl")
	}
	key := fmt.Sprintf("%s/evaluations/%d/nixpkgs-raw.jsonl.br", cfg.ArtifactsPrefix, now)
	if err := store.PutBlob(ctx, key, compressed, objectstore.BlobMeta{ContentType: "application/x-ndjson", ContentEncoding: "br"}); err != nil {
		return Stage1Result{}, errors.Wrap(err, "uploading raw jsonl")
	}

	log.Info("stage1 evaluation complete", logging.Fields{"total_packages": total, "key": key})
	return Stage1Result{RawPath: combinedPath, TotalPackages: total, Timestamp: now}, nil
}
