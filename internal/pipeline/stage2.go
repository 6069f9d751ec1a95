// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/cache"
	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/catalogdb"
	"github.com/fdnix/fdnix-catalog/internal/depgraph"
	"github.com/fdnix/fdnix-catalog/internal/embedding"
	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/minidb"
	"github.com/fdnix/fdnix-catalog/internal/nodestore"
	"github.com/fdnix/fdnix-catalog/internal/normalize"
	"github.com/fdnix/fdnix-catalog/internal/objectstore"
)

// Stage2Result summarizes every artifact Stage2 produced.
type Stage2Result struct {
	CatalogStats   catalogdb.Stats
	GraphStats     depgraph.Stats
	EmbeddingCount int
	MinidbStats    minidb.Stats
	NodeStats      nodestore.Stats
}

// Stage2 merges the per-variant records Load produced into the canonical
// package set, then fans it out to every artifact this run's
// RunConfiguration enables: the relational catalog (C6), vector embeddings
// reusing vectors already stored in the work directory's catalog database
// (spec.md §4.5), the compressed
// key-value artifact (C7), and the per-node object set (C8) (spec.md §4,
// C9).
func Stage2(ctx context.Context, cfg RunConfiguration, store objectstore.Store, load LoadResult, workDir string, now int64, log *logging.Logger) (Stage2Result, error) {
	cfg = cfg.Resolve()
	merged := catalog.MergeAll(load.Parts)
	packagesByID := make(map[string]catalog.Package, len(merged))
	for _, p := range merged {
		packagesByID[p.PackageID] = p
	}

	var result Stage2Result

	graphStats, err := load.Graph.Stats(ctx)
	if err != nil {
		return result, errors.Wrap(err, "computing graph stats")
	}
	result.GraphStats = graphStats

	dbPath := filepath.Join(workDir, "catalog.db")
	db, err := catalogdb.Open(dbPath)
	if err != nil {
		return result, errors.Wrap(err, "opening catalog database")
	}
	defer db.Close()

	catalogStats, err := catalogdb.WritePackages(ctx, db, merged)
	if err != nil {
		return result, errors.Wrap(err, "writing catalog database")
	}
	result.CatalogStats = catalogStats

	if cfg.wantsEmbeddings() {
		n, err := runEmbeddingStage(ctx, cfg, db, merged, log)
		if err != nil {
			return result, errors.Wrap(err, "running embedding stage")
		}
		result.EmbeddingCount = n
	}

	if err := db.Vacuum(ctx); err != nil {
		return result, errors.Wrap(err, "vacuuming catalog database")
	}
	if err := uploadArtifact(ctx, store, cfg, dbPath, now, "fdnix-catalog.db"); err != nil {
		return result, errors.Wrap(err, "uploading catalog database")
	}

	if cfg.wantsMinified() {
		minidbPath := filepath.Join(workDir, "fdnix-catalog-min.db")
		dictPath := filepath.Join(workDir, "fdnix-catalog.dict")
		minidbCfg := minidb.Config{
			DictSize:         cfg.ZstdDictSize,
			SampleCount:      cfg.ZstdSampleCount,
			CompressionLevel: cfg.ZstdCompressionLevel,
		}
		stats, err := minidb.Build(ctx, merged, minidbPath, dictPath, minidbCfg, log)
		if err != nil {
			return result, errors.Wrap(err, "building minified artifact")
		}
		result.MinidbStats = stats
		if err := uploadArtifact(ctx, store, cfg, minidbPath, now, "fdnix-catalog-min.db"); err != nil {
			return result, errors.Wrap(err, "uploading minified artifact")
		}
		if err := uploadArtifact(ctx, store, cfg, dictPath, now, "fdnix-catalog.dict"); err != nil {
			return result, errors.Wrap(err, "uploading zstd dictionary")
		}
	}

	if cfg.EnableNodeUpload {
		runMeta := nodestore.RunMetadata{NixpkgsBranch: cfg.NixpkgsBranch, RunID: load.Metadata.RunID}
		nodeCfg := nodestore.Config{ClearExistingKey: cfg.ClearExistingNodes, UploadRPS: cfg.NodeUploadRPS}
		stats, err := nodestore.Write(ctx, store, fmt.Sprintf("%s/nodes", cfg.ProcessedPrefix), load.Graph.AllNodePayloads(), packagesByID, graphStats, runMeta, nodeCfg, log)
		if err != nil {
			return result, errors.Wrap(err, "writing node artifacts")
		}
		result.NodeStats = stats
	}

	log.Info("stage2 processing complete", logging.Fields{
		"packages_written": catalogStats.PackagesWritten,
		"embeddings":        result.EmbeddingCount,
		"nodes_uploaded":    result.NodeStats.Uploaded,
	})
	return result, nil
}

// runEmbeddingStage seeds the reuse cache from the embeddings table of db,
// the catalog database in the work directory. That table holds an earlier
// run's vectors only when the work directory is reused from that run; a
// fresh work directory starts with none. It then embeds every package
// whose content_hash isn't already cached, and persists the results back
// into the same database (spec.md §4.5 "Incremental reuse").
func runEmbeddingStage(ctx context.Context, cfg RunConfiguration, db *catalogdb.DB, packages []catalog.Package, log *logging.Logger) (int, error) {
	prior, err := catalogdb.LoadEmbeddingsByContentHash(ctx, db)
	if err != nil {
		return 0, errors.Wrap(err, "loading prior embeddings")
	}
	reuse := &cache.CoalescingMemoryCache{}
	for hash, vec := range prior {
		vec := vec
		reuse.Set(hash, func() (any, error) { return vec, nil })
	}

	client := embedding.NewClient(embedding.Config{
		Host:                 cfg.EmbeddingHost,
		Model:                cfg.EmbeddingModelID,
		OutputDimensionality: cfg.OutputDimension,
		MaxRPM:               cfg.MaxRPM,
		MaxTPM:               cfg.MaxTPM,
	}, http.DefaultClient, reuse, log)

	reqs := make([]embedding.Request, 0, len(packages))
	for _, p := range packages {
		reqs = append(reqs, embedding.Request{
			RecordID:    p.PackageID,
			Text:        embedding.BuildText(p),
			ContentHash: normalize.ContentHash(p),
		})
	}

	results, err := client.Embed(ctx, reqs)
	if err != nil {
		return 0, errors.Wrap(err, "embedding packages")
	}

	byID := make(map[string]uint64, len(packages))
	for _, p := range packages {
		byID[p.PackageID] = normalize.ContentHash(p)
	}
	records := make([]catalogdb.EmbeddingRecord, 0, len(results))
	written := 0
	for _, r := range results {
		if len(r.Vector) == 0 {
			continue
		}
		records = append(records, catalogdb.EmbeddingRecord{
			PackageID:   r.RecordID,
			Vector:      r.Vector,
			ContentHash: byID[r.RecordID],
		})
		written++
	}
	if err := catalogdb.WriteEmbeddings(ctx, db, records); err != nil {
		return 0, errors.Wrap(err, "writing embeddings")
	}
	return written, nil
}

// uploadArtifact reads a local artifact file and uploads it uncompressed
// under a timestamped key; spec.md §4.2 reserves on-the-fly brotli/zstd
// compression for small JSON payloads, not multi-megabyte SQLite files,
// which already carry their own page-level structure.
func uploadArtifact(ctx context.Context, store objectstore.Store, cfg RunConfiguration, localPath string, now int64, name string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", localPath)
	}
	key := fmt.Sprintf("%s/%d/%s", cfg.ProcessedPrefix, now, name)
	return store.PutBlob(ctx, key, data, objectstore.BlobMeta{ContentType: "application/octet-stream"})
}
