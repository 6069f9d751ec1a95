// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package nodestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/depgraph"
	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/objectstore"
)

// NodeDocument is the object written at `<prefix>/<node_id>.json.br`
// (spec.md §4.8): full package metadata, dependency/dependent lists and
// counts, and run metadata.
type NodeDocument struct {
	Package      catalog.Package      `json:"package"`
	Dependencies depgraph.NodePayload `json:"dependencies"`
	Meta         RunMetadata          `json:"meta"`
}

// Write uploads one object per payload (bounded by cfg.Workers, batched by
// cfg.BatchSize) and finishes with the index file. packages must be keyed
// by the same node id as each payload's Vertex.ID.
func Write(ctx context.Context, store objectstore.Store, prefix string, payloads []depgraph.NodePayload, packages map[string]catalog.Package, graphStats depgraph.Stats, runMeta RunMetadata, cfg Config, log *logging.Logger) (Stats, error) {
	cfg = cfg.Resolve()

	if cfg.ClearExistingKey {
		if err := store.DeletePrefix(ctx, prefix); err != nil {
			return Stats{}, errors.Wrap(err, "clearing existing node prefix")
		}
	}

	batches := chunkPayloads(payloads, cfg.BatchSize)
	sem := make(chan struct{}, cfg.Workers)
	var limiter *rate.Limiter
	if cfg.UploadRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UploadRPS), cfg.Workers)
	}
	var mu sync.Mutex
	var stats Stats
	var wg sync.WaitGroup

	for _, batch := range batches {
		batch := batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			uploaded, failed := uploadBatch(ctx, store, prefix, batch, packages, runMeta, limiter, log)
			mu.Lock()
			stats.Uploaded += uploaded
			stats.Failed += failed
			mu.Unlock()
		}()
	}
	wg.Wait()

	if err := writeIndex(ctx, store, prefix, payloads, packages, graphStats, runMeta); err != nil {
		return stats, errors.Wrap(err, "writing index file")
	}
	log.Info("nodestore write complete", logging.Fields{"uploaded": stats.Uploaded, "failed": stats.Failed})
	return stats, nil
}

func chunkPayloads(payloads []depgraph.NodePayload, size int) [][]depgraph.NodePayload {
	var batches [][]depgraph.NodePayload
	for i := 0; i < len(payloads); i += size {
		end := i + size
		if end > len(payloads) {
			end = len(payloads)
		}
		batches = append(batches, payloads[i:end])
	}
	return batches
}

func uploadBatch(ctx context.Context, store objectstore.Store, prefix string, batch []depgraph.NodePayload, packages map[string]catalog.Package, runMeta RunMetadata, limiter *rate.Limiter, log *logging.Logger) (uploaded, failed int) {
	for _, payload := range batch {
		doc := NodeDocument{
			Package:      packages[payload.Vertex.ID],
			Dependencies: payload,
			Meta:         runMeta,
		}
		plain, err := json.Marshal(doc)
		if err != nil {
			log.Warn("marshaling node document failed", logging.Fields{"node_id": payload.Vertex.ID, "error": err.Error()})
			failed++
			continue
		}
		compressed, err := objectstore.CompressJSON(plain)
		if err != nil {
			log.Warn("compressing node document failed", logging.Fields{"node_id": payload.Vertex.ID, "error": err.Error()})
			failed++
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.Warn("rate limiter wait aborted", logging.Fields{"node_id": payload.Vertex.ID, "error": err.Error()})
				failed++
				continue
			}
		}
		key := fmt.Sprintf("%s/%s.json.br", prefix, payload.Vertex.ID)
		meta := objectstore.BlobMeta{ContentType: "application/json", ContentEncoding: "br"}
		if err := store.PutBlob(ctx, key, compressed, meta); err != nil {
			log.Warn("uploading node document failed", logging.Fields{"node_id": payload.Vertex.ID, "error": err.Error()})
			failed++
			continue
		}
		uploaded++
	}
	return uploaded, failed
}

func writeIndex(ctx context.Context, store objectstore.Store, prefix string, payloads []depgraph.NodePayload, packages map[string]catalog.Package, graphStats depgraph.Stats, runMeta RunMetadata) error {
	entries := make([]IndexEntry, 0, len(payloads))
	for _, payload := range payloads {
		pkg := packages[payload.Vertex.ID]
		entries = append(entries, IndexEntry{
			ID:            pkg.PackageID,
			Name:          pkg.PackageName,
			Version:       pkg.Version,
			AttributePath: pkg.AttributePath,
			Description:   truncateDescription(pkg.Description),
			Category:      pkg.Category,
			Broken:        pkg.Broken,
			Unfree:        pkg.Unfree,
		})
	}
	index := IndexFile{Entries: entries, GraphStats: graphStats, Meta: runMeta}
	plain, err := json.Marshal(index)
	if err != nil {
		return errors.Wrap(err, "marshaling index file")
	}
	compressed, err := objectstore.CompressJSON(plain)
	if err != nil {
		return errors.Wrap(err, "compressing index file")
	}
	key := fmt.Sprintf("%s/index.json.br", prefix)
	return store.PutBlob(ctx, key, compressed, objectstore.BlobMeta{ContentType: "application/json", ContentEncoding: "br"})
}
