// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/depgraph"
	"github.com/fdnix/fdnix-catalog/internal/logging"
	"github.com/fdnix/fdnix-catalog/internal/normalize"
	"github.com/fdnix/fdnix-catalog/internal/record"
)

// LoadResult is everything Stage2 needs from the raw JSONL: every
// per-variant package ready for catalog.MergeAll, the dependency graph
// built from the same records, and the run's extraction metadata.
type LoadResult struct {
	Parts    []catalog.Package
	Graph    *depgraph.Graph
	Metadata record.Metadata
}

// Load parses the combined raw JSONL at path: the first line is the
// synthetic metadata object (spec.md §5 "Raw JSONL"); every following line
// is normalized (spec.md §4.3) and folded into both the package list and
// the dependency graph builder in the same pass, since both need the same
// per-record (package_id, drv_path, inputDrvs) triple.
func Load(path string, log *logging.Logger) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, errors.Wrap(err, "opening raw jsonl")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	builder := depgraph.NewBuilder()
	var parts []catalog.Package
	var meta record.Metadata
	first := true

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var wrapper record.MetadataLine
			if err := json.Unmarshal(line, &wrapper); err == nil && wrapper.Metadata != nil {
				meta = *wrapper.Metadata
				continue
			}
		}

		var raw record.Raw
		if err := json.Unmarshal(line, &raw); err != nil {
			log.Warn("skipping malformed record", logging.Fields{"error": err.Error()})
			continue
		}
		result, err := normalize.Record(raw)
		if err != nil {
			log.Warn("skipping record that failed normalization", logging.Fields{"attr_path": raw.AttrPath, "error": err.Error()})
			continue
		}

		inputDrvs := make([]string, 0, len(raw.InputDrvs))
		for drv := range raw.InputDrvs {
			inputDrvs = append(inputDrvs, drv)
		}
		builder.AddNode(result.Package.PackageID, result.Package.PackageName, result.Package.Version, result.Package.AttributePath, raw.DrvPath, inputDrvs)
		parts = append(parts, result.Package)
	}
	if err := scanner.Err(); err != nil {
		return LoadResult{}, errors.Wrap(err, "scanning raw jsonl")
	}

	return LoadResult{Parts: parts, Graph: builder.Build(), Metadata: meta}, nil
}
