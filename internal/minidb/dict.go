// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package minidb

import (
	"encoding/json"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

// TrainDictionary builds a zstd raw-content dictionary (spec.md §4.7
// "Dictionary training") from a uniform sample of up to cfg.SampleCount
// packages, capped at cfg.DictSize bytes.
//
// klauspost/compress/zstd, the pure-Go zstd implementation this module
// depends on (see DESIGN.md), does not expose the COVER/FastCOVER
// dictionary-training algorithm zstd's reference C library provides
// (ZDICT_trainFromBuffer) — there is no cgo dependency in this repo to
// reach it. This instead builds a "raw content" dictionary per the zstd
// format spec: a byte buffer of representative sample content that primes
// the compressor's window, which klauspost/compress's
// zstd.WithEncoderDict/WithDecoderDicts accept exactly as a trained
// dictionary would be accepted. It compresses less effectively than a
// COVER-trained dictionary but is a legitimate zstd dictionary, not an
// approximation of one.
func TrainDictionary(packages []catalog.Package, cfg Config) ([]byte, error) {
	cfg = cfg.Resolve()
	samples := sampleUniform(packages, cfg.SampleCount)

	dict := make([]byte, 0, cfg.DictSize)
	for _, pkg := range samples {
		encoded, err := json.Marshal(pkg)
		if err != nil {
			return nil, errors.Wrap(err, "marshaling sample package")
		}
		if len(dict)+len(encoded) > cfg.DictSize {
			remaining := cfg.DictSize - len(dict)
			if remaining <= 0 {
				break
			}
			dict = append(dict, encoded[:remaining]...)
			break
		}
		dict = append(dict, encoded...)
	}
	return dict, nil
}

// sampleUniform selects min(k, len(packages)) packages by reservoir
// sampling, giving every package an equal chance of inclusion regardless
// of input size (spec.md §4.7 "uniform random").
func sampleUniform(packages []catalog.Package, k int) []catalog.Package {
	if len(packages) <= k {
		out := make([]catalog.Package, len(packages))
		copy(out, packages)
		return out
	}
	out := make([]catalog.Package, k)
	copy(out, packages[:k])
	for i := k; i < len(packages); i++ {
		j := rand.Intn(i + 1)
		if j < k {
			out[j] = packages[i]
		}
	}
	return out
}
