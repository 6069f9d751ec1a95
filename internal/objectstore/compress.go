// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"bytes"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"
)

// DefaultBrotliQuality is the quality level spec.md §4.2 prescribes for
// JSON payloads ("brotli quality 5-6"): fast enough for per-node writers,
// still a meaningful size reduction over uncompressed JSON.
const DefaultBrotliQuality = 6

// CompressJSON brotli-compresses data at DefaultBrotliQuality. Callers
// below CompressionThreshold bytes should skip this and store the blob
// uncompressed (spec.md §4.2).
func CompressJSON(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, DefaultBrotliQuality)
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "brotli compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "brotli close")
	}
	return buf.Bytes(), nil
}

// DecompressJSON reverses CompressJSON.
func DecompressJSON(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := bufReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "brotli decompress")
	}
	return out, nil
}

func bufReadAll(r *brotli.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	return buf.Bytes(), err
}
