// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalogdb

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/normalize"
)

// EmbeddingRecord is one (package_id, vector, content_hash) tuple (spec.md
// §3 "Embedding").
type EmbeddingRecord struct {
	PackageID   string
	Vector      []float32
	ContentHash uint64
}

// WriteEmbeddings upserts every record with a non-empty vector (spec.md §7
// "EmbeddingFailed ... does not abort batch": records with no vector are
// simply omitted, not written as zero-filled rows).
func WriteEmbeddings(ctx context.Context, db *DB, records []EmbeddingRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning embeddings transaction")
	}
	defer tx.Rollback()

	for _, r := range records {
		if len(r.Vector) == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings (package_id, vector, dimension, content_hash)
			VALUES (?,?,?,?)
			ON CONFLICT(package_id) DO UPDATE SET
				vector=excluded.vector, dimension=excluded.dimension, content_hash=excluded.content_hash`,
			r.PackageID, encodeVector(r.Vector), len(r.Vector), normalize.ContentHashString(r.ContentHash),
		); err != nil {
			return errors.Wrapf(err, "upserting embedding for %s", r.PackageID)
		}
	}
	return tx.Commit()
}

// LoadEmbeddingsByContentHash reads every (content_hash -> vector) pair
// from a prior run's artifact, the seed for this run's incremental reuse
// cache (spec.md §3 "a previous run's (content_hash, vector) pairs seed
// the current run").
func LoadEmbeddingsByContentHash(ctx context.Context, db *DB) (map[uint64][]float32, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT content_hash, vector FROM embeddings`)
	if err != nil {
		return nil, errors.Wrap(err, "querying prior embeddings")
	}
	defer rows.Close()

	out := make(map[uint64][]float32)
	for rows.Next() {
		var hash string
		var raw []byte
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, errors.Wrap(err, "scanning prior embedding row")
		}
		parsed, err := strconv.ParseUint(hash, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing stored content_hash %q", hash)
		}
		out[parsed] = decodeVector(raw)
	}
	return out, rows.Err()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
