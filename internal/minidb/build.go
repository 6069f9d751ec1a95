// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package minidb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/logging"
)

// Build trains a dictionary from packages, writes it to dictPath, then
// compresses every package into dbPath's packages_kv table with an FTS5
// overlay, verifying each round-trip before committing (spec.md §4.7).
func Build(ctx context.Context, packages []catalog.Package, dbPath, dictPath string, cfg Config, log *logging.Logger) (Stats, error) {
	cfg = cfg.Resolve()

	dict, err := TrainDictionary(packages, cfg)
	if err != nil {
		return Stats{}, errors.Wrap(err, "training dictionary")
	}
	if err := os.WriteFile(dictPath, dict, 0o644); err != nil {
		return Stats{}, errors.Wrap(err, "writing dictionary file")
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderDict(dict),
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)),
	)
	if err != nil {
		return Stats{}, errors.Wrap(err, "creating zstd encoder")
	}
	defer enc.Close()
	dec, err := zstd.NewReader(nil, zstd.WithDecoderDicts(dict))
	if err != nil {
		return Stats{}, errors.Wrap(err, "creating zstd decoder")
	}
	defer dec.Close()

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return Stats{}, errors.Wrap(err, "opening minified database")
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)
	for _, name := range migrationFiles {
		sqlBytes, err := migrationsFS.ReadFile(name)
		if err != nil {
			return Stats{}, errors.Wrapf(err, "reading embedded migration %s", name)
		}
		if _, err := conn.Exec(string(sqlBytes)); err != nil {
			return Stats{}, errors.Wrapf(err, "applying migration %s", name)
		}
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "beginning minidb transaction")
	}
	defer tx.Rollback()

	for _, pkg := range packages {
		plain, err := json.Marshal(pkg)
		if err != nil {
			return Stats{}, errors.Wrapf(err, "marshaling package %s", pkg.PackageID)
		}
		compressed := enc.EncodeAll(plain, nil)

		roundTrip, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return Stats{}, errors.Wrapf(ErrVerificationFailed, "decoding package %s: %v", pkg.PackageID, err)
		}
		if !bytes.Equal(roundTrip, plain) {
			return Stats{}, errors.Wrapf(ErrVerificationFailed, "package %s: round-trip mismatch", pkg.PackageID)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO packages_kv (package_id, package_name, description, compressed_data)
			VALUES (?,?,?,?)
			ON CONFLICT(package_id) DO UPDATE SET
				package_name=excluded.package_name, description=excluded.description,
				compressed_data=excluded.compressed_data`,
			pkg.PackageID, pkg.PackageName, pkg.Description, compressed,
		); err != nil {
			return Stats{}, errors.Wrapf(err, "inserting packages_kv row for %s", pkg.PackageID)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO packages_kv_fts(packages_kv_fts) VALUES('rebuild')`); err != nil {
		return Stats{}, errors.Wrap(err, "rebuilding fts overlay")
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, errors.Wrap(err, "committing minidb transaction")
	}

	if _, err := conn.ExecContext(ctx, "ANALYZE"); err != nil {
		return Stats{}, errors.Wrap(err, "ANALYZE")
	}
	if _, err := conn.ExecContext(ctx, "VACUUM"); err != nil {
		return Stats{}, errors.Wrap(err, "VACUUM")
	}

	log.Info("minidb build complete", logging.Fields{"packages": len(packages), "dict_bytes": len(dict)})
	return Stats{PackagesWritten: len(packages), DictionaryBytes: len(dict)}, nil
}
