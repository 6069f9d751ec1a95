// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalogdb

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

// Stats summarizes one WritePackages call.
type Stats struct {
	PackagesWritten int
	LicensesWritten int
	ArchesWritten   int
	MaintainersWritten int
}

// WritePackages groups raw per-variant records into canonical packages
// (catalog.MergeAll), then writes the full relational shape described by
// spec.md §4.6: one packages row per canonical package, the lookup tables
// for licenses/architectures/maintainers, their junction tables, the
// per-system package_variations rows, and the packages_fts index. The
// write runs in a single transaction so a crash mid-write never leaves a
// partially-populated catalog on disk.
func WritePackages(ctx context.Context, db *DB, parts []catalog.Package) (Stats, error) {
	merged := catalog.MergeAll(parts)
	sort.Slice(merged, func(i, j int) bool { return merged[i].PackageID < merged[j].PackageID })

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "beginning write transaction")
	}
	defer tx.Rollback()

	w := &writer{tx: tx, ctx: ctx,
		licenseIDs:    map[string]int64{},
		archIDs:       map[string]int64{},
		maintainerIDs: map[string]int64{},
	}
	for _, pkg := range merged {
		if err := w.writePackage(pkg); err != nil {
			return Stats{}, errors.Wrapf(err, "writing package %s", pkg.PackageID)
		}
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, errors.Wrap(err, "committing write transaction")
	}
	return Stats{
		PackagesWritten:    len(merged),
		LicensesWritten:    len(w.licenseIDs),
		ArchesWritten:      len(w.archIDs),
		MaintainersWritten: len(w.maintainerIDs),
	}, nil
}

// writer caches lookup-table ids across packages within one transaction so
// repeated licenses/architectures/maintainers are inserted exactly once.
type writer struct {
	tx  *sql.Tx
	ctx context.Context

	licenseIDs    map[string]int64
	archIDs       map[string]int64
	maintainerIDs map[string]int64
}

func (w *writer) writePackage(pkg catalog.Package) error {
	searchText := buildSearchText(pkg)
	_, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO packages (
			package_id, package_name, version, attribute_path, description,
			long_description, search_text, homepage, category, broken, unfree,
			available, insecure, unsupported, main_program, position,
			outputs_to_install, last_updated, content_hash
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(package_id) DO UPDATE SET
			package_name=excluded.package_name, version=excluded.version,
			attribute_path=excluded.attribute_path, description=excluded.description,
			long_description=excluded.long_description, search_text=excluded.search_text,
			homepage=excluded.homepage, category=excluded.category, broken=excluded.broken,
			unfree=excluded.unfree, available=excluded.available, insecure=excluded.insecure,
			unsupported=excluded.unsupported, main_program=excluded.main_program,
			position=excluded.position, outputs_to_install=excluded.outputs_to_install,
			last_updated=excluded.last_updated, content_hash=excluded.content_hash`,
		pkg.PackageID, pkg.PackageName, pkg.Version, pkg.AttributePath, pkg.Description,
		pkg.LongDescription, searchText, pkg.Homepage, pkg.Category, pkg.Broken, pkg.Unfree,
		pkg.Available, pkg.Insecure, pkg.Unsupported, pkg.MainProgram, pkg.Position,
		strings.Join(pkg.OutputsToInstall, ","), pkg.LastUpdated, pkg.ContentHash,
	)
	if err != nil {
		return errors.Wrap(err, "upserting packages row")
	}

	if _, err := w.tx.ExecContext(w.ctx,
		`DELETE FROM packages_fts WHERE package_id = ?`, pkg.PackageID,
	); err != nil {
		return errors.Wrap(err, "clearing stale fts row")
	}
	if _, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO packages_fts(package_id, package_name, attribute_path, description, long_description, main_program)
		VALUES (?,?,?,?,?,?)`,
		pkg.PackageID, pkg.PackageName, pkg.AttributePath, pkg.Description, pkg.LongDescription, pkg.MainProgram,
	); err != nil {
		return errors.Wrap(err, "inserting fts row")
	}

	for _, l := range pkg.Licenses {
		id, err := w.licenseID(l)
		if err != nil {
			return err
		}
		if _, err := w.tx.ExecContext(w.ctx,
			`INSERT OR IGNORE INTO package_licenses(package_id, license_id) VALUES (?,?)`,
			pkg.PackageID, id,
		); err != nil {
			return errors.Wrap(err, "linking package_licenses")
		}
	}
	for _, arch := range pkg.Platforms {
		id, err := w.archID(arch)
		if err != nil {
			return err
		}
		if _, err := w.tx.ExecContext(w.ctx,
			`INSERT OR IGNORE INTO package_architectures(package_id, arch_id) VALUES (?,?)`,
			pkg.PackageID, id,
		); err != nil {
			return errors.Wrap(err, "linking package_architectures")
		}
	}
	for _, m := range pkg.Maintainers {
		id, err := w.maintainerID(m)
		if err != nil {
			return err
		}
		if _, err := w.tx.ExecContext(w.ctx,
			`INSERT OR IGNORE INTO package_maintainers(package_id, maintainer_id) VALUES (?,?)`,
			pkg.PackageID, id,
		); err != nil {
			return errors.Wrap(err, "linking package_maintainers")
		}
	}
	for _, v := range pkg.Variants {
		if _, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO package_variations(package_id, system, drv_path, outputs)
			VALUES (?,?,?,?)
			ON CONFLICT(package_id, system) DO UPDATE SET
				drv_path=excluded.drv_path, outputs=excluded.outputs`,
			pkg.PackageID, v.System, v.DrvPath, strings.Join(v.Outputs, ","),
		); err != nil {
			return errors.Wrap(err, "upserting package_variations")
		}
	}
	return nil
}

func (w *writer) licenseID(l catalog.License) (int64, error) {
	if id, ok := w.licenseIDs[l.ShortName]; ok {
		return id, nil
	}
	if _, err := w.tx.ExecContext(w.ctx, `
		INSERT OR IGNORE INTO licenses(short_name, full_name, spdx_id, url, is_free, is_redistributable, is_deprecated)
		VALUES (?,?,?,?,?,?,?)`,
		l.ShortName, l.FullName, l.SPDXID, l.URL, l.IsFree, l.IsRedistributable, l.IsDeprecated,
	); err != nil {
		return 0, errors.Wrap(err, "inserting license")
	}
	var id int64
	if err := w.tx.QueryRowContext(w.ctx, `SELECT license_id FROM licenses WHERE short_name = ?`, l.ShortName).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "looking up license id")
	}
	w.licenseIDs[l.ShortName] = id
	return id, nil
}

func (w *writer) archID(name string) (int64, error) {
	if id, ok := w.archIDs[name]; ok {
		return id, nil
	}
	if _, err := w.tx.ExecContext(w.ctx, `INSERT OR IGNORE INTO architectures(name) VALUES (?)`, name); err != nil {
		return 0, errors.Wrap(err, "inserting architecture")
	}
	var id int64
	if err := w.tx.QueryRowContext(w.ctx, `SELECT arch_id FROM architectures WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "looking up architecture id")
	}
	w.archIDs[name] = id
	return id, nil
}

func (w *writer) maintainerID(m catalog.Maintainer) (int64, error) {
	if id, ok := w.maintainerIDs[m.Key()]; ok {
		return id, nil
	}
	if _, err := w.tx.ExecContext(w.ctx, `
		INSERT OR IGNORE INTO maintainers(name, email, github, github_id) VALUES (?,?,?,?)`,
		m.Name, m.Email, m.GitHub, m.GitHubID,
	); err != nil {
		return 0, errors.Wrap(err, "inserting maintainer")
	}
	var id int64
	if err := w.tx.QueryRowContext(w.ctx,
		`SELECT maintainer_id FROM maintainers WHERE name = ? AND email = ? AND github = ?`,
		m.Name, m.Email, m.GitHub,
	).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "looking up maintainer id")
	}
	w.maintainerIDs[m.Key()] = id
	return id, nil
}

// buildSearchText concatenates the fields a free-text search should match,
// in descending order of relevance (spec.md §4.6 "search_text").
func buildSearchText(pkg catalog.Package) string {
	parts := []string{pkg.PackageName, pkg.Description, pkg.LongDescription, pkg.AttributePath, pkg.MainProgram}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
