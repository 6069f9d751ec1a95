// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

// Merge combines all per-record Packages sharing one package_id into a
// single canonical Package, applying these variant merge rules:
//
//   - platforms: set-union of all variants' platforms
//   - maintainers: union, deduplicated by (name, email, github)
//   - description/long_description/homepage/category/main_program/license:
//     first non-null wins, using the insertion order of parts (which must
//     be the original JSONL order)
//   - broken/unfree/insecure/unsupported: logical OR across variants
//   - available: logical AND across variants
//
// parts must be passed in JSONL insertion order. The returned Package's
// Variants field holds one entry per (package_id, system) pair,
// deduplicated, which is also the source of truth for the variations table.
func Merge(parts []Package) Package {
	if len(parts) == 0 {
		return Package{}
	}
	out := parts[0]
	out.Available = true
	out.Broken, out.Unfree, out.Insecure, out.Unsupported = false, false, false, false
	out.Description, out.LongDescription, out.Homepage, out.Category, out.MainProgram = "", "", "", "", ""
	out.Licenses = nil
	out.Platforms = nil
	out.Maintainers = nil
	out.Variants = nil

	platformSeen := map[string]bool{}
	maintainerSeen := map[string]bool{}
	variantSeen := map[string]bool{}
	licenseSeen := map[string]bool{}

	for _, p := range parts {
		if out.PackageName == "" {
			out.PackageName = p.PackageName
		}
		if out.Version == "" {
			out.Version = p.Version
		}
		if out.AttributePath == "" {
			out.AttributePath = p.AttributePath
		}
		if out.Description == "" {
			out.Description = p.Description
		}
		if out.LongDescription == "" {
			out.LongDescription = p.LongDescription
		}
		if out.Homepage == "" {
			out.Homepage = p.Homepage
		}
		if out.Category == "" {
			out.Category = p.Category
		}
		if out.MainProgram == "" {
			out.MainProgram = p.MainProgram
		}
		if out.Position == "" {
			out.Position = p.Position
		}
		if len(out.OutputsToInstall) == 0 {
			out.OutputsToInstall = p.OutputsToInstall
		}
		if len(out.Licenses) == 0 {
			for _, l := range p.Licenses {
				if !licenseSeen[l.ShortName] {
					licenseSeen[l.ShortName] = true
					out.Licenses = append(out.Licenses, l)
				}
			}
		}

		out.Available = out.Available && p.Available
		out.Broken = out.Broken || p.Broken
		out.Unfree = out.Unfree || p.Unfree
		out.Insecure = out.Insecure || p.Insecure
		out.Unsupported = out.Unsupported || p.Unsupported

		for _, pl := range p.Platforms {
			if !platformSeen[pl] {
				platformSeen[pl] = true
				out.Platforms = append(out.Platforms, pl)
			}
		}
		for _, m := range p.Maintainers {
			k := m.Key()
			if !maintainerSeen[k] {
				maintainerSeen[k] = true
				out.Maintainers = append(out.Maintainers, m)
			}
		}
		for _, v := range p.Variants {
			k := v.System
			if !variantSeen[k] {
				variantSeen[k] = true
				out.Variants = append(out.Variants, v)
			}
		}
	}
	return out
}

// GroupByPackageID groups packages (typically one per raw record, as
// produced by internal/normalize.Record) by PackageID, preserving the
// insertion order of each group's members.
func GroupByPackageID(packages []Package) map[string][]Package {
	groups := make(map[string][]Package)
	for _, p := range packages {
		groups[p.PackageID] = append(groups[p.PackageID], p)
	}
	return groups
}

// MergeAll groups and merges every package, returning one canonical Package
// per distinct PackageID. Order of the returned slice is unspecified; sort
// by PackageID if determinism is required (e.g. for artifact-diffing).
func MergeAll(packages []Package) []Package {
	groups := GroupByPackageID(packages)
	out := make([]Package, 0, len(groups))
	for _, group := range groups {
		out = append(out, Merge(group))
	}
	return out
}
