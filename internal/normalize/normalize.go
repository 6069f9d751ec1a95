// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package normalize parses heterogeneous evaluator meta fields into
// canonical package and variant rows (spec.md §4.3, C3).
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
	"github.com/fdnix/fdnix-catalog/internal/record"
)

var archSuffixRE = regexp.MustCompile(`(?i).*linux.*|.*darwin.*|.*windows.*`)

// PackageID derives the architecture-independent package_id from an
// attribute path, stripping the first segment that names a system tuple
// (e.g. "x86_64-linux", "aarch64-darwin"), wherever it falls in the path —
// not only at the tail, since a system segment often sits between a
// top-level scope and the package name (e.g. "legacyPackages.x86_64-linux.
// hello"). A single-segment path is returned unchanged even if it matches,
// so a package actually named after a system tuple doesn't collapse to the
// empty string. attrPath is never mutated.
func PackageID(attrPath []string) string {
	if len(attrPath) == 0 {
		return ""
	}
	if len(attrPath) > 1 {
		for i, seg := range attrPath {
			if archSuffixRE.MatchString(seg) {
				out := make([]string, 0, len(attrPath)-1)
				out = append(out, attrPath[:i]...)
				out = append(out, attrPath[i+1:]...)
				return strings.Join(out, ".")
			}
		}
	}
	return strings.Join(attrPath, ".")
}

// NameVersion splits `name` (e.g. "hello-2.12") into (pname, version),
// scanning left to right for the first "-"-delimited segment that looks
// like a version (starts with a digit or 'v'). Falls back to
// (name, "unknown") if no such segment exists.
func NameVersion(name string) (pname, version string) {
	segs := strings.Split(name, "-")
	for i, seg := range segs {
		if seg == "" {
			continue
		}
		c := seg[0]
		if (c >= '0' && c <= '9') || c == 'v' {
			return strings.Join(segs[:i], "-"), strings.Join(segs[i:], "-")
		}
	}
	return name, "unknown"
}

// Result is the output of normalizing one raw record: a canonical package
// (with a single embedded Variant and its System) plus the resolved System
// token, ready to be merged across records sharing the same PackageID via
// catalog.Merge.
type Result struct {
	Package catalog.Package
	System  string
}

// guessSystem returns the architecture token trailing the attribute path,
// if present, else the empty string (meaning "unknown"/multi-arch).
func guessSystem(attrPath []string) string {
	if len(attrPath) == 0 {
		return ""
	}
	last := attrPath[len(attrPath)-1]
	if archSuffixRE.MatchString(last) {
		return last
	}
	return ""
}

// Record normalizes a single raw evaluator record into a Result.
// A meta.license value that DecodeLicense rejects is returned as an error
// for the caller to log and skip. A missing name is not an error: the
// package keeps an empty name, and if the attribute path yields no
// package id either, the id becomes "@unknown". Record never panics on
// malformed input.
func Record(raw record.Raw) (Result, error) {
	pkgID := PackageID(raw.AttrPath)
	name, version := "", ""
	if raw.Name != "" {
		name, version = NameVersion(raw.Name)
	}
	if pkgID == "" {
		if raw.Name == "" {
			pkgID = "@unknown"
		} else {
			pkgID = name + "@" + version
		}
	}

	license, err := DecodeLicense(raw.Meta.License)
	if err != nil {
		return Result{}, err
	}
	var licenses []catalog.License
	if license != nil {
		licenses = license.Licenses()
	}

	platforms := truncateStrings(decodeStringList(raw.Meta.Platforms), maxPlatforms)
	maintainers := DecodeMaintainers(raw.Meta.Maintainers)

	pkg := catalog.Package{
		PackageID:        pkgID,
		PackageName:      sanitize(name, maxShortFieldLen),
		Version:          sanitize(version, maxShortFieldLen),
		AttributePath:    sanitize(strings.Join(raw.AttrPath, "."), maxFieldLen),
		Description:      sanitize(raw.Meta.Description, maxFieldLen),
		LongDescription:  sanitize(raw.Meta.LongDescription, maxFieldLen),
		Homepage:         sanitize(raw.Meta.HomepageString(), maxFieldLen),
		Category:         Category(raw.Meta.Category, raw.AttrPath),
		Broken:           raw.Meta.Broken,
		Unfree:           raw.Meta.Unfree,
		Available:        raw.Meta.AvailableOrDefault(),
		Insecure:         raw.Meta.Insecure,
		Unsupported:      raw.Meta.Unsupported,
		MainProgram:      sanitize(raw.Meta.MainProgram, maxShortFieldLen),
		Position:         sanitize(raw.Meta.Position, maxFieldLen),
		OutputsToInstall: raw.Meta.OutputsToInstall,
		LastUpdated:      time.Time{},
		Licenses:         licenses,
		Platforms:        platforms,
		Maintainers:      maintainers,
	}
	system := guessSystem(raw.AttrPath)
	var outputs []string
	if len(raw.Meta.OutputsToInstall) > 0 {
		outputs = raw.Meta.OutputsToInstall
	}
	pkg.Variants = []catalog.Variant{{
		PackageID: pkgID,
		System:    system,
		DrvPath:   raw.DrvPath,
		Outputs:   outputs,
	}}
	pkg.ContentHash = ContentHash(pkg)
	return Result{Package: pkg, System: system}, nil
}

// ContentHash computes a stable integer digest over every field that feeds
// the embedding text, used to decide whether a prior embedding may be
// reused instead of calling the embedding service again.
//
// Whether maintainers should influence the embedding text's cache key is
// a judgment call: text construction renders "Maintainers: <top 3>" into
// the embedding input (internal/embedding.BuildText), so this hash
// includes the same top-3 maintainer names. Omitting them would let a
// maintainer addition or removal slip past the cache and silently reuse a
// vector for now-different input text. The hash uses exactly the same
// top-N truncation as BuildText (3 maintainers, 5 platforms) so that a
// cache hit holds precisely when the generated text would be identical.
func ContentHash(p catalog.Package) uint64 {
	h := xxhash.New()
	write := func(s string) {
		_, _ = h.WriteString(s)
		_, _ = h.Write([]byte{0})
	}
	write(p.PackageName)
	write(p.Version)
	write(p.MainProgram)
	write(p.Description)
	write(p.LongDescription)
	write(p.Homepage)
	write(p.AttributePath)
	for _, l := range p.Licenses {
		write(l.ShortName)
	}
	platforms := p.Platforms
	if len(platforms) > 5 {
		platforms = platforms[:5]
	}
	for _, pl := range platforms {
		write(pl)
	}
	maintainers := p.Maintainers
	if len(maintainers) > 3 {
		maintainers = maintainers[:3]
	}
	for _, m := range maintainers {
		write(m.Name)
	}
	return h.Sum64()
}

// ContentHashString renders a ContentHash as a stable decimal string, useful
// for JSON/SQL storage where a plain uint64 risks sign-extension surprises
// in consumers that parse it as a signed 64-bit integer.
func ContentHashString(h uint64) string {
	return strconv.FormatUint(h, 10)
}
