// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog defines the canonical, system-independent domain types
// produced by normalization: packages, variants, licenses, architectures
// and maintainers, plus the many-to-many relationships between them.
package catalog

import "time"

// Package is the canonical, system-independent package record (spec.md §3).
type Package struct {
	PackageID        string
	PackageName      string
	Version          string
	AttributePath    string
	Description      string
	LongDescription  string
	Homepage         string
	Category         string
	Broken           bool
	Unfree           bool
	Available        bool
	Insecure         bool
	Unsupported      bool
	MainProgram      string
	Position         string
	OutputsToInstall []string
	LastUpdated      time.Time
	ContentHash      uint64

	Licenses    []License
	Platforms   []string
	Maintainers []Maintainer
	Variants    []Variant
}

// Variant is an architecture-specific specialization of a canonical package.
type Variant struct {
	PackageID string
	System    string
	DrvPath   string
	Outputs   []string
}

// Maintainer is a package maintainer identity. The UNIQUE key is the triple
// (Name, Email, GitHub).
type Maintainer struct {
	Name     string
	Email    string
	GitHub   string
	GitHubID int64
}

// Key returns the dedup key used when merging maintainers across variants
// and when enforcing the maintainers table's UNIQUE constraint.
func (m Maintainer) Key() string {
	return m.Name + "\x00" + m.Email + "\x00" + m.GitHub
}

// License is the normalized license record. short_name is the table's
// UNIQUE key.
type License struct {
	ShortName        string
	FullName         string
	SPDXID           string
	URL              string
	IsFree           bool
	IsRedistributable bool
	IsDeprecated     bool
}
