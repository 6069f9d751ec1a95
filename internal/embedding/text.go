// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"fmt"
	"strings"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

const maxTextLen = 2000

// BuildText renders the fixed-order textual representation spec.md §4.5
// "Text construction" specifies, truncated to maxTextLen with a "..."
// suffix. This exact field set is also what internal/normalize.ContentHash
// hashes over, so a content-hash cache hit implies an identical text here.
func BuildText(p catalog.Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s.", p.PackageName)
	fmt.Fprintf(&b, " Version: %s.", p.Version)
	if p.MainProgram != "" {
		fmt.Fprintf(&b, " Main Program: %s.", p.MainProgram)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, " Description: %s.", p.Description)
	}
	if p.LongDescription != "" && p.LongDescription != p.Description {
		fmt.Fprintf(&b, " %s.", p.LongDescription)
	}
	if p.Homepage != "" {
		fmt.Fprintf(&b, " Homepage: %s.", p.Homepage)
	}
	if lic := formatLicenses(p.Licenses); lic != "" {
		fmt.Fprintf(&b, " License: %s.", lic)
	}
	if m := formatMaintainers(p.Maintainers); m != "" {
		fmt.Fprintf(&b, " Maintainers: %s.", m)
	}
	if pl := formatPlatforms(p.Platforms); pl != "" {
		fmt.Fprintf(&b, " Platforms: %s.", pl)
	}
	fmt.Fprintf(&b, " Attribute: %s.", p.AttributePath)

	text := b.String()
	if len(text) > maxTextLen {
		text = text[:maxTextLen-3] + "..."
	}
	return text
}

func formatLicenses(licenses []catalog.License) string {
	names := make([]string, 0, len(licenses))
	for _, l := range licenses {
		if l.ShortName != "" {
			names = append(names, l.ShortName)
		}
	}
	return strings.Join(names, ", ")
}

func formatMaintainers(maintainers []catalog.Maintainer) string {
	n := len(maintainers)
	if n > 3 {
		n = 3
	}
	names := make([]string, 0, n)
	for _, m := range maintainers[:n] {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return strings.Join(names, ", ")
}

func formatPlatforms(platforms []string) string {
	n := len(platforms)
	if n > 5 {
		n = 5
	}
	return strings.Join(platforms[:n], ", ")
}
