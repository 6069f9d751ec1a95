// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package embedding

import (
	"strings"
	"testing"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

func TestBuildText(t *testing.T) {
	pkg := catalog.Package{
		PackageName: "hello",
		Version:     "2.12",
		MainProgram: "hello",
		Description: "GNU Hello",
		Homepage:    "https://www.gnu.org/software/hello/",
		Licenses:    []catalog.License{{ShortName: "gpl3Plus"}},
		Maintainers: []catalog.Maintainer{{Name: "alice"}, {Name: "bob"}},
		Platforms:   []string{"x86_64-linux", "aarch64-linux"},
		AttributePath: "legacyPackages.x86_64-linux.hello",
	}
	text := BuildText(pkg)
	for _, want := range []string{
		"Package: hello.", "Version: 2.12.", "Main Program: hello.",
		"Description: GNU Hello.", "Homepage: https://www.gnu.org/software/hello/.",
		"License: gpl3Plus.", "Maintainers: alice, bob.",
		"Platforms: x86_64-linux, aarch64-linux.",
		"Attribute: legacyPackages.x86_64-linux.hello.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("BuildText() = %q, want it to contain %q", text, want)
		}
	}
}

func TestBuildText_TruncatesAt2000(t *testing.T) {
	pkg := catalog.Package{
		PackageName: "x",
		Version:     "1",
		Description: strings.Repeat("a", 3000),
		AttributePath: "x",
	}
	text := BuildText(pkg)
	if len(text) != maxTextLen {
		t.Fatalf("BuildText() length = %d, want %d", len(text), maxTextLen)
	}
	if !strings.HasSuffix(text, "...") {
		t.Errorf("BuildText() = %q, want '...' suffix when truncated", text[len(text)-10:])
	}
}

func TestBuildText_OmitsDuplicateLongDescription(t *testing.T) {
	pkg := catalog.Package{
		PackageName:     "hello",
		Version:         "1",
		Description:     "GNU Hello",
		LongDescription: "GNU Hello",
		AttributePath:   "hello",
	}
	text := BuildText(pkg)
	if strings.Count(text, "GNU Hello") != 1 {
		t.Errorf("BuildText() = %q, want description rendered exactly once when long description is identical", text)
	}
}
