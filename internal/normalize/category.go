// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import "strings"

// explicitCategoryMap maps the evaluator's own meta.category values to the
// catalog's normalized bucket names, e.g. "applications.editors" -> "editors".
// Non-exhaustive by design (spec.md §4.3); unmapped explicit categories pass
// through as their last dotted segment.
var explicitCategoryMap = map[string]string{
	"applications.editors":        "editors",
	"applications.version-management": "development",
	"development.python-modules":  "python",
	"development.tools":           "development",
	"development.compilers":       "compilers",
	"development.interpreters":    "interpreters",
	"development.libraries":       "libraries",
	"applications.networking":     "networking",
	"applications.graphics":       "graphics",
	"applications.office":         "office",
	"applications.science":        "science",
	"applications.window-managers": "system",
	"servers":                     "servers",
	"tools.security":               "security",
	"tools.backup":                 "backup",
	"tools.filesystems":            "filesystems",
}

// attrSubstringRules classifies by attribute-path substring when the
// evaluator supplied no explicit category. Order matters: the first match
// wins, so more specific buckets are listed before generic catch-alls.
// Supplemented from original_source/ to cover the ~30 buckets spec.md §4.3
// names explicitly.
var attrSubstringRules = []struct {
	substr   string
	category string
}{
	{"python3", "python"},
	{"nodePackages", "javascript"},
	{"haskellPackages", "haskell"},
	{"rustPackages", "rust"},
	{"perlPackages", "perl"},
	{"luaPackages", "lua"},
	{"ocamlPackages", "ocaml"},
	{"gitAndTools", "development"},
	{"editors", "editors"},
	{"browsers", "browsers"},
	{"games", "games"},
	{"fonts", "fonts"},
	{"themes", "themes"},
	{"gnome", "desktop"},
	{"kde", "desktop"},
	{"xfce", "desktop"},
	{"emulators", "emulators"},
	{"virtualization", "virtualization"},
	{"networking", "networking"},
	{"servers", "servers"},
	{"security", "security"},
	{"backup", "backup"},
	{"filesystems", "filesystems"},
	{"compilers", "compilers"},
	{"interpreters", "interpreters"},
	{"libraries", "libraries"},
	{"graphics", "graphics"},
	{"audio", "audio"},
	{"video", "multimedia"},
	{"multimedia", "multimedia"},
	{"misc", "misc"},
	{"office", "office"},
	{"science", "science"},
	{"mail", "mail"},
	{"chat", "chat"},
	{"documentation", "documentation"},
	{"tools", "tools"},
	{"development", "development"},
}

// Category classifies a package into one of ~30 buckets, preferring an
// explicit meta.category over attribute-path substring heuristics, and
// defaulting to "misc" (spec.md §4.3).
func Category(explicit string, attrPath []string) string {
	if explicit != "" {
		if mapped, ok := explicitCategoryMap[explicit]; ok {
			return mapped
		}
		parts := strings.Split(explicit, ".")
		return parts[len(parts)-1]
	}
	joined := strings.ToLower(strings.Join(attrPath, "."))
	for _, rule := range attrSubstringRules {
		if strings.Contains(joined, strings.ToLower(rule.substr)) {
			return rule.category
		}
	}
	return "misc"
}
