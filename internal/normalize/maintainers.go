// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

type rawMaintainer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	GitHub   string `json:"github"`
	GitHubID int64  `json:"githubId"`
}

func (r rawMaintainer) empty() bool {
	return r.Name == "" && r.Email == "" && r.GitHub == ""
}

// DecodeMaintainers decodes the polymorphic meta.maintainers field: mapping
// entries survive iff at least one of name/email/github is nonempty, scalar
// entries become {name: str(v)}. Truncated to the first 10 (spec.md §4.3).
func DecodeMaintainers(raw json.RawMessage) []catalog.Maintainer {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	elems = truncateRaw(elems, maxMaintainers)
	out := make([]catalog.Maintainer, 0, len(elems))
	for _, elem := range elems {
		var m rawMaintainer
		if err := json.Unmarshal(elem, &m); err == nil && !m.empty() {
			out = append(out, catalog.Maintainer{
				Name:     sanitize(m.Name, maxShortFieldLen),
				Email:    sanitize(m.Email, maxShortFieldLen),
				GitHub:   sanitize(m.GitHub, maxShortFieldLen),
				GitHubID: m.GitHubID,
			})
			continue
		}
		var scalar any
		if err := json.Unmarshal(elem, &scalar); err == nil && scalar != nil {
			if _, isMapping := scalar.(map[string]any); isMapping {
				continue
			}
			if s := fmt.Sprintf("%v", scalar); s != "" {
				out = append(out, catalog.Maintainer{Name: sanitize(s, maxShortFieldLen)})
			}
		}
	}
	return out
}

func truncateRaw(s []json.RawMessage, n int) []json.RawMessage {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
