// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import "strings"

const maxSearchQueries = 8

/*
BuildSearchQueries derives marketplace search strings for a catalog entity.

Base phrases are tried in order of specificity: the full title, the part
after a dash separator (usually the episode name), the dash parts joined
with a space, the series, then each alias. Every base without an explicit
figure context token additionally gets a "<base> Tonie" variant, emitted
first, because marketplace search otherwise floods the results with CDs
and books of the same franchise.
*/
func BuildSearchQueries(target Target) []string {
	bases := make([]string, 0, len(target.Aliases)+3)

	title := normalizeSearchQuery(target.Title)
	if title != "" {
		bases = append(bases, title)

		if parts := dashSplit.Split(title, 2); len(parts) == 2 {
			left := strings.TrimSpace(parts[0])
			right := strings.TrimSpace(parts[1])
			if right != "" {
				bases = append(bases, right)
			}
			if left != "" && right != "" {
				bases = append(bases, left+" "+right)
			}
		}
	}

	if series := normalizeSearchQuery(target.Series); series != "" {
		bases = append(bases, series)
	}
	for _, alias := range target.Aliases {
		if normalized := normalizeSearchQuery(alias); normalized != "" {
			bases = append(bases, normalized)
		}
	}

	seen := make(map[string]struct{}, maxSearchQueries)
	queries := make([]string, 0, maxSearchQueries)
	add := func(query string) {
		if len(queries) >= maxSearchQueries {
			return
		}
		key := strings.ToLower(query)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		queries = append(queries, query)
	}

	for _, base := range bases {
		if len(queries) >= maxSearchQueries {
			break
		}
		if !hasTonieContext(base) {
			add(base + " Tonie")
		}
		add(base)
	}

	return queries
}

func hasTonieContext(query string) bool {
	folded := foldLower(query)
	for _, term := range contextKeywords {
		if containsPhrase(folded, term) {
			return true
		}
	}
	return false
}
