// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

// Package textnorm folds arbitrary Unicode strings into the ASCII normal
// form shared by the resolver and the listing filters.
//
// # Usage
//
// Catalog titles, aliases, and marketplace listing titles are all compared
// in this normal form, so a query like "Pippi Langstrumpf" matches
// "PIPPI  LANGSTRUMPF" and "Pippi Långstrumpf" alike.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches any run of characters outside [a-z0-9].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// multiSpace collapses consecutive whitespace into one space.
	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// Fold converts an arbitrary Unicode string into the shared normal form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFKD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents, umlaut dots).
// 3. Converts to lowercase.
// 4. Expands "&" to " und " (German marketplace titles).
// 5. Replaces non-alphanumeric runs with single spaces and trims.
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, "&", " und ")
	result = nonAlphanumeric.ReplaceAllString(result, " ")
	result = multiSpace.ReplaceAllString(result, " ")

	return strings.TrimSpace(result)
}

// Tokens splits an already-folded string into tokens of at least minLen runes.
func Tokens(folded string, minLen int) []string {
	fields := strings.Fields(folded)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minLen {
			out = append(out, f)
		}
	}
	return out
}

// TokenSet returns the tokens of a folded string as a set.
func TokenSet(folded string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokens(folded, minLen) {
		set[t] = struct{}{}
	}
	return set
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
