// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// # Text Folding

var (
	priceToken     = regexp.MustCompile(`\d[\d. ]*(?:,\d{1,2})?`)
	itemPathID     = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d{8,20})`)
	dashSplit      = regexp.MustCompile(`\s+[–—-]\s+`)
	matchToken     = regexp.MustCompile(`[a-z0-9]+`)
	queryNoise     = regexp.MustCompile(`[\[\](){},;:!?"']`)
	longDashes     = regexp.MustCompile(`[–—]`)
	collapseSpaces = regexp.MustCompile(`\s+`)
)

// foldLower strips accents and lowercases while keeping punctuation, so
// substring checks like "blu-ray" still work on the folded text.
func foldLower(s string) string {
	t := transform.Chain(norm.NFKD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	folded, _, _ := transform.String(t, s)
	return strings.ToLower(folded)
}

// # Price Parsing

/*
ParseEuro extracts a single EUR amount from marketplace price text.

German formats ("1.234,56 €", "12,50 EUR") are handled; price ranges
("8,00 bis 12,00") are rejected because a range is not one sold price.
Values outside [minEUR, rawMaxEUR] are rejected as scrape noise.
*/
func ParseEuro(raw string, minEUR, rawMaxEUR float64) (float64, bool) {
	if raw == "" {
		return 0, false
	}

	text := strings.ReplaceAll(raw, " ", " ")
	text = strings.ReplaceAll(text, "EUR", "")
	text = strings.ReplaceAll(text, "€", "")
	text = strings.TrimSpace(text)

	lowered := strings.ToLower(text)
	if strings.Contains(lowered, " bis ") || strings.Contains(lowered, " to ") {
		return 0, false
	}

	token := priceToken.FindString(text)
	if token == "" {
		return 0, false
	}

	token = strings.ReplaceAll(token, " ", "")
	token = strings.ReplaceAll(token, ".", "")
	token = strings.ReplaceAll(token, ",", ".")

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}

	if value < minEUR || value > rawMaxEUR {
		return 0, false
	}
	return value, true
}

// # URL Canonicalization

/*
CanonicalizeListingURL produces a stable deduplication key for a listing URL.

Item URLs are normalized to the bare "/itm/<id>" shape so the same listing
seen with different tracking parameters dedupes to one observation. The
operation is idempotent: canonicalizing a canonical URL is a no-op.
*/
func CanonicalizeListingURL(rawURL string) string {
	value := html.UnescapeString(strings.TrimSpace(rawURL))
	if value == "" {
		return ""
	}

	if strings.HasPrefix(value, "//") {
		value = "https:" + value
	} else if strings.HasPrefix(value, "/") {
		value = "https://www.ebay.de" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return ""
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := parsed.Host
	if host == "" {
		host = "www.ebay.de"
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}

	if match := itemPathID.FindStringSubmatch(path); match != nil {
		path = "/itm/" + match[1]
	}

	canonical := url.URL{Scheme: scheme, Host: host, Path: path}
	return canonical.String()
}

// # Match Tokenization

// tokenizeForMatch extracts informative tokens (length >= 3, stoplist
// filtered) used by the relevance gates.
func tokenizeForMatch(text string) map[string]struct{} {
	folded := foldLower(text)
	tokens := make(map[string]struct{})
	for _, token := range matchToken.FindAllString(folded, -1) {
		if len(token) < 3 {
			continue
		}
		if _, generic := genericMatchTokens[token]; generic {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

// normalizeSearchQuery cleans a query variant for marketplace search URLs.
func normalizeSearchQuery(value string) string {
	cleaned := norm.NFKC.String(value)
	cleaned = strings.ReplaceAll(cleaned, "&", " und ")
	cleaned = longDashes.ReplaceAllString(cleaned, " ")
	cleaned = queryNoise.ReplaceAllString(cleaned, " ")
	cleaned = collapseSpaces.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
