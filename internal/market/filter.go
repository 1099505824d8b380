// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/toniewert/toniewert/pkg/textnorm"
)

// # Pollution Keyword Sets

// Keep these lists explicit and reviewable: they are the main defense
// against classifieds noise leaking into price estimates.

var bundleKeywords = []string{
	"bundle", "set", "paket", "konvolut", "sammlung", "lot", "mehrere",
}

var excludeKeywords = []string{
	"defekt", "kaputt", "ersatzteil", "reparatur",
	"fake", "fälschung", "faelschung",
	"leer", "hülle", "huelle",
	"hörspiel-cd", "hoerspiel-cd", "hörspiel cd", "hoerspiel cd",
	"kassette", "dvd", "blu-ray",
	"buch", "hardcover", "paperback", "taschenbuch", "comic",
	"hoerbuch", "hörbuch",
	"cd", "audio cd", "musik cd",
	"film", "roman", "mp3", "download",
}

var accessoryKeywords = []string{
	"toniebox", "starterset", "ladestation", "tasche", "transportbox",
	"regal", "wandhalter", "aufbewahrung",
	"kopfhörer", "kopfhoerer", "akku", "netzteil",
}

var contextKeywords = []string{
	"tonie", "tonies", "hoerfigur", "hörfigur", "horfigur",
}

// offerMediaNoiseKeywords are high-signal non-figure media terms that
// frequently pollute classifieds query results.
var offerMediaNoiseKeywords = []string{
	"cd", "audio cd", "hoerspiel cd", "hörspiel cd",
	"hoerbuch", "hörbuch",
	"buch", "hardcover", "paperback", "taschenbuch", "comic",
	"dvd", "blu ray", "blu-ray",
	"kassette", "vinyl", "schallplatte", "ebook",
}

// genericMatchTokens are tokens too common to signal relevance.
var genericMatchTokens = map[string]struct{}{
	"tonie": {}, "tonies": {}, "toniebox": {},
	"figur": {}, "figuren": {},
	"hoerfigur": {}, "horfigur": {},
	"hoerspiel": {}, "horspiel": {},
	"auswahl": {}, "neu": {}, "gebraucht": {}, "set": {},
	"original": {}, "echt": {},
	"der": {}, "die": {}, "das": {}, "und": {}, "mit": {}, "von": {},
}

// multiItemPattern catches quantity phrasings like "2x", "3 stück",
// "10er". It runs on folded text, so the diacritic-free "stuck" is the
// form that actually occurs.
var multiItemPattern = regexp.MustCompile(`(?:^|[^a-z0-9])(?:[2-9]|[1-9]\d)\s*(?:x|er|stk|stuck|stueck|tonies?)(?:$|[^a-z0-9])`)

// # Title Gates

// IsValidListingTitle applies the structural pollution gates to a title.
// Marketplace searches for sold figures also surface boxes, chargers, CDs,
// and bundles; all of those must never enter the sample.
func IsValidListingTitle(title string, requireContext bool) bool {
	folded := foldLower(title)

	for _, keyword := range excludeKeywords {
		if containsPhrase(folded, keyword) {
			return false
		}
	}
	for _, keyword := range accessoryKeywords {
		if containsPhrase(folded, keyword) {
			return false
		}
	}

	// Enforce figure context to avoid generic media listings.
	if requireContext {
		hasContext := false
		for _, keyword := range contextKeywords {
			if containsPhrase(folded, keyword) {
				hasContext = true
				break
			}
		}
		if !hasContext {
			return false
		}
	}

	for _, keyword := range bundleKeywords {
		if containsPhrase(folded, keyword) {
			return false
		}
	}

	if multiItemPattern.MatchString(folded) {
		return false
	}

	return true
}

// IsRelevantToQuery checks token overlap between a listing title and the
// search query, with thresholds that scale with query size.
func IsRelevantToQuery(title, query string) bool {
	queryTokens := tokenizeForMatch(query)
	if len(queryTokens) == 0 {
		return false
	}

	titleTokens := tokenizeForMatch(title)
	overlap := intersectionSize(queryTokens, titleTokens)

	switch {
	case len(queryTokens) <= 2:
		return overlap >= 1
	case len(queryTokens) <= 4:
		return overlap >= 2
	default:
		return overlap >= 3
	}
}

/*
IsRelevantOfferTitle decides whether a classifieds offer title genuinely
describes the target figure.

Gate order:
 1. Figure context terms required (configurable per source).
 2. Media-noise keywords rejected.
 3. Per-target token overlap thresholds, then a fuzzy fallback that
    tolerates punctuation and word-order variants.

A "specific token" hit (a token unique to this figure, not its series) is
additionally required whenever the target has any.
*/
func IsRelevantOfferTitle(offerTitle string, target Target, requireContext bool) bool {
	folded := foldLower(offerTitle)
	if strings.TrimSpace(folded) == "" {
		return false
	}

	if requireContext {
		hasContext := false
		for _, term := range contextKeywords {
			if containsPhrase(folded, term) {
				hasContext = true
				break
			}
		}
		if !hasContext {
			return false
		}
	}

	for _, keyword := range offerMediaNoiseKeywords {
		if containsPhrase(folded, keyword) {
			return false
		}
	}

	offerTokens := tokenizeForMatch(folded)
	specificTokens := specificTokensForTarget(target)
	specificHit := len(specificTokens) == 0 || intersectionSize(offerTokens, specificTokens) > 0

	targets := make([]string, 0, len(target.Aliases)+3)
	targets = append(targets, target.Title)
	if target.Series != "" {
		targets = append(targets, target.Series, target.Series+" "+target.Title)
	}
	targets = append(targets, target.Aliases...)

	for _, candidate := range targets {
		targetFolded := foldLower(candidate)
		if strings.TrimSpace(targetFolded) == "" {
			continue
		}

		if strings.Contains(folded, targetFolded) && specificHit {
			return true
		}

		targetTokens := tokenizeForMatch(candidate)
		overlap := intersectionSize(offerTokens, targetTokens)
		overlapRatio := 0.0
		if len(targetTokens) > 0 {
			overlapRatio = float64(overlap) / float64(len(targetTokens))
		}

		overlapMatch := false
		switch {
		case len(targetTokens) <= 2 && overlap >= 1:
			overlapMatch = true
		case len(targetTokens) <= 4 && overlap >= 2:
			overlapMatch = true
		case len(targetTokens) >= 5 && (overlap >= 3 || overlapRatio >= 0.55):
			overlapMatch = true
		}

		if overlapMatch && specificHit {
			return true
		}

		if fuzzyRatio(folded, targetFolded) >= 0.78 && overlap >= 1 && specificHit {
			return true
		}
	}

	return false
}

// specificTokensForTarget collects tokens that identify this figure and
// not just its franchise: title and alias tokens minus series tokens.
func specificTokensForTarget(target Target) map[string]struct{} {
	seriesTokens := tokenizeForMatch(target.Series)

	collect := func(value string, into map[string]struct{}) {
		folded := foldLower(value)
		if strings.TrimSpace(folded) == "" {
			return
		}

		chunks := []string{folded}
		if parts := dashSplit.Split(folded, 2); len(parts) == 2 {
			if right := strings.TrimSpace(parts[1]); right != "" {
				chunks = append(chunks, right)
			}
		}

		for _, chunk := range chunks {
			for token := range tokenizeForMatch(chunk) {
				if _, inSeries := seriesTokens[token]; !inSeries {
					into[token] = struct{}{}
				}
			}
		}
	}

	out := make(map[string]struct{})
	collect(target.Title, out)
	for _, alias := range target.Aliases {
		collect(alias, out)
	}
	return out
}

// # Deduplication & Windows

// Dedupe removes repeated observations by canonical URL and by the
// (normalized title, cent price) pair, preserving input order.
func Dedupe(listings []Listing) []Listing {
	type titlePriceKey struct {
		title string
		cents int64
	}

	seenURL := make(map[string]struct{})
	seenTitlePrice := make(map[titlePriceKey]struct{})
	out := make([]Listing, 0, len(listings))

	for _, listing := range listings {
		urlKey := CanonicalizeListingURL(listing.URL)
		if urlKey == "" {
			continue
		}
		if _, dup := seenURL[urlKey]; dup {
			continue
		}

		key := titlePriceKey{
			title: strings.TrimSpace(textnorm.Fold(listing.Title)),
			cents: int64(math.Round(listing.PriceEUR * 100)),
		}
		if _, dup := seenTitlePrice[key]; dup {
			continue
		}

		seenURL[urlKey] = struct{}{}
		seenTitlePrice[key] = struct{}{}
		listing.URL = urlKey
		out = append(out, listing)
	}

	return out
}

// ApplyTimeWindow keeps listings sold within the window. Rows without a
// sold timestamp pass through; their freshness is governed per source.
func ApplyTimeWindow(listings []Listing, days int, now time.Time) []Listing {
	cutoff := now.AddDate(0, 0, -days)
	out := make([]Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.SoldAt == nil || !listing.SoldAt.Before(cutoff) {
			out = append(out, listing)
		}
	}
	return out
}

// # Outlier Trimming

// TrimOptions parameterize the IQR outlier trim.
type TrimOptions struct {
	MinEUR     float64
	MaxEUR     float64
	IQRFactor  float64
	MinSamples int
}

/*
TrimOutliersIQR bounds prices to the plausible band and trims IQR outliers.

Small samples (n < 8) are only bounded, never trimmed: quartiles are too
unstable. The trim also refuses to discard more than half the sample (or
drop below MinSamples) and falls back to the untrimmed data instead. The
operation is idempotent: trimming an already-trimmed sample is a no-op.
*/
func TrimOutliersIQR(prices []float64, opts TrimOptions) []float64 {
	bounded := make([]float64, 0, len(prices))
	for _, price := range prices {
		if math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		if price < opts.MinEUR || price > opts.MaxEUR {
			continue
		}
		bounded = append(bounded, price)
	}
	sort.Float64s(bounded)

	if len(bounded) < 8 {
		return bounded
	}

	q1 := quantileSorted(bounded, 0.25)
	q3 := quantileSorted(bounded, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return bounded
	}

	low := math.Max(opts.MinEUR, q1-opts.IQRFactor*iqr)
	high := math.Min(opts.MaxEUR, q3+opts.IQRFactor*iqr)

	filtered := make([]float64, 0, len(bounded))
	for _, price := range bounded {
		if price >= low && price <= high {
			filtered = append(filtered, price)
		}
	}

	minKeep := opts.MinSamples
	if half := int(math.Ceil(float64(len(bounded)) * 0.5)); half > minKeep {
		minKeep = half
	}
	if len(filtered) < minKeep {
		return bounded
	}
	return filtered
}

// quantileSorted computes a linear-interpolated quantile on sorted values.
func quantileSorted(sortedValues []float64, q float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}

	pos := float64(len(sortedValues)-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sortedValues[lo]
	}
	w := pos - float64(lo)
	return sortedValues[lo]*(1-w) + sortedValues[hi]*w
}

// # Shared Helpers

// containsPhrase reports whether the folded text contains the phrase on
// token boundaries, so "cd" does not match inside "mcdonalds".
func containsPhrase(foldedText, phrase string) bool {
	needle := strings.TrimSpace(foldLower(phrase))
	if needle == "" {
		return false
	}

	start := 0
	for {
		idx := strings.Index(foldedText[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start

		beforeOK := idx == 0 || !isWordByte(foldedText[idx-1])
		end := idx + len(needle)
		afterOK := end >= len(foldedText) || !isWordByte(foldedText[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	overlap := 0
	for token := range a {
		if _, found := b[token]; found {
			overlap++
		}
	}
	return overlap
}

// fuzzyRatio is a normalized edit-distance similarity in 0..1.
func fuzzyRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
