// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

/*
Package resolver maps free-text queries onto canonical catalog entities.

The resolver is fail-safe by contract: a wrong catalog match would attach a
price estimate to the wrong figure, which is worse than returning nothing.
Ambiguity therefore degrades to needs_confirmation and weak evidence to
not_found, never to a guess.
*/
package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/agnivade/levenshtein"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/platform/apperr"
	"github.com/toniewert/toniewert/pkg/textnorm"
)

// # Result Contract

const (
	StatusResolved          = "resolved"
	StatusNeedsConfirmation = "needs_confirmation"
	StatusNotFound          = "not_found"
)

// Candidate is a single scored catalog match.
type Candidate struct {
	CatalogID string  `json:"catalog_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// Result is the outcome of one resolution attempt.
type Result struct {
	Status     string      `json:"status"`
	Candidates []Candidate `json:"candidates"`
}

// # Scoring Constants

// The gates below encode the don't-guess policy. Loosening them trades
// false negatives for false positives; the product wants the former.
const (
	fuzzyWeight   = 0.82
	overlapWeight = 0.18

	queryCoverageWeight     = 0.85
	candidateCoverageWeight = 0.15

	rejectFuzzyWithoutOverlap = 0.93
	rejectFuzzyLowOverlap     = 0.88
	lowOverlapThreshold       = 0.34

	notFoundBelow        = 0.60
	singleResolvedScore  = 0.86
	resolvedScore        = 0.92
	resolvedLead         = 0.06
	resolvedOverlapFloor = 0.60
)

// genericTokens are query tokens that carry no identifying information.
// A query consisting only of these (e.g. "tonie figur") must not match.
var genericTokens = map[string]struct{}{
	"tonie": {}, "tonies": {}, "toniebox": {},
	"figur": {}, "figuren": {},
	"hoerfigur": {}, "horfigur": {},
	"hoerspiel": {}, "horspiel": {},
	"geschichte": {}, "geschichten": {},
	"folge": {}, "edition": {},
	"der": {}, "die": {}, "das": {}, "dem": {}, "den": {}, "des": {},
	"ein": {}, "eine": {}, "einer": {},
	"und": {}, "mit": {}, "von": {}, "fur": {}, "fuer": {},
}

var catalogIDPattern = regexp.MustCompile(`^tn_?(\d{1,5})$`)

// # Search Index

// searchEntry is one normalized variant (title, alias, or "series title")
// pointing back at its catalog entity.
type searchEntry struct {
	catalogID string
	title     string
	norm      string
	tokens    map[string]struct{}
}

type index struct {
	entries []searchEntry
	byID    map[string]*catalog.Entity
}

// buildIndex expands every catalog entity into its searchable variants.
func buildIndex(entities []*catalog.Entity) *index {
	idx := &index{
		entries: make([]searchEntry, 0, len(entities)*2),
		byID:    make(map[string]*catalog.Entity, len(entities)),
	}

	for _, entity := range entities {
		idx.byID[entity.ID] = entity

		variants := make(map[string]struct{}, len(entity.Aliases)+2)
		variants[entity.Title] = struct{}{}
		for _, alias := range entity.Aliases {
			variants[alias] = struct{}{}
		}
		if entity.Series != "" {
			variants[entity.Series+" "+entity.Title] = struct{}{}
		}

		for variant := range variants {
			norm := textnorm.Fold(variant)
			if norm == "" {
				continue
			}
			idx.entries = append(idx.entries, searchEntry{
				catalogID: entity.ID,
				title:     entity.Title,
				norm:      norm,
				tokens:    informativeTokens(norm),
			})
		}
	}

	return idx
}

// # Service

type Service struct {
	catalog *catalog.Service
	logger  *slog.Logger
	index   atomic.Pointer[index]
}

func NewService(catalogService *catalog.Service, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalogService,
		logger:  logger,
	}
}

// Reload rebuilds the in-memory search index from the catalog store.
// Called at startup and after catalog changes.
func (service *Service) Reload(context context.Context) error {
	entities, err := service.catalog.ListAll(context)
	if err != nil {
		return err
	}

	idx := buildIndex(entities)
	service.index.Store(idx)

	service.logger.Info("resolver_index_loaded",
		slog.Int("entities", len(idx.byID)),
		slog.Int("variants", len(idx.entries)),
	)
	return nil
}

/*
Resolve maps a free-text query onto catalog candidates.

Resolution order:
 1. Catalog-ID fast path ("tn_042", "tn42").
 2. Exact normalized variant match.
 3. Fuzzy scoring with token-overlap gates.

Returns:
  - Result: resolved | needs_confirmation | not_found with scored candidates
  - error: only infrastructure failures; weak matches are a Result status
*/
func (service *Service) Resolve(_ context.Context, query string, limit int) (*Result, error) {
	idx := service.index.Load()
	if idx == nil {
		return nil, apperr.ServiceUnavailable("Catalog index is not loaded yet")
	}

	if limit <= 0 {
		limit = 5
	}

	normQuery := textnorm.Fold(query)
	if len(normQuery) < 2 {
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}, nil
	}

	if result := idx.resolveByCatalogID(normQuery); result != nil {
		return result, nil
	}

	if result := idx.resolveExactVariant(normQuery); result != nil {
		return result, nil
	}

	queryTokens := informativeTokens(normQuery)
	if len(queryTokens) == 0 {
		// Generic queries like "tonie" are too risky: avoid false positives.
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}, nil
	}

	return idx.resolveFuzzy(normQuery, queryTokens, limit), nil
}

// resolveByCatalogID handles direct ID lookups like "tn_042" or "TN42".
func (idx *index) resolveByCatalogID(normQuery string) *Result {
	compact := strings.ReplaceAll(normQuery, " ", "")
	match := catalogIDPattern.FindStringSubmatch(compact)
	if match == nil {
		return nil
	}

	numeric, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}

	catalogID := "tn_" + zeroPad(numeric)
	entity, found := idx.byID[catalogID]
	if !found {
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}
	}

	return &Result{
		Status: StatusResolved,
		Candidates: []Candidate{
			{CatalogID: catalogID, Title: entity.Title, Score: 1.0},
		},
	}
}

// resolveExactVariant handles queries that match a variant verbatim after
// normalization. Several entities sharing one variant force a confirmation.
func (idx *index) resolveExactVariant(normQuery string) *Result {
	unique := make(map[string]Candidate)
	order := make([]string, 0, 2)

	for i := range idx.entries {
		entry := &idx.entries[i]
		if entry.norm != normQuery {
			continue
		}
		if _, seen := unique[entry.catalogID]; !seen {
			order = append(order, entry.catalogID)
		}
		unique[entry.catalogID] = Candidate{
			CatalogID: entry.catalogID,
			Title:     entry.title,
			Score:     1.0,
		}
	}

	if len(unique) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(unique))
	for _, id := range order {
		candidates = append(candidates, unique[id])
	}

	if len(candidates) == 1 {
		return &Result{Status: StatusResolved, Candidates: candidates}
	}
	return &Result{Status: StatusNeedsConfirmation, Candidates: candidates}
}

type rankedCandidate struct {
	candidate Candidate
	overlap   float64
}

// resolveFuzzy scores every indexed variant and applies the decision gates.
func (idx *index) resolveFuzzy(normQuery string, queryTokens map[string]struct{}, limit int) *Result {
	byEntity := make(map[string]rankedCandidate)

	for i := range idx.entries {
		entry := &idx.entries[i]

		fuzzyScore := fuzzySimilarity(normQuery, entry.norm)
		overlapScore := tokenOverlapScore(queryTokens, entry.tokens)

		// Hard reject clearly unrelated fuzzy hits.
		if overlapScore <= 0.0 && fuzzyScore < rejectFuzzyWithoutOverlap {
			continue
		}
		if overlapScore < lowOverlapThreshold && fuzzyScore < rejectFuzzyLowOverlap {
			continue
		}

		combined := fuzzyScore*fuzzyWeight + overlapScore*overlapWeight
		if combined > 1.0 {
			combined = 1.0
		}

		previous, exists := byEntity[entry.catalogID]
		if !exists || combined > previous.candidate.Score {
			byEntity[entry.catalogID] = rankedCandidate{
				candidate: Candidate{
					CatalogID: entry.catalogID,
					Title:     entry.title,
					Score:     round4(combined),
				},
				overlap: overlapScore,
			}
		}
	}

	ranked := make([]rankedCandidate, 0, len(byEntity))
	for _, rc := range byEntity {
		ranked = append(ranked, rc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].candidate.Score != ranked[j].candidate.Score {
			return ranked[i].candidate.Score > ranked[j].candidate.Score
		}
		return ranked[i].candidate.CatalogID < ranked[j].candidate.CatalogID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if len(ranked) == 0 {
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}
	}

	candidates := make([]Candidate, 0, len(ranked))
	for _, rc := range ranked {
		candidates = append(candidates, rc.candidate)
	}

	top := candidates[0].Score
	second := 0.0
	if len(candidates) > 1 {
		second = candidates[1].Score
	}
	topOverlap := ranked[0].overlap

	if top < notFoundBelow {
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}
	}

	// Require overlap for confidence (prevents wrong "best effort" prices).
	if topOverlap < lowOverlapThreshold && top < rejectFuzzyLowOverlap {
		return &Result{Status: StatusNotFound, Candidates: []Candidate{}}
	}

	if len(candidates) == 1 && top >= singleResolvedScore {
		return &Result{Status: StatusResolved, Candidates: candidates[:1]}
	}

	// Strong confidence only when the best hit is high-quality and clearly ahead.
	if top >= resolvedScore && (top-second) >= resolvedLead && topOverlap >= resolvedOverlapFloor {
		return &Result{Status: StatusResolved, Candidates: candidates[:1]}
	}

	return &Result{Status: StatusNeedsConfirmation, Candidates: candidates}
}

// # Scoring Primitives

// informativeTokens returns the query tokens that identify a figure,
// dropping stoplisted generic words.
func informativeTokens(norm string) map[string]struct{} {
	tokens := textnorm.TokenSet(norm, 2)
	for token := range tokens {
		if _, generic := genericTokens[token]; generic {
			delete(tokens, token)
		}
	}
	return tokens
}

// tokenOverlapScore weights how much of the query the candidate covers.
func tokenOverlapScore(queryTokens, candidateTokens map[string]struct{}) float64 {
	if len(queryTokens) == 0 {
		return 0.0
	}

	overlap := 0
	for token := range queryTokens {
		if _, found := candidateTokens[token]; found {
			overlap++
		}
	}
	if overlap == 0 {
		return 0.0
	}

	queryCoverage := float64(overlap) / float64(len(queryTokens))
	candidateCoverage := float64(overlap) / float64(maxInt(1, len(candidateTokens)))
	return round4(queryCoverage*queryCoverageWeight + candidateCoverage*candidateCoverageWeight)
}

// fuzzySimilarity combines plain edit distance with a token-set ratio so
// that word order and partial overlap both count.
func fuzzySimilarity(a, b string) float64 {
	score := levenshteinRatio(a, b)
	if tokenScore := tokenSetRatio(a, b); tokenScore > score {
		score = tokenScore
	}
	return score
}

// levenshteinRatio normalizes edit distance into a 0..1 similarity.
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := maxInt(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}

// tokenSetRatio compares the sorted token intersections of both strings,
// making "lilli hexe" score as high as "hexe lilli".
func tokenSetRatio(a, b string) float64 {
	tokensA := textnorm.TokenSet(a, 1)
	tokensB := textnorm.TokenSet(b, 1)

	common := make([]string, 0)
	onlyA := make([]string, 0)
	onlyB := make([]string, 0)

	for token := range tokensA {
		if _, found := tokensB[token]; found {
			common = append(common, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range tokensB {
		if _, found := tokensA[token]; !found {
			onlyB = append(onlyB, token)
		}
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := levenshteinRatio(base, combinedA)
	if ratio := levenshteinRatio(base, combinedB); ratio > best {
		best = ratio
	}
	if ratio := levenshteinRatio(combinedA, combinedB); ratio > best {
		best = ratio
	}
	return best
}

// # Small Helpers

func zeroPad(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func round4(f float64) float64 {
	return float64(int(f*10000+0.5)) / 10000
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
