// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package resolver_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/resolver"
)

// fakeCatalogRepository serves a fixed entity list without a database.
type fakeCatalogRepository struct {
	entities []*catalog.Entity
}

func (repo *fakeCatalogRepository) ListAll(_ context.Context) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) GetByID(_ context.Context, id string) (*catalog.Entity, error) {
	for _, entity := range repo.entities {
		if entity.ID == id {
			return entity, nil
		}
	}
	return nil, nil
}

func (repo *fakeCatalogRepository) Search(_ context.Context, _ string, _ int) ([]*catalog.Entity, error) {
	return repo.entities, nil
}

func (repo *fakeCatalogRepository) AddAlias(_ context.Context, _ string, _ string) error {
	return nil
}

func newTestService(t *testing.T, entities []*catalog.Entity) *resolver.Service {
	t.Helper()

	logger := slog.Default()
	catalogService := catalog.NewService(&fakeCatalogRepository{entities: entities}, logger)
	service := resolver.NewService(catalogService, logger)
	require.NoError(t, service.Reload(context.Background()))
	return service
}

func testEntities() []*catalog.Entity {
	return []*catalog.Entity{
		{
			ID:      "tn_004",
			Title:   "Lilli und der Zauberspruch",
			Series:  "Hexe Lilli",
			Aliases: []string{"Hexe Lilli"},
		},
		{
			ID:      "tn_002",
			Title:   "Bibi Blocksberg - Hexen gibt es doch",
			Aliases: []string{"Bibi"},
		},
		{
			ID:     "tn_005",
			Title:  "Der Grüffelo",
			Series: "",
			Aliases: []string{
				"Grueffelo",
				"Gruffalo",
			},
		},
	}
}

/*
TestResolve_CatalogIDFastPath verifies direct ID lookups in all common spellings.
*/
func TestResolve_CatalogIDFastPath(t *testing.T) {
	service := newTestService(t, testEntities())

	for _, query := range []string{"tn_004", "tn004", "TN_4", "tn 4"} {
		result, err := service.Resolve(context.Background(), query, 5)
		require.NoError(t, err, query)
		assert.Equal(t, resolver.StatusResolved, result.Status, query)
		require.Len(t, result.Candidates, 1, query)
		assert.Equal(t, "tn_004", result.Candidates[0].CatalogID, query)
		assert.Equal(t, 1.0, result.Candidates[0].Score, query)
	}
}

/*
TestResolve_CatalogIDUnknown verifies that a well-formed but unknown ID is
not_found rather than a fuzzy guess.
*/
func TestResolve_CatalogIDUnknown(t *testing.T) {
	service := newTestService(t, testEntities())

	result, err := service.Resolve(context.Background(), "tn_999", 5)
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusNotFound, result.Status)
	assert.Empty(t, result.Candidates)
}

/*
TestResolve_ExactVariant verifies exact alias matching after normalization.
*/
func TestResolve_ExactVariant(t *testing.T) {
	service := newTestService(t, testEntities())

	result, err := service.Resolve(context.Background(), "  HEXE   LILLI ", 5)
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusResolved, result.Status)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "tn_004", result.Candidates[0].CatalogID)
}

/*
TestResolve_SingleInformativeToken verifies the fail-safe scenario: "hexe"
against a catalog with exactly one Hexe entity resolves to it.
*/
func TestResolve_SingleInformativeToken(t *testing.T) {
	service := newTestService(t, testEntities())

	result, err := service.Resolve(context.Background(), "hexe", 5)
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusResolved, result.Status)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "tn_004", result.Candidates[0].CatalogID)
}

/*
TestResolve_GenericQueryIsNotFound verifies that queries made entirely of
generic tokens never match anything.
*/
func TestResolve_GenericQueryIsNotFound(t *testing.T) {
	service := newTestService(t, testEntities())

	for _, query := range []string{"tonie", "tonie figur", "die geschichte", "hoerspiel edition"} {
		result, err := service.Resolve(context.Background(), query, 5)
		require.NoError(t, err)
		assert.Equal(t, resolver.StatusNotFound, result.Status, query)
		assert.Empty(t, result.Candidates, query)
	}
}

/*
TestResolve_UmlautAndMisspelling verifies accent folding and alias coverage.
*/
func TestResolve_UmlautAndMisspelling(t *testing.T) {
	service := newTestService(t, testEntities())

	for _, query := range []string{"grüffelo", "gruffalo", "der grueffelo"} {
		result, err := service.Resolve(context.Background(), query, 5)
		require.NoError(t, err)
		assert.Equal(t, resolver.StatusResolved, result.Status, query)
		require.NotEmpty(t, result.Candidates, query)
		assert.Equal(t, "tn_005", result.Candidates[0].CatalogID, query)
	}
}

/*
TestResolve_UnrelatedQueryIsNotFound verifies the don't-guess policy for
free text that matches nothing in the catalog.
*/
func TestResolve_UnrelatedQueryIsNotFound(t *testing.T) {
	service := newTestService(t, testEntities())

	result, err := service.Resolve(context.Background(), "playmobil feuerwehrauto rot", 5)
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusNotFound, result.Status)
	assert.Empty(t, result.Candidates)
}

/*
TestResolve_SharedVariantNeedsConfirmation verifies that one normal form
owned by several entities never auto-resolves.
*/
func TestResolve_SharedVariantNeedsConfirmation(t *testing.T) {
	entities := []*catalog.Entity{
		{ID: "tn_101", Title: "Ritter Rost", Aliases: []string{"Ritter"}},
		{ID: "tn_102", Title: "Kreativ-Tonie Ritter", Aliases: []string{"Ritter"}},
	}
	service := newTestService(t, entities)

	result, err := service.Resolve(context.Background(), "ritter", 5)
	require.NoError(t, err)
	assert.Equal(t, resolver.StatusNeedsConfirmation, result.Status)
	assert.Len(t, result.Candidates, 2)
}

/*
TestResolve_ShortQueryIsNotFound verifies the minimum query length guard.
*/
func TestResolve_ShortQueryIsNotFound(t *testing.T) {
	service := newTestService(t, testEntities())

	for _, query := range []string{"", " ", "a", "!?"} {
		result, err := service.Resolve(context.Background(), query, 5)
		require.NoError(t, err)
		assert.Equal(t, resolver.StatusNotFound, result.Status, "%q", query)
	}
}
