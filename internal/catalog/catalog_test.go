// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package catalog_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/catalog"
	"github.com/toniewert/toniewert/internal/platform/apperr"
)

/*
TestEntity_DisplayName verifies series-prefixed display naming.
*/
func TestEntity_DisplayName(t *testing.T) {
	withSeries := &catalog.Entity{Title: "Der Piratenschatz", Series: "Paw Patrol"}
	assert.Equal(t, "Paw Patrol - Der Piratenschatz", withSeries.DisplayName())

	withoutSeries := &catalog.Entity{Title: "Der Grüffelo"}
	assert.Equal(t, "Der Grüffelo", withoutSeries.DisplayName())
}

/*
TestEntity_Rarity verifies the availability-to-rarity mapping.
*/
func TestEntity_Rarity(t *testing.T) {
	testCases := []struct {
		name         string
		availability string
		expected     string
	}{
		{"active_is_standard", catalog.AvailabilityActive, "standard"},
		{"limited_is_limited_edition", catalog.AvailabilityLimited, "limited_edition"},
		{"retired_is_retired", catalog.AvailabilityRetired, "retired"},
		{"unknown_defaults_to_standard", "weird", "standard"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			entity := &catalog.Entity{AvailabilityState: testCase.availability}
			assert.Equal(t, testCase.expected, entity.Rarity())
		})
	}
}

type stubRepository struct {
	searched string
}

func (repo *stubRepository) ListAll(_ context.Context) ([]*catalog.Entity, error) { return nil, nil }

func (repo *stubRepository) GetByID(_ context.Context, _ string) (*catalog.Entity, error) {
	return nil, nil
}

func (repo *stubRepository) Search(_ context.Context, query string, _ int) ([]*catalog.Entity, error) {
	repo.searched = query
	return nil, nil
}

func (repo *stubRepository) AddAlias(_ context.Context, _, _ string) error { return nil }

/*
TestService_SearchRejectsOversizedQuery caps lookup queries before they
reach the store.
*/
func TestService_SearchRejectsOversizedQuery(t *testing.T) {
	repo := &stubRepository{}
	service := catalog.NewService(repo, slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))

	_, err := service.Search(context.Background(), strings.Repeat("a", 200), 10)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	assert.Empty(t, repo.searched, "oversized query must not hit the store")
}
