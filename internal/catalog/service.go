// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/toniewert/toniewert/internal/platform/apperr"
	"github.com/toniewert/toniewert/internal/platform/validate"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetEntity looks up a single catalog figure by its canonical ID.
func (service *Service) GetEntity(context context.Context, id string) (*Entity, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.ValidationError("Catalog ID must not be empty")
	}
	return service.repo.GetByID(context, id)
}

// Search returns catalog entities whose title, series, or aliases contain
// the given text. It is a lookup surface, not the fail-safe resolver.
func (service *Service) Search(context context.Context, query string, limit int) ([]*Entity, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return service.repo.ListAll(context)
	}

	v := &validate.Validator{}
	if err := v.MaxLen("query", query, 120).Err(); err != nil {
		return nil, err
	}
	return service.repo.Search(context, query, limit)
}

// ListAll returns the full catalog, used to build in-memory indexes.
func (service *Service) ListAll(context context.Context) ([]*Entity, error) {
	return service.repo.ListAll(context)
}
