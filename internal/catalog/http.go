// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toniewert/toniewert/internal/platform/constants"
	requestutil "github.com/toniewert/toniewert/internal/platform/request"
	"github.com/toniewert/toniewert/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listEntities)
	router.Get("/{id}", handler.getEntity)
}

// entityView augments the raw entity with its derived rarity label.
type entityView struct {
	*Entity
	Rarity string `json:"rarity"`
}

func (handler *Handler) listEntities(writer http.ResponseWriter, request *http.Request) {
	search := requestutil.QueryString(request, "query", "")
	limit := requestutil.QueryInt(request, "limit", constants.DefaultCatalogSearchLimit)

	entities, err := handler.service.Search(request.Context(), search, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views := make([]entityView, 0, len(entities))
	for _, entity := range entities {
		views = append(views, entityView{Entity: entity, Rarity: entity.Rarity()})
	}
	respond.List(writer, views, len(views))
}

func (handler *Handler) getEntity(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")

	entity, err := handler.service.GetEntity(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entityView{Entity: entity, Rarity: entity.Rarity()})
}
