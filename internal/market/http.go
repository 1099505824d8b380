// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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
	router.Get("/cache-status", handler.cacheStatus)
	router.Get("/coverage-status", handler.coverageStatus)
}

func (handler *Handler) cacheStatus(writer http.ResponseWriter, request *http.Request) {
	catalogID := requestutil.QueryString(request, "catalog_id", "")

	status, err := handler.service.CacheStatusForEntity(request.Context(), catalogID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, status)
}

func (handler *Handler) coverageStatus(writer http.ResponseWriter, request *http.Request) {
	coverage, err := handler.service.Coverage(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, coverage)
}
