// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package pricing

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
	router.Get("/quality-report", handler.qualityReport)
	router.Get("/{catalog_id}", handler.getPrice)
}

func (handler *Handler) getPrice(writer http.ResponseWriter, request *http.Request) {
	catalogID := requestutil.Param(request, "catalog_id")

	condition, err := ParseCondition(requestutil.QueryString(request, "condition", ""))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	forceRefresh := requestutil.QueryBool(request, "refresh")

	result, err := handler.service.GetPrice(request.Context(), catalogID, condition, forceRefresh)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) qualityReport(writer http.ResponseWriter, request *http.Request) {
	window := requestutil.QueryInt(request, "window", 500)

	report, err := handler.service.Report(request.Context(), window)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}
