// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package resolver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/toniewert/toniewert/internal/platform/apperr"
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
	router.Post("/resolve", handler.resolve)
}

type resolveRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (handler *Handler) resolve(writer http.ResponseWriter, request *http.Request) {
	var body resolveRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if strings.TrimSpace(body.Query) == "" {
		respond.Error(writer, request, apperr.ValidationError("Query must not be empty"))
		return
	}

	limit := body.Limit
	if limit <= 0 || limit > constants.DefaultResolveLimit {
		limit = constants.DefaultResolveLimit
	}

	result, err := handler.service.Resolve(request.Context(), body.Query, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// A not_found resolution keeps the result envelope but signals 404 so
	// clients can branch on the status code alone.
	if result.Status == StatusNotFound {
		respond.JSON(writer, http.StatusNotFound, respond.SuccessEnvelope{Data: result})
		return
	}
	respond.OK(writer, result)
}
