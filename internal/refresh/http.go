// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package refresh

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/toniewert/toniewert/internal/platform/request"
	"github.com/toniewert/toniewert/internal/platform/respond"
)

type Handler struct {
	coordinator *Coordinator
}

func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/refresh", handler.triggerRefresh)
	router.Get("/refresh-status", handler.refreshStatus)
	router.Get("/refresh-runs", handler.refreshRuns)
}

type triggerRequest struct {
	Scope      string `json:"scope"`
	Limit      int    `json:"limit"`
	Background bool   `json:"background"`
}

func (handler *Handler) triggerRefresh(writer http.ResponseWriter, request *http.Request) {
	var body triggerRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	run, err := handler.coordinator.Trigger(request.Context(), body.Scope, body.Limit, body.Background)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if body.Background {
		respond.Accepted(writer, run)
		return
	}
	respond.OK(writer, run)
}

func (handler *Handler) refreshStatus(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.coordinator.Status())
}

func (handler *Handler) refreshRuns(writer http.ResponseWriter, request *http.Request) {
	limit := requestutil.QueryInt(request, "limit", 20)

	runs, err := handler.coordinator.Runs(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.List(writer, runs, len(runs))
}
