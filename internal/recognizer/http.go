// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package recognizer

import (
	"errors"
	"io"
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
	router.Post("/recognize", handler.recognize)
	router.Get("/recognize-status", handler.recognizeStatus)
}

func (handler *Handler) recognizeStatus(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.Status())
}

func (handler *Handler) recognize(writer http.ResponseWriter, request *http.Request) {
	topK := requestutil.QueryInt(request, "top_k", 3)
	if topK < 1 || topK > constants.MaxRecognitionTopK {
		respond.Error(writer, request, apperr.ValidationError("top_k must be between 1 and 5"))
		return
	}

	// Reject oversized uploads before buffering them.
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxImageUploadBytes)

	file, header, err := request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, &apperr.AppError{
				Code:       "PAYLOAD_TOO_LARGE",
				Message:    "Image too large (max 10MB)",
				HTTPStatus: http.StatusRequestEntityTooLarge,
			})
			return
		}
		respond.Error(writer, request, apperr.ValidationError("Image file required"))
		return
	}
	defer func() { _ = file.Close() }()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		respond.Error(writer, request, apperr.ValidationError("Image file required"))
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Image could not be read"))
		return
	}
	if len(payload) == 0 {
		respond.Error(writer, request, apperr.ValidationError("Empty image payload"))
		return
	}

	result, err := handler.service.Recognize(request.Context(), payload, topK)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}
