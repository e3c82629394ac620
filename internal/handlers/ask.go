package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/services"
)

type askService interface {
	Ask(ctx context.Context, req models.AskRequest) (string, error)
}

type AskHandler struct {
	service askService
	log     *logger.Logger
}

func NewAskHandler(service askService, log *logger.Logger) *AskHandler {
	return &AskHandler{service: service, log: log}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	answer, err := h.service.Ask(r.Context(), req)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message))
			return
		}
		// Every completion failure on this route is a 500, rate limits included.
		h.log.Error("request failed", "route", "ask", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp(errorMessage(err, "Failed to generate response. Please try again.")))
		return
	}

	writeJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}
