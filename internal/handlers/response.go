package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// handleServiceError maps a service error onto a status code and logs it
// under the route name. fallback is the message used for unclassified errors.
func handleServiceError(w http.ResponseWriter, log *logger.Logger, route string, err error, fallback string) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		conflictErr   *services.ConflictError
		rateErr       *services.RateLimitError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResp(validationErr.Message))
		return
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResp(notFoundErr.Message))
		return
	}

	log.Error("request failed", "route", route, "error", err)

	switch {
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, errorResp(conflictErr.Message))
	case errors.As(err, &rateErr):
		writeJSON(w, http.StatusTooManyRequests, errorResp(rateErr.Message))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp(errorMessage(err, fallback)))
	}
}

// errorMessage returns the caller-safe message carried by a service error,
// or fallback when err carries none.
func errorMessage(err error, fallback string) string {
	var (
		configErr     *services.ConfigurationError
		tooLongErr    *services.ContentTooLongError
		coercionErr   *services.CoercionError
		generationErr *services.GenerationError
		rateErr       *services.RateLimitError
	)

	switch {
	case errors.As(err, &configErr):
		return configErr.Message
	case errors.As(err, &tooLongErr):
		return tooLongErr.Message
	case errors.As(err, &coercionErr):
		return coercionErr.Message
	case errors.As(err, &generationErr):
		return generationErr.Message
	case errors.As(err, &rateErr):
		return rateErr.Message
	default:
		return fallback
	}
}
