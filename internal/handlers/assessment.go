package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
)

type assessmentService interface {
	GenerateAssessment(ctx context.Context, req models.AssessmentRequest) (*models.AssessmentResponse, error)
}

type AssessmentHandler struct {
	service assessmentService
	log     *logger.Logger
}

func NewAssessmentHandler(service assessmentService, log *logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{service: service, log: log}
}

func (h *AssessmentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.AssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	resp, err := h.service.GenerateAssessment(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, "assessment", err, "Failed to generate assessment")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
