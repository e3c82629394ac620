package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
)

type questionService interface {
	GetOrGenerateQuestions(ctx context.Context, chapterKey string) ([]models.Question, error)
	GenerateQuestions(ctx context.Context, content, title string) ([]json.RawMessage, error)
}

type QuestionHandler struct {
	service questionService
	log     *logger.Logger
}

func NewQuestionHandler(service questionService, log *logger.Logger) *QuestionHandler {
	return &QuestionHandler{service: service, log: log}
}

// List returns the chapter's stored questions, generating and storing a set
// on first request.
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterId")

	questions, err := h.service.GetOrGenerateQuestions(r.Context(), chapterID)
	if err != nil {
		handleServiceError(w, h.log, "questions", err, "Failed to generate questions")
		return
	}

	if questions == nil {
		questions = []models.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

// Generate returns a fresh quiz for the posted content. Nothing is stored.
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	var content string
	if req.ChapterContent != nil {
		content = req.ChapterContent.Content
	}

	items, err := h.service.GenerateQuestions(r.Context(), content, req.ChapterTitle)
	if err != nil {
		handleServiceError(w, h.log, "questions-generate", err, "Failed to generate questions")
		return
	}

	if items == nil {
		items = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, items)
}
