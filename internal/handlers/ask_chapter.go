package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/services"
)

type chapterService interface {
	AskChapter(ctx context.Context, req models.AskChapterRequest) (*models.AskChapterResponse, error)
	GetChapter(ctx context.Context, chapterID string) (*models.Chapter, error)
}

type AskChapterHandler struct {
	service chapterService
	log     *logger.Logger
}

func NewAskChapterHandler(service chapterService, log *logger.Logger) *AskChapterHandler {
	return &AskChapterHandler{service: service, log: log}
}

// Ask answers a question restricted to one chapter.
func (h *AskChapterHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskChapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	resp, err := h.service.AskChapter(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, "ask-chapter", err, "Failed to process your question. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a chapter's stored fields, keyed by its native id.
func (h *AskChapterHandler) Get(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterId")

	chapter, err := h.service.GetChapter(r.Context(), chapterID)
	if err != nil {
		var notFoundErr *services.NotFoundError
		if errors.As(err, &notFoundErr) {
			writeJSON(w, http.StatusNotFound, errorResp(notFoundErr.Message))
			return
		}
		h.log.Error("request failed", "route", "get-chapter", "chapterId", chapterID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to fetch chapter information"))
		return
	}

	writeJSON(w, http.StatusOK, models.ChapterInfoResponse{
		ChapterID: chapter.ID,
		Title:     chapter.Title,
		Content:   chapter.Content,
		Metadata:  chapter.Metadata,
	})
}
