package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Chapter struct {
	ID         uuid.UUID       `json:"id"`
	ChapterKey *string         `json:"chapter_key"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
}

// InlineChapter is chapter material sent in a request body instead of being
// looked up in the store.
type InlineChapter struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

type ChapterInfoResponse struct {
	ChapterID uuid.UUID       `json:"chapterId"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata"`
}
