package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Question is a persisted quiz pair. ChapterRef points at the chapter row,
// ChapterKey keeps the identifier the caller asked with.
type Question struct {
	ID         uuid.UUID `json:"id"`
	ChapterRef uuid.UUID `json:"chapter"`
	ChapterKey string    `json:"chapterId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuizItem is a generated question/answer pair before it is stored. Decoding
// accepts any JSON value for either field: non-string values are kept as
// their JSON text, so an answer of 1945 becomes "1945".
type QuizItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (q *QuizItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question json.RawMessage `json:"question"`
		Answer   json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Question = scalarText(raw.Question)
	q.Answer = scalarText(raw.Answer)
	return nil
}

func scalarText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}

type GenerateQuestionsRequest struct {
	ChapterContent *InlineChapter `json:"chapterContent"`
	ChapterTitle   string         `json:"chapterTitle"`
}
