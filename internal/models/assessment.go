package models

import (
	"encoding/json"
	"time"
)

// Assessment holds the four generated sections. Items are kept exactly as
// the model produced them; only the section shape is checked.
type Assessment struct {
	MCQs      []json.RawMessage `json:"mcqs"`
	TrueFalse []json.RawMessage `json:"trueFalse"`
	Fillups   []json.RawMessage `json:"fillups"`
	QA        []json.RawMessage `json:"qa"`
}

type AssessmentRequest struct {
	ChapterID      string         `json:"chapterId"`
	ChapterContent *InlineChapter `json:"chapterContent"`
}

type AssessmentResponse struct {
	ChapterTitle string      `json:"chapterTitle"`
	Assessment   *Assessment `json:"assessment"`
	Timestamp    time.Time   `json:"timestamp"`
}
