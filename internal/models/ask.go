package models

import "time"

// AskChapterRequest is the payload for chapter-scoped questions.
type AskChapterRequest struct {
	Question       string         `json:"question"`
	ChapterID      string         `json:"chapterId"`
	ChapterContent *InlineChapter `json:"chapterContent"`
	Language       string         `json:"language"`
}

type AskChapterResponse struct {
	Answer       string    `json:"answer"`
	ChapterTitle string    `json:"chapterTitle"`
	Question     string    `json:"question"`
	Timestamp    time.Time `json:"timestamp"`
}

// AskRequest is the payload for general questions. Context is used only when
// ChapterID does not resolve to a stored chapter.
type AskRequest struct {
	Question  string `json:"question"`
	ChapterID string `json:"chapterId"`
	Context   string `json:"context"`
	Language  string `json:"language"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
