package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/repository"
	"guiderbooks-backend/internal/services"
)

type stubChapterStore struct {
	chapters map[string]*models.Chapter
}

func (s *stubChapterStore) GetByKey(ctx context.Context, key string) (*models.Chapter, error) {
	if ch, ok := s.chapters[key]; ok {
		return ch, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubChapterStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	for _, ch := range s.chapters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubQuestionStore struct {
	rows []models.Question
}

func (s *stubQuestionStore) ListByChapterKey(ctx context.Context, key string) ([]models.Question, error) {
	return s.rows, nil
}

func (s *stubQuestionStore) InsertMany(ctx context.Context, questions []models.Question) ([]models.Question, error) {
	s.rows = append(s.rows, questions...)
	return questions, nil
}

type stubCompleter struct {
	text string
	err  error
}

func (c *stubCompleter) Complete(ctx context.Context, prompt services.PromptPair, params services.GenerationParams) (string, error) {
	return c.text, c.err
}

func newService(chapters *stubChapterStore, completer services.Completer) *services.StudyService {
	if chapters == nil {
		chapters = &stubChapterStore{}
	}
	return services.NewStudyService(chapters, &stubQuestionStore{}, completer, nil, 40, logger.Nop())
}

func withChapterID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("chapterId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func assessmentJSON(n int) string {
	item := func(format string) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf(format, i)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf(`{"mcqs":%s,"trueFalse":%s,"fillups":%s,"qa":%s}`,
		item(`{"question":"Q%d","options":["A","B","C","D"],"answer":"A"}`),
		item(`{"statement":"S%d","answer":true}`),
		item(`{"sentence":"Blank _____ %d","answer":"x"}`),
		item(`{"question":"Q%d","answer":"A"}`),
	)
}

// ─── Ask Chapter ───

func TestAskChapterHandler_Get_UnknownID(t *testing.T) {
	h := NewAskChapterHandler(newService(nil, &stubCompleter{}), logger.Nop())

	req := withChapterID(httptest.NewRequest(http.MethodGet, "/api/ask-chapter/unknown-id", nil), "unknown-id")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Chapter not found" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestAskChapterHandler_Get_ReturnsNativeID(t *testing.T) {
	ch := &models.Chapter{ID: uuid.New(), Title: "Cells", Content: "Cells are...", Metadata: json.RawMessage(`{"grade":9}`)}
	h := NewAskChapterHandler(newService(&stubChapterStore{chapters: map[string]*models.Chapter{"bio-1": ch}}, &stubCompleter{}), logger.Nop())

	req := withChapterID(httptest.NewRequest(http.MethodGet, "/api/ask-chapter/bio-1", nil), "bio-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	json.NewDecoder(rr.Body).Decode(&body)
	if body["chapterId"] != ch.ID.String() {
		t.Fatalf("expected native id, got %v", body["chapterId"])
	}
	if body["title"] != "Cells" {
		t.Fatalf("unexpected title %v", body["title"])
	}
}

func TestAskChapterHandler_Get_StoreFailure(t *testing.T) {
	svc := services.NewStudyService(services.NewUnavailableStore(), services.NewUnavailableStore(), &stubCompleter{}, nil, 40, logger.Nop())
	h := NewAskChapterHandler(svc, logger.Nop())

	req := withChapterID(httptest.NewRequest(http.MethodGet, "/api/ask-chapter/bio-1", nil), "bio-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Failed to fetch chapter information" {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestAskChapterHandler_Ask(t *testing.T) {
	inline := `{"question":"What is light?","chapterId":"phy-1","chapterContent":{"content":"Light is...","title":"Optics"}}`

	tests := []struct {
		name       string
		body       string
		completer  *stubCompleter
		wantStatus int
		wantError  string
	}{
		{"success", inline, &stubCompleter{text: "**Light**"}, http.StatusOK, ""},
		{"missing question", `{"chapterId":"phy-1"}`, &stubCompleter{}, http.StatusBadRequest, "Question and chapterId are required"},
		{"invalid body", `{`, &stubCompleter{}, http.StatusBadRequest, "Invalid request body"},
		{"unknown chapter", `{"question":"q","chapterId":"nope"}`, &stubCompleter{}, http.StatusNotFound, "Chapter not found"},
		{"rate limited", inline, &stubCompleter{err: &services.RateLimitError{Message: "API rate limit exceeded. Please try again later."}}, http.StatusTooManyRequests, "API rate limit exceeded. Please try again later."},
		{"not configured", inline, &stubCompleter{err: &services.ConfigurationError{Message: "Completion service API key is not set. Please configure it in the environment."}}, http.StatusInternalServerError, "Completion service API key is not set. Please configure it in the environment."},
		{"too long", inline, &stubCompleter{err: &services.ContentTooLongError{Message: "The content is too long. Please try a shorter question or chapter."}}, http.StatusInternalServerError, "The content is too long. Please try a shorter question or chapter."},
		{"unclassified", inline, &stubCompleter{err: errors.New("boom")}, http.StatusInternalServerError, "Failed to process your question. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAskChapterHandler(newService(nil, tt.completer), logger.Nop())

			req := httptest.NewRequest(http.MethodPost, "/api/ask-chapter", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			h.Ask(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantError != "" {
				if msg := decodeError(t, rr); msg != tt.wantError {
					t.Fatalf("unexpected error message %q", msg)
				}
				return
			}

			var resp models.AskChapterResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Answer != "**Light**" || resp.ChapterTitle != "Optics" || resp.Question != "What is light?" {
				t.Fatalf("unexpected response %+v", resp)
			}
			if resp.Timestamp.IsZero() {
				t.Fatalf("expected timestamp")
			}
		})
	}
}

// The quota signal travels from the real OpenAI client through to a 429.
func TestAskChapterHandler_Ask_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`)
	}))
	defer srv.Close()

	completer := services.NewOpenAIClient("sk-test", srv.URL+"/v1", "")
	h := NewAskChapterHandler(newService(nil, completer), logger.Nop())

	body := `{"question":"q","chapterId":"c1","chapterContent":{"content":"text","title":"T"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask-chapter", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Ask(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "rate limit") {
		t.Fatalf("expected rate limit message, got %q", msg)
	}
}

// ─── Ask ───

func TestAskHandler_Ask(t *testing.T) {
	h := NewAskHandler(newService(nil, &stubCompleter{text: "DNA is..."}), logger.Nop())

	body, _ := json.Marshal(models.AskRequest{Question: "What is DNA?", Context: "Genetics"})
	rr := httptest.NewRecorder()
	h.Ask(rr, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp models.AskResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Answer != "DNA is..." {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
}

func TestAskHandler_Failures(t *testing.T) {
	h := NewAskHandler(newService(nil, &stubCompleter{err: errors.New("network down")}), logger.Nop())

	rr := httptest.NewRecorder()
	h.Ask(rr, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"q"}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Ask(rr, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":""}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty question, got %d", rr.Code)
	}

	limited := NewAskHandler(newService(nil, &stubCompleter{err: &services.RateLimitError{Message: "API rate limit exceeded. Please try again later."}}), logger.Nop())
	rr = httptest.NewRecorder()
	limited.Ask(rr, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"q"}`)))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for rate limit on /api/ask, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "API rate limit exceeded. Please try again later." {
		t.Fatalf("unexpected error message %q", msg)
	}
}

// ─── Assessment ───

func TestAssessmentHandler_InlineContent(t *testing.T) {
	h := NewAssessmentHandler(newService(nil, &stubCompleter{text: assessmentJSON(10)}), logger.Nop())

	body := `{"chapterContent":{"content":"Photosynthesis is...","title":"Ch1"}}`
	rr := httptest.NewRecorder()
	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/assessment", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp models.AssessmentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ChapterTitle != "Ch1" {
		t.Fatalf("expected chapterTitle Ch1, got %q", resp.ChapterTitle)
	}
	if len(resp.Assessment.MCQs) != 10 || len(resp.Assessment.TrueFalse) != 10 ||
		len(resp.Assessment.Fillups) != 10 || len(resp.Assessment.QA) != 10 {
		t.Fatalf("expected 10 items per section, got %+v", resp.Assessment)
	}
}

func TestAssessmentHandler_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		text       string
		wantStatus int
		wantError  string
	}{
		{"neither given", `{}`, "", http.StatusBadRequest, "chapterId or chapterContent is required"},
		{"unknown chapter", `{"chapterId":"nope"}`, "", http.StatusNotFound, "Chapter not found"},
		{"unsalvageable output", `{"chapterContent":{"content":"x","title":"T"}}`, "I cannot do that", http.StatusInternalServerError, "Failed to extract valid assessment JSON from response."},
		{"missing section", `{"chapterContent":{"content":"x","title":"T"}}`, `{"mcqs":[],"trueFalse":[],"qa":[]}`, http.StatusInternalServerError, "Failed to extract valid assessment JSON from response."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAssessmentHandler(newService(nil, &stubCompleter{text: tt.text}), logger.Nop())

			rr := httptest.NewRecorder()
			h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/assessment", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if msg := decodeError(t, rr); msg != tt.wantError {
				t.Fatalf("unexpected error message %q", msg)
			}
		})
	}
}

// ─── Questions ───

func TestQuestionHandler_List_GeneratesAndCaps(t *testing.T) {
	ch := &models.Chapter{ID: uuid.New(), Title: "Cells", Content: "Cells are..."}
	items := make([]string, 45)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question":"Q%d","answer":"A%d"}`, i, i)
	}
	completer := &stubCompleter{text: "[" + strings.Join(items, ",") + "]"}
	h := NewQuestionHandler(newService(&stubChapterStore{chapters: map[string]*models.Chapter{"bio-1": ch}}, completer), logger.Nop())

	rr := httptest.NewRecorder()
	h.List(rr, withChapterID(httptest.NewRequest(http.MethodGet, "/api/questions/bio-1", nil), "bio-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got []models.Question
	json.NewDecoder(rr.Body).Decode(&got)
	if len(got) != 40 {
		t.Fatalf("expected 40 questions, got %d", len(got))
	}
	if got[0].ChapterKey != "bio-1" || got[0].ChapterRef != ch.ID {
		t.Fatalf("expected chapter references on stored rows, got %+v", got[0])
	}
}

func TestQuestionHandler_List_UnknownChapter(t *testing.T) {
	h := NewQuestionHandler(newService(nil, &stubCompleter{}), logger.Nop())

	rr := httptest.NewRecorder()
	h.List(rr, withChapterID(httptest.NewRequest(http.MethodGet, "/api/questions/unknown-id", nil), "unknown-id"))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestQuestionHandler_Generate(t *testing.T) {
	completer := &stubCompleter{text: "Here:\n[{\"question\":\"Q1\",\"answer\":1945,\"explanation\":\"E1\"}]"}
	h := NewQuestionHandler(newService(nil, completer), logger.Nop())

	body := `{"chapterContent":{"content":"Cells are..."},"chapterTitle":"Cells"}`
	rr := httptest.NewRecorder()
	h.Generate(rr, withChapterID(httptest.NewRequest(http.MethodPost, "/api/questions/generate/bio-1", strings.NewReader(body)), "bio-1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got []map[string]any
	json.NewDecoder(rr.Body).Decode(&got)
	if len(got) != 1 || got[0]["question"] != "Q1" {
		t.Fatalf("unexpected items %+v", got)
	}
	if got[0]["answer"] != float64(1945) || got[0]["explanation"] != "E1" {
		t.Fatalf("expected generated item returned unchanged, got %+v", got[0])
	}
}

func TestQuestionHandler_Generate_MissingContent(t *testing.T) {
	h := NewQuestionHandler(newService(nil, &stubCompleter{}), logger.Nop())

	rr := httptest.NewRecorder()
	h.Generate(rr, httptest.NewRequest(http.MethodPost, "/api/questions/generate/bio-1", strings.NewReader(`{"chapterTitle":"Cells"}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
