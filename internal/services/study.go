package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
)

const (
	// Upper bound on stored questions per chapter; QUESTION_LIMIT can only lower it.
	defaultQuestionLimit = 40

	// How long a request waits on another generator before giving up. Kept
	// well under the server write timeout so a takeover still has time to run.
	questionWaitTimeout = 45 * time.Second
)

type QuestionStore interface {
	ListByChapterKey(ctx context.Context, chapterKey string) ([]models.Question, error)
	InsertMany(ctx context.Context, questions []models.Question) ([]models.Question, error)
}

// StudyService answers questions about chapters and generates quizzes and
// assessments from their content.
type StudyService struct {
	resolver      *ChapterResolver
	questions     QuestionStore
	completer     Completer
	lock          GenerationLock
	questionLimit int
	log           *logger.Logger

	now          func() time.Time
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func NewStudyService(
	chapters ChapterStore,
	questions QuestionStore,
	completer Completer,
	lock GenerationLock,
	questionLimit int,
	log *logger.Logger,
) *StudyService {
	if lock == nil {
		lock = NewNoopLock()
	}
	if questionLimit <= 0 || questionLimit > defaultQuestionLimit {
		questionLimit = defaultQuestionLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &StudyService{
		resolver:      NewChapterResolver(chapters),
		questions:     questions,
		completer:     completer,
		lock:          lock,
		questionLimit: questionLimit,
		log:           log,
		now:           time.Now,
		pollInterval:  time.Second,
		waitTimeout:   questionWaitTimeout,
	}
}

// AskChapter answers a question using only the chapter's content. Inline
// content wins over a stored chapter.
func (s *StudyService) AskChapter(ctx context.Context, req models.AskChapterRequest) (*models.AskChapterResponse, error) {
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.ChapterID) == "" {
		return nil, &ValidationError{Message: "Question and chapterId are required"}
	}

	content, title, err := s.chapterMaterial(ctx, req.ChapterID, req.ChapterContent)
	if err != nil {
		return nil, err
	}

	answer, err := s.completer.Complete(ctx, BuildChapterPrompt(req.Question, content, title, req.Language), chapterParams)
	if err != nil {
		return nil, err
	}

	return &models.AskChapterResponse{
		Answer:       answer,
		ChapterTitle: title,
		Question:     req.Question,
		Timestamp:    s.now().UTC(),
	}, nil
}

func (s *StudyService) GetChapter(ctx context.Context, chapterID string) (*models.Chapter, error) {
	return s.findChapter(ctx, chapterID)
}

// Ask answers a general question. A chapter that resolves supplies the
// context; otherwise req.Context is used. Lookup problems never fail the call.
func (s *StudyService) Ask(ctx context.Context, req models.AskRequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", &ValidationError{Message: "Question is required"}
	}

	contextText := req.Context
	if req.ChapterID != "" {
		res, err := s.resolver.Resolve(ctx, req.ChapterID)
		switch {
		case err != nil:
			s.log.Warn("chapter lookup failed, using supplied context", "chapterId", req.ChapterID, "error", err)
		case res.Found && res.Chapter.Content != "":
			contextText = res.Chapter.Content
		}
	}

	return s.completer.Complete(ctx, BuildGeneralPrompt(req.Question, contextText, req.Language), generalParams)
}

func (s *StudyService) GenerateAssessment(ctx context.Context, req models.AssessmentRequest) (*models.AssessmentResponse, error) {
	content, title, err := s.chapterMaterial(ctx, req.ChapterID, req.ChapterContent)
	if err != nil {
		return nil, err
	}

	raw, err := s.completer.Complete(ctx, BuildAssessmentPrompt(content, title), assessmentParams)
	if err != nil {
		return nil, err
	}

	assessment, err := CoerceAssessment(raw)
	if err != nil {
		return nil, err
	}

	return &models.AssessmentResponse{
		ChapterTitle: title,
		Assessment:   assessment,
		Timestamp:    s.now().UTC(),
	}, nil
}

// GenerateQuestions returns freshly generated quiz items, unchanged and
// unstored.
func (s *StudyService) GenerateQuestions(ctx context.Context, content, title string) ([]json.RawMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Message: "chapterContent.content is required"}
	}

	raw, err := s.completer.Complete(ctx, BuildQuizPrompt(content, title), quizParams)
	if err != nil {
		return nil, err
	}
	return CoerceQuiz(raw)
}

// GetOrGenerateQuestions returns the stored questions for chapterKey. When
// there are none, it generates a quiz from the chapter, keeps at most
// questionLimit pairs and stores them.
func (s *StudyService) GetOrGenerateQuestions(ctx context.Context, chapterKey string) ([]models.Question, error) {
	existing, err := s.questions.ListByChapterKey(ctx, chapterKey)
	if err != nil {
		return nil, storeError("failed to load questions", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	chapter, err := s.findChapter(ctx, chapterKey)
	if err != nil {
		return nil, err
	}

	release, acquired, err := s.lock.TryAcquire(ctx, chapterKey)
	if err != nil {
		s.log.Warn("generation lock unavailable, generating unguarded", "chapterId", chapterKey, "error", err)
		release, acquired = func() {}, true
	}
	if !acquired {
		return s.awaitQuestions(ctx, chapter, chapterKey)
	}
	return s.generateAndStore(ctx, chapter, chapterKey, release)
}

// generateAndStore runs with the generation lock held and releases it on return.
func (s *StudyService) generateAndStore(ctx context.Context, chapter *models.Chapter, chapterKey string, release func()) ([]models.Question, error) {
	defer release()

	// A previous holder may have stored a set between the first read and the lock.
	existing, err := s.questions.ListByChapterKey(ctx, chapterKey)
	if err != nil {
		return nil, storeError("failed to load questions", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	raw, err := s.GenerateQuestions(ctx, chapter.Content, chapter.Title)
	if err != nil {
		return nil, err
	}
	if len(raw) > s.questionLimit {
		raw = raw[:s.questionLimit]
	}
	items, err := quizItems(raw)
	if err != nil {
		return nil, &CoercionError{Message: "Failed to extract valid JSON array from response.", Err: err}
	}

	toSave := make([]models.Question, 0, len(items))
	for _, item := range items {
		toSave = append(toSave, models.Question{
			ChapterRef: chapter.ID,
			ChapterKey: chapterKey,
			Question:   item.Question,
			Answer:     item.Answer,
		})
	}

	saved, err := s.questions.InsertMany(ctx, toSave)
	if err != nil {
		return nil, storeError("failed to save questions", err)
	}
	s.log.Info("questions generated", "chapterId", chapterKey, "count", len(saved))
	return saved, nil
}

// awaitQuestions polls the store while another request generates the set.
// If that request lets the lock go without storing anything, the first
// waiter to grab the lock generates the set itself.
func (s *StudyService) awaitQuestions(ctx context.Context, chapter *models.Chapter, chapterKey string) ([]models.Question, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.waitTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, &ConflictError{Message: "Questions are already being generated for this chapter"}
		case <-ticker.C:
			existing, err := s.questions.ListByChapterKey(ctx, chapterKey)
			if err != nil {
				return nil, storeError("failed to load questions", err)
			}
			if len(existing) > 0 {
				return existing, nil
			}

			release, acquired, err := s.lock.TryAcquire(ctx, chapterKey)
			if err != nil {
				s.log.Warn("generation lock retry failed", "chapterId", chapterKey, "error", err)
				continue
			}
			if acquired {
				s.log.Info("taking over question generation", "chapterId", chapterKey)
				return s.generateAndStore(ctx, chapter, chapterKey, release)
			}
		}
	}
}

// chapterMaterial picks the content and title to prompt with.
func (s *StudyService) chapterMaterial(ctx context.Context, chapterID string, inline *models.InlineChapter) (string, string, error) {
	if inline != nil && inline.Content != "" {
		return inline.Content, inline.Title, nil
	}
	if chapterID == "" {
		return "", "", &ValidationError{Message: "chapterId or chapterContent is required"}
	}

	chapter, err := s.findChapter(ctx, chapterID)
	if err != nil {
		return "", "", err
	}
	if chapter.Content == "" {
		return "", "", &ValidationError{Message: "No chapter content available"}
	}
	return chapter.Content, chapter.Title, nil
}

func (s *StudyService) findChapter(ctx context.Context, chapterID string) (*models.Chapter, error) {
	res, err := s.resolver.Resolve(ctx, chapterID)
	if err != nil {
		return nil, storeError("failed to load chapter", err)
	}
	if !res.Found {
		return nil, chapterNotFound()
	}
	return res.Chapter, nil
}

func storeError(action string, err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return &ConfigurationError{Message: "Document store is not configured", Err: err}
	}
	return fmt.Errorf("%s: %w", action, err)
}
