package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/repository"
)

type fakeChapterStore struct {
	byKey map[string]*models.Chapter
	byID  map[uuid.UUID]*models.Chapter
	err   error

	keyCalls int
	idCalls  int
}

func newFakeChapterStore(chapters ...*models.Chapter) *fakeChapterStore {
	s := &fakeChapterStore{
		byKey: map[string]*models.Chapter{},
		byID:  map[uuid.UUID]*models.Chapter{},
	}
	for _, ch := range chapters {
		if ch.ChapterKey != nil {
			s.byKey[*ch.ChapterKey] = ch
		}
		s.byID[ch.ID] = ch
	}
	return s
}

func (s *fakeChapterStore) GetByKey(_ context.Context, key string) (*models.Chapter, error) {
	s.keyCalls++
	if s.err != nil {
		return nil, s.err
	}
	if ch, ok := s.byKey[key]; ok {
		return ch, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeChapterStore) GetByID(_ context.Context, id uuid.UUID) (*models.Chapter, error) {
	s.idCalls++
	if s.err != nil {
		return nil, s.err
	}
	if ch, ok := s.byID[id]; ok {
		return ch, nil
	}
	return nil, repository.ErrNotFound
}

type fakeQuestionStore struct {
	mu      sync.Mutex
	rows    map[string][]models.Question
	listErr error
	inserts int
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{rows: map[string][]models.Question{}}
}

func (s *fakeQuestionStore) ListByChapterKey(_ context.Context, key string) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.rows[key], nil
}

func (s *fakeQuestionStore) InsertMany(_ context.Context, questions []models.Question) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	for i := range questions {
		questions[i].ID = uuid.New()
		s.rows[questions[i].ChapterKey] = append(s.rows[questions[i].ChapterKey], questions[i])
	}
	return questions, nil
}

type stubCompleter struct {
	text  string
	err   error
	calls int

	lastPrompt PromptPair
	lastParams GenerationParams
}

func (c *stubCompleter) Complete(_ context.Context, prompt PromptPair, params GenerationParams) (string, error) {
	c.calls++
	c.lastPrompt = prompt
	c.lastParams = params
	return c.text, c.err
}

type stubLock struct {
	acquired bool
	err      error
	released int
}

func (l *stubLock) TryAcquire(context.Context, string) (func(), bool, error) {
	if l.err != nil || !l.acquired {
		return nil, false, l.err
	}
	return func() { l.released++ }, true, nil
}

// memoryLock is an in-process GenerationLock keyed by chapter.
type memoryLock struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryLock() *memoryLock {
	return &memoryLock{keys: map[string]bool{}}
}

func (l *memoryLock) TryAcquire(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys[key] {
		return nil, false, nil
	}
	l.keys[key] = true
	return func() {
		l.mu.Lock()
		delete(l.keys, key)
		l.mu.Unlock()
	}, true, nil
}

func (l *memoryLock) held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.keys[key]
}

func strPtr(s string) *string { return &s }

func redisClientForTest(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}
