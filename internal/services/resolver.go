package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/repository"
)

type ChapterStore interface {
	GetByKey(ctx context.Context, key string) (*models.Chapter, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
}

// Lookup names the identifier scheme that matched.
type Lookup int

const (
	LookupNone Lookup = iota
	LookupKey
	LookupID
)

// Resolution is the outcome of resolving a chapter identifier. Chapter is
// set only when Found is true.
type Resolution struct {
	Found   bool
	Chapter *models.Chapter
	By      Lookup
}

// ChapterResolver finds chapters by human key first and by store id second.
type ChapterResolver struct {
	store ChapterStore
}

func NewChapterResolver(store ChapterStore) *ChapterResolver {
	return &ChapterResolver{store: store}
}

// Resolve never reports a malformed id as an error: an id that is neither a
// known key nor a valid UUID simply resolves to not found.
func (r *ChapterResolver) Resolve(ctx context.Context, id string) (Resolution, error) {
	chapter, err := r.store.GetByKey(ctx, id)
	switch {
	case err == nil:
		return Resolution{Found: true, Chapter: chapter, By: LookupKey}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return Resolution{}, err
	}

	nativeID, err := uuid.Parse(id)
	if err != nil {
		return Resolution{}, nil
	}

	chapter, err = r.store.GetByID(ctx, nativeID)
	switch {
	case err == nil:
		return Resolution{Found: true, Chapter: chapter, By: LookupID}, nil
	case errors.Is(err, repository.ErrNotFound):
		return Resolution{}, nil
	default:
		return Resolution{}, err
	}
}

// UnavailableStore stands in for the document store when DATABASE_URL is not
// set.
type UnavailableStore struct{}

func NewUnavailableStore() *UnavailableStore { return &UnavailableStore{} }

func (UnavailableStore) GetByKey(context.Context, string) (*models.Chapter, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableStore) GetByID(context.Context, uuid.UUID) (*models.Chapter, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableStore) ListByChapterKey(context.Context, string) ([]models.Question, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableStore) InsertMany(context.Context, []models.Question) ([]models.Question, error) {
	return nil, ErrStoreUnavailable
}
