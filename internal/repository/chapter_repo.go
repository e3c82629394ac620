package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"guiderbooks-backend/internal/models"
)

type ChapterRepo struct {
	pool *pgxpool.Pool
}

func NewChapterRepo(pool *pgxpool.Pool) *ChapterRepo {
	return &ChapterRepo{pool: pool}
}

const chapterColumns = `id, chapter_key, title, content, metadata_json, created_at`

func (r *ChapterRepo) GetByKey(ctx context.Context, key string) (*models.Chapter, error) {
	return r.getOne(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE chapter_key = $1`, key)
}

func (r *ChapterRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	return r.getOne(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = $1`, id)
}

func (r *ChapterRepo) getOne(ctx context.Context, query string, arg any) (*models.Chapter, error) {
	c := &models.Chapter{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.ChapterKey, &c.Title, &c.Content, &c.Metadata, &c.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Upsert inserts a chapter, or overwrites title, content and metadata of the
// chapter that already holds the same chapter key.
func (r *ChapterRepo) Upsert(ctx context.Context, c *models.Chapter) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	metadata := c.Metadata
	if len(metadata) == 0 || !json.Valid(metadata) {
		metadata = json.RawMessage("{}")
	}

	query := `INSERT INTO chapters (id, chapter_key, title, content, metadata_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chapter_key) DO UPDATE
		SET title = EXCLUDED.title, content = EXCLUDED.content, metadata_json = EXCLUDED.metadata_json
		RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.ChapterKey, c.Title, c.Content, metadata,
	).Scan(&c.ID, &c.CreatedAt)
}
