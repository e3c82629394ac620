package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"guiderbooks-backend/internal/models"
)

type QuestionRepo struct {
	pool *pgxpool.Pool
}

func NewQuestionRepo(pool *pgxpool.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) ListByChapterKey(ctx context.Context, chapterKey string) ([]models.Question, error) {
	query := `SELECT id, chapter_ref, chapter_key, question, answer, created_at
		FROM questions WHERE chapter_key = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, chapterKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q := models.Question{}
		if err := rows.Scan(&q.ID, &q.ChapterRef, &q.ChapterKey, &q.Question, &q.Answer, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertMany stores the questions in one batch round trip. pgx runs the batch
// as a single implicit transaction, so either every row lands or none does,
// and all rows share one created_at. Ids are time ordered so that
// ListByChapterKey returns the set in the order it was given.
func (r *QuestionRepo) InsertMany(ctx context.Context, questions []models.Question) ([]models.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}
	if err := assignQuestionIDs(questions); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for i := range questions {
		batch.Queue(
			`INSERT INTO questions (id, chapter_ref, chapter_key, question, answer)
			 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			questions[i].ID, questions[i].ChapterRef, questions[i].ChapterKey, questions[i].Question, questions[i].Answer,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range questions {
		if err := results.QueryRow().Scan(&questions[i].CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert question %d: %w", i, err)
		}
	}
	return questions, nil
}

// assignQuestionIDs gives every question without an id a UUIDv7. Successive
// v7 ids from one process sort in creation order.
func assignQuestionIDs(questions []models.Question) error {
	for i := range questions {
		if questions[i].ID != uuid.Nil {
			continue
		}
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate question id: %w", err)
		}
		questions[i].ID = id
	}
	return nil
}
