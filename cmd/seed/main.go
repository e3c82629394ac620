package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"guiderbooks-backend/internal/config"
	"guiderbooks-backend/internal/database"
	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/models"
	"guiderbooks-backend/internal/repository"
)

// seedChapter is one entry of the seed file.
type seedChapter struct {
	ChapterID string         `yaml:"chapterId"`
	Title     string         `yaml:"title"`
	Content   string         `yaml:"content"`
	Metadata  map[string]any `yaml:"metadata"`
}

func main() {
	file := flag.String("file", "chapters.yaml", "YAML file with the chapters to load")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required to seed chapters")
	}

	chapters, err := loadSeedFile(*file)
	if err != nil {
		log.Fatal("failed to read seed file", "file", *file, "error", err)
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("PostgreSQL connection failed", "error", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	repo := repository.NewChapterRepo(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, sc := range chapters {
		chapter, err := sc.toChapter()
		if err != nil {
			log.Fatal("invalid chapter", "chapterId", sc.ChapterID, "error", err)
		}
		if err := repo.Upsert(ctx, chapter); err != nil {
			log.Fatal("failed to upsert chapter", "chapterId", sc.ChapterID, "error", err)
		}
		log.Info("chapter seeded", "chapterId", sc.ChapterID, "id", chapter.ID)
	}

	log.Info("seed complete", "count", len(chapters))
}

func loadSeedFile(path string) ([]seedChapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]seedChapter, error) {
	var chapters []seedChapter
	if err := yaml.Unmarshal(data, &chapters); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool, len(chapters))
	for i, c := range chapters {
		if c.ChapterID == "" {
			return nil, fmt.Errorf("chapter %d: chapterId is required", i)
		}
		if seen[c.ChapterID] {
			return nil, fmt.Errorf("chapter %d: duplicate chapterId %q", i, c.ChapterID)
		}
		seen[c.ChapterID] = true
	}
	return chapters, nil
}

func (c seedChapter) toChapter() (*models.Chapter, error) {
	metadata := json.RawMessage("{}")
	if len(c.Metadata) > 0 {
		raw, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = raw
	}

	key := c.ChapterID
	return &models.Chapter{
		ChapterKey: &key,
		Title:      c.Title,
		Content:    c.Content,
		Metadata:   metadata,
	}, nil
}
