package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guiderbooks-backend/internal/config"
	"guiderbooks-backend/internal/database"
	"guiderbooks-backend/internal/handlers"
	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/monitoring"
	"guiderbooks-backend/internal/repository"
	"guiderbooks-backend/internal/router"
	"guiderbooks-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logMode := "development"
	if cfg.IsProduction() {
		logMode = "production"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting Guiderbooks backend", "env", cfg.Env)

	// ──── Step 2: Document Store (optional) ────
	var (
		chapterStore  services.ChapterStore  = services.NewUnavailableStore()
		questionStore services.QuestionStore = services.NewUnavailableStore()
	)
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, chapter and question routes will fail until it is configured")
	} else {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("PostgreSQL connection failed", "error", err)
		}
		defer pool.Close()
		log.Info("PostgreSQL connected")

		if err := database.RunMigrations(pool, cfg.MigrationsDir, log); err != nil {
			log.Fatal("database migration failed", "error", err)
		}
		log.Info("database migrations applied")

		chapterStore = repository.NewChapterRepo(pool)
		questionStore = repository.NewQuestionRepo(pool)
	}

	// ──── Step 3: Redis Generation Lock (optional) ────
	lock := services.NewNoopLock()
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL is not set, concurrent question generation is unguarded")
	} else {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal("Redis connection failed", "error", err)
		}
		defer redisClient.Close()
		lock = services.NewRedisGenerationLock(redisClient)
		log.Info("Redis connected")
	}

	// ──── Step 4: Completion Client ────
	metrics := monitoring.New()

	model := cfg.OpenAIModel
	if cfg.CompletionProvider == services.ProviderGemini {
		model = cfg.GeminiModel
	}
	baseCompleter, err := services.NewCompleter(context.Background(), services.CompleterConfig{
		Provider: cfg.CompletionProvider,
		APIKey:   cfg.CompletionAPIKey(),
		BaseURL:  cfg.OpenAIBaseURL,
		Model:    model,
	})
	if err != nil {
		log.Fatal("completion client initialization failed", "error", err)
	}
	if cfg.CompletionAPIKey() == "" {
		log.Warn("completion API key is not set, completion routes will fail", "provider", cfg.CompletionProvider)
	}
	completer := services.NewInstrumentedCompleter(baseCompleter, cfg.CompletionProvider, metrics, log)
	defer completer.Close()
	log.Info("completion client ready", "provider", cfg.CompletionProvider, "model", model)

	// ──── Step 5: Services & Handlers ────
	studyService := services.NewStudyService(chapterStore, questionStore, completer, lock, cfg.QuestionLimit, log)

	askChapterHandler := handlers.NewAskChapterHandler(studyService, log)
	askHandler := handlers.NewAskHandler(studyService, log)
	assessmentHandler := handlers.NewAssessmentHandler(studyService, log)
	questionHandler := handlers.NewQuestionHandler(studyService, log)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		askChapterHandler,
		askHandler,
		assessmentHandler,
		questionHandler,
		metrics,
		log,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		close(done)
	}()

	log.Info("server running", "addr", fmt.Sprintf("http://localhost:%s", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
	<-done
}
