package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"guiderbooks-backend/internal/handlers"
	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/middleware"
	"guiderbooks-backend/internal/monitoring"
)

func New(
	askChapterHandler *handlers.AskChapterHandler,
	askHandler *handlers.AskHandler,
	assessmentHandler *handlers.AssessmentHandler,
	questionHandler *handlers.QuestionHandler,
	metrics *monitoring.Metrics,
	log *logger.Logger,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))
	r.Use(metrics.Middleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Backend API is running"))
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {

		// ──── Chapter Q&A ────
		r.Route("/ask-chapter", func(r chi.Router) {
			r.Post("/", askChapterHandler.Ask)
			r.Get("/{chapterId}", askChapterHandler.Get)
		})

		// ──── General Q&A ────
		r.Post("/ask", askHandler.Ask)

		// ──── Assessments ────
		r.Post("/assessment", assessmentHandler.Generate)

		// ──── Questions ────
		r.Route("/questions", func(r chi.Router) {
			r.Get("/{chapterId}", questionHandler.List)
			r.Post("/generate/{chapterId}", questionHandler.Generate)
		})
	})

	return r
}
