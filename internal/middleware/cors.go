package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the frontend origin plus local dev servers.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL != "" {
		origins = append([]string{frontendURL}, origins...)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
