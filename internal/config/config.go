package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// Completion service
	CompletionProvider string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenAIModel        string
	GeminiAPIKey       string
	GeminiModel        string

	// Questions; values above 40 are clamped to 40 by the study service
	QuestionLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "5050"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		MigrationsDir:      getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		CompletionProvider: strings.ToLower(getEnvOrDefault("COMPLETION_PROVIDER", "openai")),
		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey:       getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		QuestionLimit:      getEnvAsIntOrDefault("QUESTION_LIMIT", 40),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "https://Guiderbooksai.netlify.app"),
	}

	return cfg
}

// CompletionAPIKey returns the credential for the selected provider.
func (c *Config) CompletionAPIKey() string {
	if c.CompletionProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// IsProduction selects the production log encoder.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
