package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"guiderbooks-backend/internal/logger"
	"guiderbooks-backend/internal/monitoring"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Completer sends one system/user prompt pair to a completion service and
// returns the generated text. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt PromptPair, params GenerationParams) (string, error)
}

type CompleterConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// NewCompleter builds the client for cfg.Provider. A missing credential is
// not a startup failure: the returned completer fails every call with a
// ConfigurationError instead.
func NewCompleter(ctx context.Context, cfg CompleterConfig) (Completer, error) {
	if cfg.APIKey == "" {
		return unconfiguredCompleter{}, nil
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(context.Context, PromptPair, GenerationParams) (string, error) {
	return "", &ConfigurationError{Message: msgNotConfigured}
}

// InstrumentedCompleter logs and records metrics for every call to the
// wrapped completer.
type InstrumentedCompleter struct {
	next     Completer
	provider string
	metrics  *monitoring.Metrics
	log      *logger.Logger
}

func NewInstrumentedCompleter(next Completer, provider string, metrics *monitoring.Metrics, log *logger.Logger) *InstrumentedCompleter {
	if provider == "" {
		provider = ProviderOpenAI
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InstrumentedCompleter{next: next, provider: provider, metrics: metrics, log: log.With("provider", provider)}
}

func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt PromptPair, params GenerationParams) (string, error) {
	c.log.Debug("completion request",
		"model", params.Model,
		"system_chars", len(prompt.System),
		"user_chars", len(prompt.User),
		"max_tokens", params.MaxTokens,
	)

	start := time.Now()
	text, err := c.next.Complete(ctx, prompt, params)
	elapsed := time.Since(start)

	outcome := completionOutcome(err)
	c.metrics.ObserveCompletion(c.provider, outcome, elapsed)

	if err != nil {
		c.log.Error("completion failed",
			"model", params.Model,
			"duration", elapsed,
			"outcome", outcome,
			"error", err,
		)
		return "", err
	}

	c.log.Info("completion finished",
		"model", params.Model,
		"duration", elapsed,
		"chars", len(text),
	)
	return text, nil
}

// Close releases the wrapped client when it holds resources.
func (c *InstrumentedCompleter) Close() error {
	if closer, ok := c.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func completionOutcome(err error) string {
	var (
		rateErr   *RateLimitError
		configErr *ConfigurationError
		longErr   *ContentTooLongError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &rateErr):
		return "rate_limited"
	case errors.As(err, &configErr):
		return "config_error"
	case errors.As(err, &longErr):
		return "too_long"
	default:
		return "failed"
	}
}
