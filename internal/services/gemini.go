package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiClient completes prompts with the Gemini API. Presence and frequency
// penalties have no Gemini equivalent and are ignored.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, prompt PromptPair, params GenerationParams) (string, error) {
	name := params.Model
	if name == "" {
		name = c.model
	}

	model := c.client.GenerativeModel(name)
	model.SystemInstruction = genai.NewUserContent(genai.Text(prompt.System))
	model.SetTemperature(params.Temperature)
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt.User))
	if err != nil {
		return "", mapGeminiError(err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Message: msgGenerateFailed, Err: errors.New("empty completion")}
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

func mapGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &RateLimitError{Message: msgRateLimited}
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return &ConfigurationError{Message: msgConfiguration, Err: err}
		case apiErr.Code == http.StatusBadRequest && strings.Contains(msg, "api key"):
			return &ConfigurationError{Message: msgConfiguration, Err: err}
		case apiErr.Code == http.StatusBadRequest &&
			(strings.Contains(msg, "token") || strings.Contains(msg, "too long")):
			return &ContentTooLongError{Message: msgTooLong}
		}
	}

	// gRPC-style status text when the error did not come back as a googleapi.Error.
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return &RateLimitError{Message: msgRateLimited}
	}

	return &GenerationError{Message: msgGenerateFailed, Err: err}
}
