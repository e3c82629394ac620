package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt PromptPair, params GenerationParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature:      params.Temperature,
		MaxTokens:        params.MaxTokens,
		PresencePenalty:  params.PresencePenalty,
		FrequencyPenalty: params.FrequencyPenalty,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &GenerationError{Message: msgGenerateFailed, Err: errors.New("empty completion")}
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		switch {
		case code == "insufficient_quota" || code == "rate_limit_exceeded" ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &RateLimitError{Message: msgRateLimited}
		case code == "invalid_api_key" || apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return &ConfigurationError{Message: msgConfiguration, Err: err}
		case code == "context_length_exceeded":
			return &ContentTooLongError{Message: msgTooLong}
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return &RateLimitError{Message: msgRateLimited}
		case http.StatusUnauthorized:
			return &ConfigurationError{Message: msgConfiguration, Err: err}
		}
	}

	return &GenerationError{Message: msgGenerateFailed, Err: err}
}
