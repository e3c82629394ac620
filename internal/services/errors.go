package services

import "errors"

// ErrStoreUnavailable is returned by store-backed operations when no
// document store is configured.
var ErrStoreUnavailable = errors.New("document store is not configured")

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ConfigurationError means the completion service credential is missing or
// rejected. Message is safe to show to callers.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string { return e.Message }
func (e *ConfigurationError) Unwrap() error { return e.Err }

type ContentTooLongError struct{ Message string }

func (e *ContentTooLongError) Error() string { return e.Message }

type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string { return e.Message }
func (e *GenerationError) Unwrap() error { return e.Err }

// CoercionError means the model output could not be turned into the
// expected structure.
type CoercionError struct {
	Message string
	Err     error
}

func (e *CoercionError) Error() string { return e.Message }
func (e *CoercionError) Unwrap() error { return e.Err }

const (
	msgRateLimited    = "API rate limit exceeded. Please try again later."
	msgConfiguration  = "Completion service configuration error. Please check your API key."
	msgTooLong        = "The content is too long. Please try a shorter question or chapter."
	msgGenerateFailed = "Failed to generate response. Please try again."
	msgNotConfigured  = "Completion service API key is not set. Please configure it in the environment."
)

func chapterNotFound() error {
	return &NotFoundError{Message: "Chapter not found"}
}
