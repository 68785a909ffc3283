// Package ai talks to the text generation providers used by the build agents.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider names used in logs and metrics
const (
	ProviderGemini  = "gemini"
	ProviderGateway = "gateway"
)

var (
	// ErrMalformedResponse means the provider answered 2xx without the
	// expected content field.
	ErrMalformedResponse = errors.New("provider response has no content")
	ErrNotConfigured     = errors.New("provider is not configured")
)

// CompletionRequest is a single prompt with decoding parameters
type CompletionRequest struct {
	Prompt          string
	SystemPrompt    string
	Temperature     float64
	MaxOutputTokens int
}

// Completer is a provider that authenticates itself
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// KeyedCompleter is a provider whose credential is chosen per call
type KeyedCompleter interface {
	CompleteWithKey(ctx context.Context, apiKey string, req CompletionRequest) (string, error)
}

// ProviderError is a non-2xx answer from a provider
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	body := e.Body
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, body)
}

// IsQuotaExhausted reports whether err is a rate-limit answer (HTTP 429)
func IsQuotaExhausted(err error) bool {
	return hasStatus(err, http.StatusTooManyRequests)
}

// IsPaymentRequired reports whether err is an HTTP 402 answer
func IsPaymentRequired(err error) bool {
	return hasStatus(err, http.StatusPaymentRequired)
}

func hasStatus(err error, status int) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == status
}
