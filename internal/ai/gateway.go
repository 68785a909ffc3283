package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeplay/internal/metrics"
)

// DefaultGatewaySystemPrompt asks for bare code so fences rarely need stripping
const DefaultGatewaySystemPrompt = "You are an agent that writes clean code without explanations. Return only the code, with no ``` markers."

// GatewayClient calls an OpenAI-compatible chat completions endpoint
type GatewayClient struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGatewayClient(apiKey, url, model string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		apiKey:     apiKey,
		url:        url,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present
func (c *GatewayClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Complete sends the prompt as the user turn. An empty SystemPrompt uses
// DefaultGatewaySystemPrompt.
func (c *GatewayClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("gateway: %w", ErrNotConfigured)
	}

	system := req.SystemPrompt
	if system == "" {
		system = DefaultGatewaySystemPrompt
	}
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.Get().RecordProviderCall(ProviderGateway, 0, time.Since(start))
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.Get().RecordProviderCall(ProviderGateway, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderError{Provider: ProviderGateway, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("gateway: %w: %v", ErrMalformedResponse, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("gateway: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("gateway: %w", ErrMalformedResponse)
	}
	return out.Choices[0].Message.Content, nil
}
