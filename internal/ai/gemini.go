package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeplay/internal/metrics"
)

const (
	geminiTopK = 40
	geminiTopP = 0.95
)

// GeminiClient calls the Gemini generateContent endpoint. The API key is
// supplied per call so the credential pool can rotate underneath it.
type GeminiClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiClient builds a client for model under baseURL
// (https://generativelanguage.googleapis.com/v1beta/models in production).
func NewGeminiClient(baseURL, model string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CompleteWithKey sends one prompt and returns the first candidate's text
func (g *GeminiClient) CompleteWithKey(ctx context.Context, apiKey string, req CompletionRequest) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	body := &geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: &geminiGenConfig{
			Temperature:     req.Temperature,
			TopK:            geminiTopK,
			TopP:            geminiTopP,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(apiKey))
	resp, err := g.makeRequest(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrMalformedResponse)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("gemini: %w", ErrMalformedResponse)
	}
	return sb.String(), nil
}

func (g *GeminiClient) makeRequest(ctx context.Context, endpoint string, req *geminiRequest) (*geminiResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		metrics.Get().RecordProviderCall(ProviderGemini, 0, time.Since(start))
		// The URL carries the key; keep it out of logs.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.Get().RecordProviderCall(ProviderGemini, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("gemini: %w: %v", ErrMalformedResponse, err)
	}
	if out.Error != nil {
		return nil, &ProviderError{Provider: ProviderGemini, StatusCode: out.Error.Code, Body: out.Error.Message}
	}
	return &out, nil
}
