// Package gemini implements the ai.Provider interface using Google's
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/analogous-app/analogous/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Generative Language API
	APIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	// DefaultModel is the default Gemini model to use
	DefaultModel = "gemini-2.0-flash"

	// MaxTopicLength bounds the topic to keep prompts small
	MaxTopicLength = 500
)

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the ai.Provider interface using the Gemini API
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Gemini provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// GenerateAnalogy produces a structured analogy using Gemini.
func (p *Provider) GenerateAnalogy(ctx context.Context, params ai.GenerateParams) (*ai.Result, error) {
	startTime := time.Now()

	if err := p.validateParams(params); err != nil {
		return nil, ai.WrapError("generate analogy", err)
	}

	body, err := p.buildRequestBody(params)
	if err != nil {
		return nil, ai.WrapError("build request", err)
	}

	resp, err := p.executeWithRetry(ctx, body)
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	output, err := parseOutput(resp)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	return &ai.Result{
		Output: *output,
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			Duration:     time.Since(startTime),
		},
	}, nil
}

func (p *Provider) validateParams(params ai.GenerateParams) error {
	if strings.TrimSpace(params.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ai.EAIMalformed)
	}
	if len(params.Topic) > MaxTopicLength {
		return fmt.Errorf("%w: topic length %d exceeds maximum %d", ai.EAIMalformed, len(params.Topic), MaxTopicLength)
	}
	return nil
}

func (p *Provider) buildRequestBody(params ai.GenerateParams) ([]byte, error) {
	reqBody := apiRequest{
		Contents: []apiContent{
			{
				Parts: []apiPart{
					{Text: buildAnalogyPrompt(params.Topic, params.Audience)},
				},
			},
		},
		GenerationConfig: apiGenerationConfig{
			ResponseMimeType: "application/json",
		},
	}
	return json.Marshal(reqBody)
}

// executeWithRetry executes the request with exponential backoff retry.
func (p *Provider) executeWithRetry(ctx context.Context, body []byte) (*apiResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		resp, err := p.executeRequest(ctx, body)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !ai.IsRetryable(err) {
			return nil, err
		}
		if attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("retrying gemini request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (p *Provider) executeRequest(ctx context.Context, body []byte) (*apiResponse, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", APIBaseURL, p.config.Model, p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to provider errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout:
		return ai.EAITimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// parseOutput extracts the structured analogy from the first candidate.
func parseOutput(resp *apiResponse) (*ai.Output, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ai.EAIMalformed)
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return nil, fmt.Errorf("%w: no text content", ai.EAIMalformed)
	}

	var output ai.Output
	if err := json.Unmarshal([]byte(text), &output); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.EAIMalformed, err)
	}
	if output.Analogy == "" {
		return nil, fmt.Errorf("%w: missing analogy field", ai.EAIMalformed)
	}
	return &output, nil
}

// API request/response types

type apiRequest struct {
	Contents         []apiContent        `json:"contents"`
	GenerationConfig apiGenerationConfig `json:"generationConfig"`
}

type apiContent struct {
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type apiResponse struct {
	Candidates    []apiCandidate   `json:"candidates"`
	UsageMetadata apiUsageMetadata `json:"usageMetadata"`
}

type apiCandidate struct {
	Content      apiContent `json:"content"`
	FinishReason string     `json:"finishReason"`
}

type apiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type apiErrorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
