// Package stability implements the imagegen.Provider interface using the
// Stability AI text-to-image API.
package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/analogous-app/analogous/internal/imagegen"
)

const (
	// APIBaseURL is the base URL for the Stability AI API
	APIBaseURL = "https://api.stability.ai/v1/generation"

	// DefaultEngine is the default generation engine
	DefaultEngine = "stable-diffusion-xl-1024-v1-0"

	// imageSize is the square output dimension
	imageSize = 1024
)

// Config contains configuration for the Stability provider
type Config struct {
	APIKey         string
	Engine         string
	RequestTimeout time.Duration
}

// Provider implements the imagegen.Provider interface
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Stability provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("stability API key is required")
	}
	if config.Engine == "" {
		config.Engine = DefaultEngine
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// GenerateImage renders one image for the prompt.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*imagegen.Image, error) {
	startTime := time.Now()

	reqBody := apiRequest{
		TextPrompts: []apiTextPrompt{
			{Text: prompt, Weight: 1},
		},
		Width:   imageSize,
		Height:  imageSize,
		Samples: 1,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, imagegen.WrapError("build request", err)
	}

	url := fmt.Sprintf("%s/%s/text-to-image", APIBaseURL, p.config.Engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, imagegen.WrapError("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, imagegen.WrapError("execute request", imagegen.EImageUnavailable)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, imagegen.WrapError("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, imagegen.WrapError("execute request", p.mapHTTPError(resp.StatusCode, bodyBytes))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, imagegen.WrapError("parse response", err)
	}
	if len(apiResp.Artifacts) == 0 {
		return nil, imagegen.WrapError("parse response", fmt.Errorf("no artifacts returned"))
	}

	data, err := base64.StdEncoding.DecodeString(apiResp.Artifacts[0].Base64)
	if err != nil {
		return nil, imagegen.WrapError("decode artifact", err)
	}

	return &imagegen.Image{
		Data:        data,
		ContentType: "image/png",
		Duration:    time.Since(startTime),
	}, nil
}

func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return imagegen.EImageUnauthorized
	case http.StatusTooManyRequests:
		return imagegen.EImageRateLimit
	case http.StatusBadRequest:
		if errResp.Name == "invalid_prompts" {
			return imagegen.EImageRejected
		}
		return fmt.Errorf("bad request: %s", errResp.Message)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return imagegen.EImageUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Message)
	}
}

// API request/response types

type apiRequest struct {
	TextPrompts []apiTextPrompt `json:"text_prompts"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Samples     int             `json:"samples"`
}

type apiTextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type apiResponse struct {
	Artifacts []apiArtifact `json:"artifacts"`
}

type apiArtifact struct {
	Base64       string `json:"base64"`
	FinishReason string `json:"finishReason"`
}

type apiErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
