package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/analogous-app/analogous/internal/imagegen"
)

// onePixelPNG is a valid 1x1 transparent PNG, enough for storage round-trips.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Provider is a mock image provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	GenerateError error

	// Call tracking for testing
	GenerateCalls int
}

// New creates a new mock provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateImage returns a fixed one-pixel PNG
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (*imagegen.Image, error) {
	p.GenerateCalls++

	if p.GenerateError != nil {
		return nil, p.GenerateError
	}

	return &imagegen.Image{
		Data:        onePixelPNG,
		ContentType: "image/png",
		Duration:    10 * time.Millisecond,
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.GenerateCalls = 0
	p.GenerateError = nil
}
