package mock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/analogous-app/analogous/internal/ai"
)

// Provider is a mock content provider for testing and development
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	GenerateResponse *ai.Result
	GenerateError    error

	// Call tracking for testing
	GenerateCalls int
}

// New creates a new mock provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// GenerateAnalogy returns a canned analogy echoing the requested topic
func (p *Provider) GenerateAnalogy(ctx context.Context, params ai.GenerateParams) (*ai.Result, error) {
	p.GenerateCalls++

	// If a custom response or error is set, use it
	if p.GenerateError != nil {
		return nil, p.GenerateError
	}
	if p.GenerateResponse != nil {
		return p.GenerateResponse, nil
	}

	return &ai.Result{
		Output: ai.Output{
			Title:   fmt.Sprintf("%s, explained with a library", params.Topic),
			Analogy: fmt.Sprintf("Think of %s like a vast library. Every book has its place on a shelf, and the catalog tells you exactly where to look. When something new arrives, the librarian files it so it can be found again without searching every shelf.", params.Topic),
			Mapping: "The books are the data, the catalog is the index, and the librarian is the process that keeps everything ordered.",
			Caveats: "Unlike a library, real systems change constantly and several librarians may work at once.",
			Keywords: []string{
				"library",
				"bookshelf",
				"card catalog",
			},
		},
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  120,
			OutputTokens: 240,
			Duration:     50 * time.Millisecond,
		},
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.GenerateCalls = 0
	p.GenerateResponse = nil
	p.GenerateError = nil
}
