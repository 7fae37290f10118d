// Package ai defines the content generation collaborator.
//
// Providers turn a topic and audience into a structured analogy. The
// interface is deliberately narrow so the generation pipeline can swap the
// real provider for a mock in development and tests.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Provider defines the interface for analogy content generation.
type Provider interface {
	// GenerateAnalogy produces a structured analogy for the given topic
	// and audience.
	GenerateAnalogy(ctx context.Context, params GenerateParams) (*Result, error)
}

// GenerateParams contains parameters for analogy generation.
type GenerateParams struct {
	Topic     string    // Concept to explain
	Audience  string    // Who the explanation is for (e.g., "a 10 year old")
	AccountID uuid.UUID // Account ID for logging and tracing
}

// Output is the structured analogy returned by a provider.
type Output struct {
	Title    string   `json:"title"`
	Analogy  string   `json:"analogy"`
	Mapping  string   `json:"mapping"`
	Caveats  string   `json:"caveats"`
	Keywords []string `json:"keywords"`
}

// Result contains the generated output plus usage information.
type Result struct {
	Output Output
	Usage  UsageInfo
}

// UsageInfo tracks provider usage for monitoring.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// ProviderConfig contains common configuration for providers.
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIMalformed indicates the provider returned output that could not
	// be parsed into the expected structure
	EAIMalformed = errors.New("ai provider returned malformed output")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
