// Package imagegen defines the image synthesis collaborator.
//
// Each analogy is illustrated with a small set of generated images. Image
// failures are soft: the pipeline substitutes a fallback URL for any image
// that cannot be produced, so illustration problems never fail a generation.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider defines the interface for image synthesis.
type Provider interface {
	// GenerateImage renders one image for the given prompt and returns the
	// encoded bytes plus their content type.
	GenerateImage(ctx context.Context, prompt string) (*Image, error)
}

// Image is one synthesized illustration.
type Image struct {
	Data        []byte
	ContentType string
	Duration    time.Duration
}

// Error codes for image synthesis operations
var (
	// EImageRateLimit indicates the API rate limit has been exceeded
	EImageRateLimit = errors.New("image provider rate limit exceeded")

	// EImageUnavailable indicates the service is temporarily unavailable
	EImageUnavailable = errors.New("image service temporarily unavailable")

	// EImageUnauthorized indicates invalid API credentials
	EImageUnauthorized = errors.New("image provider authentication failed")

	// EImageRejected indicates the prompt was rejected by the provider
	EImageRejected = errors.New("image prompt rejected")
)

// IsRetryable returns true for transient errors worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, EImageRateLimit) || errors.Is(err, EImageUnavailable)
}

// WrapError wraps an error with context about the operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("imagegen %s: %w", operation, err)
}
