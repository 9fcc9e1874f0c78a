// Package embedding provides cross-provider embedding helpers.
package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/askbase/internal/core/ports/driven"
)

// Ensure Limited implements the interface.
var _ driven.EmbeddingService = (*Limited)(nil)

// DefaultRequestsPerSecond is the proactive throttle applied to
// embedding providers when no rate is configured.
const DefaultRequestsPerSecond = 5.0

// Limited wraps an EmbeddingService with a token-bucket rate limiter so
// bulk ingestion does not exhaust a provider's request quota.
type Limited struct {
	inner  driven.EmbeddingService
	bucket *rate.Limiter
}

// WithRateLimit wraps service with a proactive throttle of
// requestsPerSecond. A non-positive rate falls back to the default.
func WithRateLimit(service driven.EmbeddingService, requestsPerSecond float64) *Limited {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Limited{
		inner:  service,
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Embed waits for the throttle, then delegates.
func (l *Limited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Embed(ctx, text)
}

// EmbedBatch waits for the throttle once per batch, then delegates.
// Providers that fan a batch out into multiple upstream requests apply
// their own pacing internally.
func (l *Limited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (l *Limited) Dimensions() int {
	return l.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (l *Limited) ModelName() string {
	return l.inner.ModelName()
}

// Close releases the wrapped service's resources.
func (l *Limited) Close() error {
	return l.inner.Close()
}
