// Package ratelimit throttles an embedding service.
//
// Ingesting a large PDF can fire hundreds of embedding calls in a burst;
// hosted providers answer that with 429s. The decorator paces calls to a
// configured requests-per-second budget instead of failing and retrying.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
)

// Ensure Limiter implements the interface.
var _ driven.EmbeddingService = (*Limiter)(nil)

// Limiter wraps an embedding service and paces Embed/EmbedBatch calls.
// Ping and the metadata accessors pass through unthrottled.
type Limiter struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap decorates inner with a requests-per-second budget. Each port call
// counts as one request regardless of batch size. A non-positive rps
// returns inner unwrapped.
func Wrap(inner driven.EmbeddingService, rps float64) driven.EmbeddingService {
	if rps <= 0 {
		return inner
	}
	// Burst of one: the first call is free, every later call is paced.
	// A burst sized to rps would let a whole second's budget through
	// instantly, which is exactly the spike being throttled.
	return &Limiter{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Embed generates a vector embedding for the given text.
func (l *Limiter) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return l.inner.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (l *Limiter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return l.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (l *Limiter) Dimensions() int {
	return l.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (l *Limiter) ModelName() string {
	return l.inner.ModelName()
}

// Ping validates the service is reachable with a lightweight request.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.inner.Ping(ctx)
}

// Close releases resources.
func (l *Limiter) Close() error {
	return l.inner.Close()
}
