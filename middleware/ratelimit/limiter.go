package ratelimit

import "context"

// Limiter decides whether one more inbound frame from key is allowed.
type Limiter interface {
	// Allow consumes one unit of the key's budget if any is left.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset forgets the key, e.g. once its connection closed.
	Reset(ctx context.Context, key string) error
}
