package adapter

import (
	"context"
	"time"
)

// EventPublisher delivers relayed outbox events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, eventType string, payload []byte) error
	Close() error
}

// Locker is a short-lived distributed mutex.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter admits at most `limit` calls per key within `window`.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
