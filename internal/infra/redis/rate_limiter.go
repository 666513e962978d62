package redis

import (
	"context"
	"time"

	"course-settlement/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	n, err := r.client.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

// CouponValidateKey scopes the coupon validation limit to one user.
func CouponValidateKey(userID string) string {
	return "rate_limit:coupon_validate:" + userID
}
