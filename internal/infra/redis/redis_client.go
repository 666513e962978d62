package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"course-settlement/internal/config"
)

// RedisClient is the subset of commands the service uses.
type RedisClient interface {
	Ping(ctx context.Context) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// IncrWindow increments key and makes sure it expires within window.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

var _ RedisClient = (*Client)(nil)

type Client struct {
	cli *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{cli: c}, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, expiration).Result()
}

// luaIncrWindow runs INCR and PEXPIRE as one step. A key left without a TTL
// (pttl -1) gets one too, so a counter can never outlive its window.
var luaIncrWindow = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) == -1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n`)

func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return luaIncrWindow.Run(ctx, c.cli, []string{key}, window.Milliseconds()).Int64()
}

func (c *Client) Close() error { return c.cli.Close() }
