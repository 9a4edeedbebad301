package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campusportal/internal/model"
)

const (
	profileKeyPrefix = "profile:"
	// ProfileTTL bounds how long a cached public view may be served.
	ProfileTTL = 5 * time.Minute
)

// ProfileCache caches public user views by id.
type ProfileCache interface {
	GetProfile(ctx context.Context, id string) (*model.PublicUser, bool)
	SetProfile(ctx context.Context, user model.PublicUser)
}

// Client wraps redis.Client but fails safe by treating every redis error as
// a cache miss. A nil *Client is a valid, always-missing cache.
type Client struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

var _ ProfileCache = (*Client)(nil)

// New creates a new Redis-backed cache. It returns nil when addr is empty.
func New(addr, password string, db int, logger *zap.Logger) *Client {
	if addr == "" {
		return nil
	}
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger: logger.Named("cache"),
		ttl:    ProfileTTL,
	}
}

// Ping reports whether redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetProfile returns the cached view and whether it was found.
func (c *Client) GetProfile(ctx context.Context, id string) (*model.PublicUser, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, profileKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}

	var user model.PublicUser
	if err := json.Unmarshal(data, &user); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("user_id", id), zap.Error(err))
		return nil, false
	}
	return &user, true
}

// SetProfile stores the view, ignoring redis errors.
func (c *Client) SetProfile(ctx context.Context, user model.PublicUser) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileKeyPrefix+user.ID, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("user_id", user.ID), zap.Error(err))
	}
}
