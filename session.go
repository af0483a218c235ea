package moversapi

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore is the session-scoped cache consulted for navigation data
// before falling back to the live API. It is optional: a nil store disables
// the layer.
type SessionStore interface {
	// Get returns the stored payload for key if it is still fresh.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a payload under key with the given freshness window.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// sessionNavKey is the fixed slot navigation data is cached under.
const sessionNavKey = "moversapi:session:nav"

// RedisSessionStore backs the session cache with Redis; freshness is
// enforced by the key TTL.
type RedisSessionStore struct {
	client redis.Cmdable
	logger *slog.Logger
}

// NewRedisSessionStore wraps an existing Redis client.
func NewRedisSessionStore(client redis.Cmdable, logger *slog.Logger) *RedisSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSessionStore{client: client, logger: logger}
}

// Get implements SessionStore.
func (s *RedisSessionStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error("session cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set implements SessionStore. Write failures are logged and swallowed: the
// session cache is an optimization, not a source of truth.
func (s *RedisSessionStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, val, ttl).Err(); err != nil {
		s.logger.Error("session cache set failed", "key", key, "error", err)
	}
}
