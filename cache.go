package moversapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
)

// cacheEntry is the stored envelope. Each entry carries its own TTL, set at
// insertion time from the endpoint policy; bigcache's global life window only
// bounds the worst case.
type cacheEntry struct {
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.UnixNano() > e.ExpiresAt
}

// responseCache is the short-TTL in-memory response store keyed by endpoint
// identity. Eviction is lazy: expired entries are removed on the next read of
// their key, there is no background sweep.
type responseCache struct {
	cache   *bigcache.BigCache
	logger  *slog.Logger
	metrics *Metrics
}

func newResponseCache(logger *slog.Logger, metrics *Metrics) (*responseCache, error) {
	// Life window must exceed the longest policy TTL; per-entry expiry is
	// enforced by the envelope.
	config := bigcache.DefaultConfig(20 * time.Minute)
	config.Verbose = false
	config.MaxEntrySize = 1024 * 1024

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, err
	}

	return &responseCache{cache: cache, logger: logger, metrics: metrics}, nil
}

// Get returns the cached payload for key if present and fresh. Expired and
// corrupted entries are deleted on the spot.
func (rc *responseCache) Get(key string) ([]byte, bool) {
	data, err := rc.cache.Get(key)
	if err != nil {
		rc.metrics.cacheMiss()
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		rc.logger.Warn("dropping corrupted cache entry", "key", key, "error", err)
		_ = rc.cache.Delete(key)
		rc.metrics.cacheMiss()
		return nil, false
	}

	if entry.expired(time.Now()) {
		_ = rc.cache.Delete(key)
		rc.metrics.cacheMiss()
		return nil, false
	}

	rc.metrics.cacheHit()
	return entry.Data, true
}

// Set stores a payload under key with the given TTL. A non-positive TTL
// disables caching for the call.
func (rc *responseCache) Set(key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := time.Now()
	entry := cacheEntry{
		Data:      val,
		CreatedAt: now.UnixNano(),
		ExpiresAt: now.Add(ttl).UnixNano(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		rc.logger.Error("failed to marshal cache entry", "key", key, "error", err)
		return
	}

	if err := rc.cache.Set(key, data); err != nil {
		rc.logger.Error("failed to set cache entry", "key", key, "error", err)
	}
}

// Delete removes a single entry.
func (rc *responseCache) Delete(key string) {
	_ = rc.cache.Delete(key)
}

// Clear drops every cached response.
func (rc *responseCache) Clear() {
	if err := rc.cache.Reset(); err != nil {
		rc.logger.Error("failed to clear response cache", "error", err)
	}
}

// Close releases the underlying store.
func (rc *responseCache) Close() error {
	return rc.cache.Close()
}
