// Package cache memoizes external classifications in Redis so a story seen
// again within the TTL does not cost another model call.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

const keyPrefix = "mentionmonitor:classification:"

// ClassifierCache decorates an external classifier with a Redis read-through cache.
type ClassifierCache struct {
	next   ports.ExternalClassifier
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ExternalClassifier = (*ClassifierCache)(nil)

// NewClassifierCache wraps next. A zero TTL keeps entries for 72 hours.
func NewClassifierCache(next ports.ExternalClassifier, rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *ClassifierCache {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &ClassifierCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Classify returns the cached verdict for in.Key or asks the wrapped
// classifier. Redis failures degrade to an uncached call.
func (c *ClassifierCache) Classify(ctx context.Context, in domain.ClassificationInput) (domain.ClassificationResult, error) {
	if c.next == nil {
		return domain.ClassificationResult{}, errors.New("no classifier behind cache")
	}
	if in.Key == "" || c.rdb == nil {
		return c.next.Classify(ctx, in)
	}

	key := keyPrefix + in.Key
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res domain.ClassificationResult
		if jsonErr := json.Unmarshal(data, &res); jsonErr == nil {
			c.debug("classification cache hit", "key", in.Key)
			return res, nil
		}
		c.debug("discarding unreadable cache entry", "key", in.Key)
	case !errors.Is(err, redis.Nil):
		c.debug("classification cache unavailable", "err", err)
	}

	res, err := c.next.Classify(ctx, in)
	if err != nil {
		return res, err
	}
	if cacheable(res) {
		if err := c.store(ctx, key, res); err != nil {
			c.debug("classification cache write failed", "key", in.Key, "err", err)
		}
	}
	return res, nil
}

func (c *ClassifierCache) store(ctx context.Context, key string, res domain.ClassificationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode classification: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// cacheable keeps replies with unknown enum values out of the cache.
func cacheable(res domain.ClassificationResult) bool {
	_, e1 := domain.ParseSentiment(string(res.Sentiment))
	_, e2 := domain.ParseSeverity(string(res.Severity))
	_, e3 := domain.ParseCategory(string(res.Category))
	return errors.Join(e1, e2, e3) == nil
}

func (c *ClassifierCache) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
