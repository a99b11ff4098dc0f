package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmarket_backend/internal/models"
)

const (
	reputationKeyPrefix = "reputation:summary:"
	reputationTTL       = 15 * time.Minute
)

// ReputationCache keeps reputation summaries warm between recomputes.
// A miss returns (nil, nil); callers fall through to the repository. The
// cache is invalidated on every recompute, so the TTL is only a backstop.
type ReputationCache struct {
	cache *Cache
}

func NewReputationCache(cache *Cache) *ReputationCache {
	return &ReputationCache{cache: cache}
}

func (rc *ReputationCache) Get(ctx context.Context, userID string) (*models.ReputationSummary, error) {
	key := fmt.Sprintf("%s%s", reputationKeyPrefix, userID)

	data, err := rc.cache.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var summary models.ReputationSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (rc *ReputationCache) Set(ctx context.Context, summary *models.ReputationSummary) error {
	key := fmt.Sprintf("%s%s", reputationKeyPrefix, summary.UserID)

	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return rc.cache.Set(ctx, key, data, reputationTTL)
}

func (rc *ReputationCache) Delete(ctx context.Context, userID string) error {
	return rc.cache.Del(ctx, fmt.Sprintf("%s%s", reputationKeyPrefix, userID))
}
