package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

// searchPageTTL keeps cached first pages short-lived; the matrix view is
// rebuilt by reconciliation runs and the cache must never outlive staleness
// tolerances by much.
const searchPageTTL = 2 * time.Minute

// SearchPage is a cached first page of search results.
type SearchPage struct {
	Rows       []models.MatrixEntry `json:"rows"`
	NextCursor *string              `json:"nextCursor,omitempty"`
	CachedAt   time.Time            `json:"cachedAt"`
}

// SearchCache caches first-page search results by normalized query. Only
// cursor-less requests are cached; resumed pages always hit the store.
type SearchCache struct {
	redis *RedisClient
}

// NewSearchCache creates a new SearchCache.
func NewSearchCache(redis *RedisClient) *SearchCache {
	return &SearchCache{redis: redis}
}

func (c *SearchCache) key(normalizedQuery string, limit int) string {
	return fmt.Sprintf("matrix:search:%s:%d", normalizedQuery, limit)
}

// Get returns the cached page for a query, or (nil, nil) on a miss.
func (c *SearchCache) Get(ctx context.Context, normalizedQuery string, limit int) (*SearchPage, error) {
	raw, err := c.redis.Get(ctx, c.key(normalizedQuery, limit))
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var page SearchPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached search page: %w", err)
	}
	return &page, nil
}

// Set stores a first page of results.
func (c *SearchCache) Set(ctx context.Context, normalizedQuery string, limit int, page *SearchPage) error {
	page.CachedAt = time.Now()

	jsonData, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal search page: %w", err)
	}
	return c.redis.Set(ctx, c.key(normalizedQuery, limit), string(jsonData), searchPageTTL)
}
