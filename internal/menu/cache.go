package menu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sanmarzano/orderbot/internal/models"
	"github.com/sanmarzano/orderbot/internal/repositories"
)

// CacheStats counts the two kinds of database reads the cache performs, so
// the watermark optimization is observable.
type CacheStats struct {
	WatermarkReads int64
	FullReads      int64
}

// Cache keeps the active menu in memory. Within the TTL every read is
// served from memory. After the TTL expires the cache probes only
// max(updated_at) and reloads the full menu when that watermark moved.
type Cache struct {
	repo repositories.MenuRepository
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	items     []models.MenuItem
	fetchedAt time.Time
	watermark time.Time
	stats     CacheStats
}

func NewCache(repo repositories.MenuRepository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{repo: repo, ttl: ttl, now: time.Now}
}

// Items returns the active menu, refreshing from the database if needed.
// The returned slice is shared and must not be mutated.
func (c *Cache) Items(ctx context.Context) ([]models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.items) > 0 && now.Sub(c.fetchedAt) < c.ttl {
		return c.items, nil
	}

	if len(c.items) > 0 {
		mark, err := c.repo.MaxUpdatedAt(ctx)
		if err != nil {
			return nil, fmt.Errorf("probing menu watermark: %w", err)
		}
		c.stats.WatermarkReads++
		if mark.Equal(c.watermark) {
			c.fetchedAt = now
			return c.items, nil
		}
		c.watermark = mark
	}

	return c.reloadLocked(ctx, now)
}

// ForceReload bypasses TTL and watermark and reloads the menu.
func (c *Cache) ForceReload(ctx context.Context) ([]models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked(ctx, c.now())
}

func (c *Cache) reloadLocked(ctx context.Context, now time.Time) ([]models.MenuItem, error) {
	items, err := c.repo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading menu: %w", err)
	}
	c.stats.FullReads++
	c.items = items
	c.fetchedAt = now
	for _, it := range items {
		if it.UpdatedAt.After(c.watermark) {
			c.watermark = it.UpdatedAt
		}
	}
	return c.items, nil
}

// ItemByID looks an item up in the cached menu.
func (c *Cache) ItemByID(ctx context.Context, id string) (*models.MenuItem, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// ItemsByCategory filters the cached menu by category.
func (c *Cache) ItemsByCategory(ctx context.Context, category string) ([]models.MenuItem, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.MenuItem
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out, nil
}

// Categories returns the distinct categories present on the menu, in menu
// order.
func (c *Cache) Categories(ctx context.Context) ([]string, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		if _, ok := seen[it.Category]; !ok {
			seen[it.Category] = struct{}{}
			out = append(out, it.Category)
		}
	}
	return out, nil
}

// Stats returns a copy of the read counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// SetForTest primes the cache with a fixed menu and a far-future expiry.
func (c *Cache) SetForTest(items []models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.fetchedAt = c.now().Add(100 * time.Hour)
}
