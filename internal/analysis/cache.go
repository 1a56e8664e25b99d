package analysis

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/race-insights/internal/metrics"
	"github.com/yourusername/race-insights/internal/models"
)

// CacheKey identifies one analysis: the race plus a fingerprint of its content,
// so a refreshed record with changed results misses the cache
type CacheKey struct {
	RaceID      string
	Fingerprint string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.RaceID, k.Fingerprint)
}

// KeyFor builds the cache key of a race
func KeyFor(race *models.RaceRecord) (CacheKey, error) {
	content := *race
	content.Statistics = nil
	data, err := json.Marshal(content)
	if err != nil {
		return CacheKey{}, fmt.Errorf("failed to fingerprint race %s: %w", race.ID, err)
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return CacheKey{RaceID: race.ID, Fingerprint: fmt.Sprintf("%016x", h.Sum64())}, nil
}

// Cache memoises analyses in memory
type Cache struct {
	cache     *cache.Cache
	generator *Generator
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewCache creates a new analysis cache
func NewCache(generator *Generator, ttl time.Duration, maxSize int) *Cache {
	if generator == nil {
		generator = defaultGenerator
	}
	return &Cache{
		cache:     cache.New(ttl, ttl*2),
		generator: generator,
		ttl:       ttl,
		maxSize:   maxSize,
	}
}

// Get returns the analysis of a race, generating and storing it on a miss.
// Generation errors are returned and never cached.
func (c *Cache) Get(race *models.RaceRecord) (models.Analysis, error) {
	if race == nil {
		return c.generator.Generate(race)
	}
	key, err := KeyFor(race)
	if err != nil {
		return models.Analysis{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, found := c.cache.Get(key.String()); found {
		if a, ok := cached.(models.Analysis); ok {
			c.hitCount++
			c.updateMetrics()
			return copyAnalysis(a), nil
		}
	}

	c.missCount++
	c.updateMetrics()

	a, err := c.generator.Generate(race)
	if err != nil {
		return models.Analysis{}, err
	}
	metrics.RecordAnalysisGenerated()

	if c.maxSize > 0 && c.cache.ItemCount() >= c.maxSize {
		c.cache.DeleteExpired()
		if c.cache.ItemCount() >= c.maxSize {
			c.cache.Flush()
		}
	}
	c.cache.Set(key.String(), a, c.ttl)

	return copyAnalysis(a), nil
}

// Invalidate removes every cached analysis of a race
func (c *Cache) Invalidate(raceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := raceID + ":"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.hitCount = 0
	c.missCount = 0
}

// Stats returns cache statistics
func (c *Cache) Stats() (hits, misses uint64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats()
}

func (c *Cache) stats() (hits, misses uint64, ratio float64) {
	hits = c.hitCount
	misses = c.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (c *Cache) updateMetrics() {
	_, _, ratio := c.stats()
	metrics.UpdateAnalysisCacheHitRatio(ratio)
}

// ItemCount returns the number of items in cache
func (c *Cache) ItemCount() int {
	return c.cache.ItemCount()
}

func copyAnalysis(a models.Analysis) models.Analysis {
	insights := make([]string, len(a.KeyInsights))
	copy(insights, a.KeyInsights)
	a.KeyInsights = insights
	return a
}
