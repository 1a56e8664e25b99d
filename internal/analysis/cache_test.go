package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/race-insights/internal/models"
)

// TestCacheKeyString tests cache key string representation
func TestCacheKeyString(t *testing.T) {
	key := CacheKey{RaceID: "R1C1", Fingerprint: "00000000deadbeef"}

	assert.Equal(t, "R1C1:00000000deadbeef", key.String())
}

// TestKeyForIgnoresStatistics tests that attached statistics do not change the key
func TestKeyForIgnoresStatistics(t *testing.T) {
	race := newRace(horse("A", 1, 2.0), horse("B", 2, 3.0))
	withStats := race.WithStatistics(models.RaceStatistics{FavoriteWon: true})

	k1, err := KeyFor(race)
	require.NoError(t, err)
	k2, err := KeyFor(&withStats)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

// TestKeyForChangesWithResults tests that a refreshed record gets a new key
func TestKeyForChangesWithResults(t *testing.T) {
	before := newRace(horse("A", 1, 2.0), horse("B", 2, 3.0))
	after := newRace(horse("B", 1, 3.0), horse("A", 2, 2.0))

	k1, err := KeyFor(before)
	require.NoError(t, err)
	k2, err := KeyFor(after)
	require.NoError(t, err)

	assert.Equal(t, k1.RaceID, k2.RaceID)
	assert.NotEqual(t, k1.Fingerprint, k2.Fingerprint)
}

// TestCacheGetMemoises tests hit and miss accounting
func TestCacheGetMemoises(t *testing.T) {
	cache := NewCache(nil, time.Hour, 100)
	defer cache.Clear()

	race := newRace(horse("A", 1, 2.0), horse("B", 2, 5.0), horse("C", 3, 1.5))

	first, err := cache.Get(race)
	require.NoError(t, err)
	second, err := cache.Get(race)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	hits, misses, ratio := cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 0.5, ratio, 1e-9)
	assert.Equal(t, 1, cache.ItemCount())
}

// TestCacheReturnsCopies tests that callers cannot corrupt cached insights
func TestCacheReturnsCopies(t *testing.T) {
	cache := NewCache(nil, time.Hour, 100)
	race := newRace(horse("A", 1, 2.0), horse("B", 2, 5.0), horse("C", 3, 1.5))

	first, err := cache.Get(race)
	require.NoError(t, err)
	first.KeyInsights[0] = "tampered"

	second, err := cache.Get(race)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", second.KeyInsights[0])
}

// TestCacheDoesNotStoreErrors tests that invalid races are never cached
func TestCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewCache(nil, time.Hour, 100)

	_, err := cache.Get(newRace())

	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	assert.Zero(t, cache.ItemCount())
}

// TestCacheInvalidate tests removal by race ID
func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(nil, time.Hour, 100)
	race := newRace(horse("A", 1, 2.0), horse("B", 2, 3.0))
	other := newRace(horse("C", 1, 2.0), horse("D", 2, 3.0))
	other.ID = "R2C1"

	_, err := cache.Get(race)
	require.NoError(t, err)
	_, err = cache.Get(other)
	require.NoError(t, err)
	require.Equal(t, 2, cache.ItemCount())

	cache.Invalidate(race.ID)

	assert.Equal(t, 1, cache.ItemCount())
}

// TestCacheExpiration tests cache TTL expiration
func TestCacheExpiration(t *testing.T) {
	cache := NewCache(nil, 50*time.Millisecond, 100)
	race := newRace(horse("A", 1, 2.0), horse("B", 2, 3.0))

	_, err := cache.Get(race)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)

	_, err = cache.Get(race)
	require.NoError(t, err)
	hits, misses, _ := cache.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, uint64(2), misses)
}
