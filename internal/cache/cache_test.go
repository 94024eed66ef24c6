package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/bibliofile/internal/testutil"
)

type cachedBook struct {
	ISBN13 string `json:"isbn13"`
	Title  string `json:"title"`
}

func newTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	ValidCacheTableNames["test_cache"] = true
	t.Cleanup(func() { delete(ValidCacheTableNames, "test_cache") })

	env := testutil.NewTestEnv(t)
	cache, err := NewCacheDB(env.Path("test_cache.db"))
	require.NoError(t, err, "failed to create cache database")
	t.Cleanup(func() { _ = cache.Close() })

	schema := `
		CREATE TABLE IF NOT EXISTS test_cache (
			cache_key TEXT PRIMARY KEY NOT NULL,
			data TEXT NOT NULL,
			cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	require.NoError(t, cache.CreateTable(schema))

	viper.Set("cache.ttl", "1h")

	return cache
}

// installGlobalCache points the package-level cache at the test instance.
// Must run before the first GetOrFetch in the test.
func installGlobalCache(t *testing.T, cache *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = cache
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

func backdateEntry(t *testing.T, cache *CacheDB, key string, age time.Duration) {
	t.Helper()

	_, err := cache.db.Exec("UPDATE test_cache SET cached_at = ? WHERE cache_key = ?",
		time.Now().Add(-age).UTC(), key)
	require.NoError(t, err)
}

func TestGetOrFetchCacheHit(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Set("test_cache", "isbn:9780553293357", `{"isbn13":"9780553293357","title":"Foundation"}`))
	installGlobalCache(t, cache)

	fetchCalled := false
	result, fromCache, err := GetOrFetch("test_cache", "isbn:9780553293357", func() (cachedBook, error) {
		fetchCalled = true
		return cachedBook{}, nil
	})

	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.False(t, fetchCalled, "fetch must not run on a cache hit")
	assert.Equal(t, cachedBook{ISBN13: "9780553293357", Title: "Foundation"}, result)
}

func TestGetOrFetchCacheMissThenHit(t *testing.T) {
	cache := newTestCache(t)
	installGlobalCache(t, cache)

	want := cachedBook{ISBN13: "9780451524935", Title: "1984"}
	fetchCalls := 0
	fetch := func() (cachedBook, error) {
		fetchCalls++
		return want, nil
	}

	result, fromCache, err := GetOrFetch("test_cache", "isbn:9780451524935", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, fetchCalls)
	assert.Equal(t, want, result)
	assert.True(t, cache.CacheExists("test_cache", "isbn:9780451524935"))

	result, fromCache, err = GetOrFetch("test_cache", "isbn:9780451524935", fetch)
	require.NoError(t, err)
	assert.True(t, fromCache, "second call must come from cache")
	assert.Equal(t, 1, fetchCalls, "fetch must not run again")
	assert.Equal(t, want, result)
}

func TestGetOrFetchRefreshesExpiredEntry(t *testing.T) {
	cache := newTestCache(t)
	installGlobalCache(t, cache)

	require.NoError(t, cache.Set("test_cache", "isbn:123", `{"isbn13":"123","title":"stale"}`))
	backdateEntry(t, cache, "isbn:123", 2*time.Hour)
	viper.Set("cache.ttl", "1h")

	fresh := cachedBook{ISBN13: "123", Title: "Fresh"}
	fetchCalls := 0
	result, fromCache, err := GetOrFetch("test_cache", "isbn:123", func() (cachedBook, error) {
		fetchCalls++
		return fresh, nil
	})

	require.NoError(t, err)
	assert.False(t, fromCache, "expired entry must not count as a hit")
	assert.Equal(t, 1, fetchCalls)
	assert.Equal(t, fresh, result)

	raw, hit, err := cache.Get("test_cache", "isbn:123", time.Hour)
	require.NoError(t, err)
	require.True(t, hit, "refreshed value must be stored")

	var stored cachedBook
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, fresh, stored)
}

func TestGetOrFetchPropagatesFetchError(t *testing.T) {
	cache := newTestCache(t)
	installGlobalCache(t, cache)

	result, fromCache, err := GetOrFetch("test_cache", "isbn:err", func() (cachedBook, error) {
		return cachedBook{}, errors.New("upstream unavailable")
	})

	require.Error(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, cachedBook{}, result)
}

func TestCacheDBGetSet(t *testing.T) {
	cache := newTestCache(t)

	payload := `{"isbn13":"9780553293357","title":"Foundation"}`
	require.NoError(t, cache.Set("test_cache", "k", payload))

	data, hit, err := cache.Get("test_cache", "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload, data)
}

func TestCacheDBGetExpired(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Set("test_cache", "k", `{"title":"old"}`))
	backdateEntry(t, cache, "k", 2*time.Hour)

	data, hit, err := cache.Get("test_cache", "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, data)
}

func TestCacheDBClearExpired(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Set("test_cache", "old", `{"id":1}`))
	require.NoError(t, cache.Set("test_cache", "recent", `{"id":2}`))
	require.NoError(t, cache.Set("test_cache", "new", `{"id":3}`))
	backdateEntry(t, cache, "old", 2*time.Hour)
	backdateEntry(t, cache, "recent", 30*time.Minute)

	require.NoError(t, cache.ClearExpired("test_cache", 45*time.Minute))

	assert.False(t, cache.CacheExists("test_cache", "old"))
	assert.True(t, cache.CacheExists("test_cache", "recent"))
	assert.True(t, cache.CacheExists("test_cache", "new"))
}

func TestCacheDBClearAll(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Set("test_cache", "k1", `{"id":1}`))
	require.NoError(t, cache.Set("test_cache", "k2", `{"id":2}`))

	require.NoError(t, cache.ClearAll("test_cache"))

	assert.False(t, cache.CacheExists("test_cache", "k1"))
	assert.False(t, cache.CacheExists("test_cache", "k2"))
}

func TestCacheDBCacheExists(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Set("test_cache", "present", `{"id":1}`))

	assert.True(t, cache.CacheExists("test_cache", "present"))
	assert.False(t, cache.CacheExists("test_cache", "absent"))
}

func TestCacheDBInvalidateSource(t *testing.T) {
	t.Run("deletes all rows", func(t *testing.T) {
		cache := newTestCache(t)
		for _, k := range []string{"k1", "k2", "k3"} {
			require.NoError(t, cache.Set("test_cache", k, `{}`))
		}

		deleted, err := cache.InvalidateSource("test_cache")
		require.NoError(t, err)
		assert.EqualValues(t, 3, deleted)
		assert.False(t, cache.CacheExists("test_cache", "k1"))
	})

	t.Run("empty table deletes nothing", func(t *testing.T) {
		cache := newTestCache(t)

		deleted, err := cache.InvalidateSource("test_cache")
		require.NoError(t, err)
		assert.EqualValues(t, 0, deleted)
	})

	t.Run("unknown table rejected", func(t *testing.T) {
		cache := newTestCache(t)

		_, err := cache.InvalidateSource("invalid_table")
		require.Error(t, err)
	})
}

func TestCacheDBQueryRowAndExec(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Set("test_cache", "k", `{"title":"Dune"}`))

	var key, data string
	row := cache.QueryRow("SELECT cache_key, data FROM test_cache WHERE cache_key = ?", "k")
	require.NoError(t, row.Scan(&key, &data))
	assert.Equal(t, "k", key)
	assert.Equal(t, `{"title":"Dune"}`, data)

	require.NoError(t, cache.Exec("UPDATE test_cache SET data = ? WHERE cache_key = ?", `{"title":"Dune Messiah"}`, "k"))

	row = cache.QueryRow("SELECT data FROM test_cache WHERE cache_key = ?", "k")
	require.NoError(t, row.Scan(&data))
	assert.Equal(t, `{"title":"Dune Messiah"}`, data)

	row = cache.QueryRow("SELECT data FROM test_cache WHERE cache_key = ?", "missing")
	assert.ErrorIs(t, row.Scan(&data), sql.ErrNoRows)
}

func TestCacheDBStats(t *testing.T) {
	t.Run("counts rows and finds oldest entry", func(t *testing.T) {
		cache := newTestCache(t)
		require.NoError(t, cache.Set("test_cache", "k1", `{"id":1}`))
		require.NoError(t, cache.Set("test_cache", "k2", `{"id":2}`))
		require.NoError(t, cache.Set("test_cache", "k3", `{"id":3}`))
		backdateEntry(t, cache, "k1", 2*time.Hour)

		stats := cache.Stats()

		// Only tables present in this database file are reported.
		require.Len(t, stats, 1)
		assert.Equal(t, "test_cache", stats[0].Table)
		assert.EqualValues(t, 3, stats[0].Rows)
		assert.WithinDuration(t, time.Now().Add(-2*time.Hour), stats[0].Oldest, time.Minute)
	})

	t.Run("empty table reports zero rows", func(t *testing.T) {
		cache := newTestCache(t)

		stats := cache.Stats()

		require.Len(t, stats, 1)
		assert.Equal(t, "test_cache", stats[0].Table)
		assert.EqualValues(t, 0, stats[0].Rows)
		assert.True(t, stats[0].Oldest.IsZero())
	})
}

func TestSelectNegativeCacheTTL(t *testing.T) {
	type lookupResult struct {
		Title    string
		NotFound bool
	}

	selector := SelectNegativeCacheTTL(func(r lookupResult) bool { return r.NotFound })

	assert.Equal(t, NegativeCacheTTL, selector(lookupResult{NotFound: true}))
	assert.Equal(t, DefaultCacheTTL, selector(lookupResult{Title: "Foundation"}))
}

func TestGetOrFetchWithPolicy(t *testing.T) {
	t.Run("nil policy caches everything", func(t *testing.T) {
		cache := newTestCache(t)
		installGlobalCache(t, cache)

		want := cachedBook{ISBN13: "9780553293357", Title: "Foundation"}
		fetchCalls := 0
		fetch := func() (cachedBook, error) {
			fetchCalls++
			return want, nil
		}

		_, fromCache, err := GetOrFetchWithPolicy("test_cache", "k", fetch, nil)
		require.NoError(t, err)
		assert.False(t, fromCache)
		assert.True(t, cache.CacheExists("test_cache", "k"))

		result, fromCache, err := GetOrFetchWithPolicy("test_cache", "k", fetch, nil)
		require.NoError(t, err)
		assert.True(t, fromCache)
		assert.Equal(t, 1, fetchCalls)
		assert.Equal(t, want, result)
	})

	t.Run("policy can skip caching", func(t *testing.T) {
		cache := newTestCache(t)
		installGlobalCache(t, cache)

		fetchCalls := 0
		fetch := func() (cachedBook, error) {
			fetchCalls++
			return cachedBook{}, nil
		}
		shouldCache := func(b cachedBook) bool { return b.ISBN13 != "" }

		_, fromCache, err := GetOrFetchWithPolicy("test_cache", "empty", fetch, shouldCache)
		require.NoError(t, err)
		assert.False(t, fromCache)
		assert.False(t, cache.CacheExists("test_cache", "empty"), "empty result must not be cached")

		_, fromCache, err = GetOrFetchWithPolicy("test_cache", "empty", fetch, shouldCache)
		require.NoError(t, err)
		assert.False(t, fromCache)
		assert.Equal(t, 2, fetchCalls, "uncached result fetches again")
	})
}

func TestGetOrFetchWithTTLNegativeCaching(t *testing.T) {
	cache := newTestCache(t)
	installGlobalCache(t, cache)

	type lookupResult struct {
		Title    string
		NotFound bool
	}
	selector := SelectNegativeCacheTTL(func(r lookupResult) bool { return r.NotFound })

	result, fromCache, err := GetOrFetchWithTTL("test_cache", "isbn:missing", func() (lookupResult, error) {
		return lookupResult{NotFound: true}, nil
	}, selector)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.True(t, result.NotFound)
	assert.True(t, cache.CacheExists("test_cache", "isbn:missing"), "not-found results are cached too")

	result, fromCache, err = GetOrFetchWithTTL("test_cache", "isbn:found", func() (lookupResult, error) {
		return lookupResult{Title: "The Count of Monte Cristo"}, nil
	}, selector)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.False(t, result.NotFound)
	assert.Equal(t, "The Count of Monte Cristo", result.Title)
	assert.True(t, cache.CacheExists("test_cache", "isbn:found"))
}
