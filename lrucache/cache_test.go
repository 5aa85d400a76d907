/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type testResult struct {
	Filename string
}

func TestLRUCache(t *testing.T) {
	results := map[[sha256.Size]byte]testResult{
		sha256.Sum256([]byte("doc:1")):   {"a.txt"},
		sha256.Sum256([]byte("doc:42")):  {"b.txt"},
		sha256.Sum256([]byte("doc:777")): {"c.txt"},
	}
	fillCache := func(cache *LRUCache[[sha256.Size]byte, testResult]) {
		for _, key := range []string{"doc:1", "doc:42", "doc:777"} {
			k := sha256.Sum256([]byte(key))
			cache.Add(k, results[k])
		}
	}

	tests := []struct {
		name        string
		maxEntries  int
		fn          func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult])
		wantMetrics testMetrics
	}{
		{
			name:       "attempt to get not existing keys",
			maxEntries: 100,
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				for key := range results {
					_, found := cache.Get(key)
					require.False(t, found)
				}
			},
			wantMetrics: testMetrics{Misses: len(results)},
		},
		{
			name:       "add entries and get them",
			maxEntries: 100,
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				fillCache(cache)
				for key, want := range results {
					val, found := cache.Get(key)
					require.True(t, found)
					require.Equal(t, want, val)
				}
			},
			wantMetrics: testMetrics{Amount: len(results), Hits: len(results)},
		},
		{
			name:       "add entries with evictions",
			maxEntries: len(results) - 1,
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				fillCache(cache) // "doc:1" is evicted
				for key, want := range results {
					val, found := cache.Get(key)
					if key == sha256.Sum256([]byte("doc:1")) {
						require.False(t, found)
						continue
					}
					require.True(t, found)
					require.Equal(t, want, val)
				}
			},
			wantMetrics: testMetrics{Amount: len(results) - 1, Hits: len(results) - 1, Misses: 1, Evictions: 1},
		},
		{
			name:       "recently used entry survives",
			maxEntries: len(results),
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				fillCache(cache)
				_, found := cache.Get(sha256.Sum256([]byte("doc:1")))
				require.True(t, found)
				cache.Add(sha256.Sum256([]byte("doc:new")), testResult{"new.txt"}) // "doc:42" is evicted
				_, found = cache.Get(sha256.Sum256([]byte("doc:42")))
				require.False(t, found)
				_, found = cache.Get(sha256.Sum256([]byte("doc:1")))
				require.True(t, found)
			},
			wantMetrics: testMetrics{Amount: len(results), Hits: 2, Misses: 1, Evictions: 1},
		},
		{
			name:       "remove entries",
			maxEntries: 100,
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				fillCache(cache)
				require.False(t, cache.Remove(sha256.Sum256([]byte("doc:100500"))))
				require.True(t, cache.Remove(sha256.Sum256([]byte("doc:42"))))
				require.Equal(t, len(results)-1, cache.Len())
			},
			wantMetrics: testMetrics{Amount: len(results) - 1},
		},
		{
			name:       "purge",
			maxEntries: 100,
			fn: func(t *testing.T, cache *LRUCache[[sha256.Size]byte, testResult]) {
				fillCache(cache)
				cache.Purge()
				require.Zero(t, cache.Len())
			},
			wantMetrics: testMetrics{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := NewPrometheusMetrics()
			cache, err := New[[sha256.Size]byte, testResult](tt.maxEntries, mc)
			require.NoError(t, err)
			tt.fn(t, cache)
			assertMetrics(t, tt.wantMetrics, mc)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := New[string, int](0, nil)
	require.EqualError(t, err, "maxEntries must be greater than 0")

	_, err = NewWithOpts[string, int](10, nil, Options{DefaultTTL: -time.Second})
	require.Error(t, err)
}

func TestLRUCacheTTL(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache, err := NewWithOpts[string, int](10, nil, Options{
		DefaultTTL: time.Minute,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	cache.Add("k", 1)
	now = now.Add(59 * time.Second)
	v, ok := cache.Get("k")
	require.True(t, ok)
	require.Equal(t, 1, v)

	now = now.Add(time.Second)
	_, ok = cache.Get("k")
	require.False(t, ok)
	require.Zero(t, cache.Len())
}

func TestLRUCacheGetOrAdd(t *testing.T) {
	cache, err := New[string, int](10, nil)
	require.NoError(t, err)

	v, exists := cache.GetOrAdd("k", func() int { return 1 })
	require.False(t, exists)
	require.Equal(t, 1, v)

	v, exists = cache.GetOrAdd("k", func() int { return 2 })
	require.True(t, exists)
	require.Equal(t, 1, v)
}

func TestLRUCacheGetOrLoad(t *testing.T) {
	t.Run("concurrent loads are deduplicated", func(t *testing.T) {
		cache, err := New[string, string](10, nil)
		require.NoError(t, err)

		var loads atomic.Int32
		release := make(chan struct{})
		load := func(key string) (string, error) {
			loads.Inc()
			<-release
			return "converted " + key, nil
		}

		const callers = 10
		var wg sync.WaitGroup
		var started sync.WaitGroup
		started.Add(callers)
		results := make([]string, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				started.Done()
				v, _, loadErr := cache.GetOrLoad("a.pdf", load)
				assert.NoError(t, loadErr)
				results[i] = v
			}(i)
		}
		started.Wait()
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			require.Equal(t, "converted a.pdf", v)
		}
		require.LessOrEqual(t, int(loads.Load()), callers)
		v, exists, err := cache.GetOrLoad("a.pdf", load)
		require.NoError(t, err)
		require.True(t, exists)
		require.Equal(t, "converted a.pdf", v)
	})

	t.Run("failed load is not cached", func(t *testing.T) {
		cache, err := New[string, string](10, nil)
		require.NoError(t, err)

		loadErr := errors.New("broken document")
		_, _, err = cache.GetOrLoad("a.pdf", func(string) (string, error) { return "", loadErr })
		require.ErrorIs(t, err, loadErr)
		require.Zero(t, cache.Len())
	})
}

type testMetrics struct {
	Amount    int
	Hits      int
	Misses    int
	Evictions int
}

func assertMetrics(t *testing.T, want testMetrics, mc *PrometheusMetrics) {
	t.Helper()
	assert.Equal(t, want.Amount, int(testutil.ToFloat64(mc.EntriesAmount)))
	assert.Equal(t, want.Hits, int(testutil.ToFloat64(mc.HitsTotal)))
	assert.Equal(t, want.Misses, int(testutil.ToFloat64(mc.MissesTotal)))
	assert.Equal(t, want.Evictions, int(testutil.ToFloat64(mc.EvictionsTotal)))
}
