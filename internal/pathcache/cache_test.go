package pathcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath_Memoizes(t *testing.T) {
	c := New(Config{})

	first, err := c.ParsePath("items[*].name")
	require.NoError(t, err)
	second, err := c.ParsePath("items[*].name")
	require.NoError(t, err)
	assert.Equal(t, first.String(), second.String())

	stats := c.Stats()
	assert.Equal(t, 1, stats.PathEntries)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
}

func TestParsePath_FailuresNotCached(t *testing.T) {
	c := New(Config{})

	_, err := c.ParsePath("items[")
	require.Error(t, err)
	_, err = c.ParsePath("items[")
	require.Error(t, err)

	stats := c.Stats()
	assert.Equal(t, 0, stats.PathEntries)
	assert.Equal(t, 2, stats.Misses)
}

func TestParsePath_TTLExpiry(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	_, err := c.ParsePath("a.b")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = c.ParsePath("a.b")
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Hits)
	assert.Equal(t, 2, stats.Misses)
}

func TestParsePath_LRUEviction(t *testing.T) {
	c := New(Config{Capacity: 10})
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	for i := 0; i < 10; i++ {
		_, err := c.ParsePath(fmt.Sprintf("field%d", i))
		require.NoError(t, err)
		clock = clock.Add(time.Second)
	}
	// field0 is the coldest; the next insert evicts one entry.
	_, err := c.ParsePath("overflow")
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 10, stats.PathEntries)
	assert.Equal(t, 1, stats.Evictions)

	// Re-parsing field0 should be a miss.
	before := c.Stats().Misses
	_, err = c.ParsePath("field0")
	require.NoError(t, err)
	assert.Equal(t, before+1, c.Stats().Misses)
}

func TestParsePath_ComplexityWeightedEviction(t *testing.T) {
	c := New(Config{Capacity: 10, ComplexityWeighted: true})
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	// Nine cheap paths and one deep path; the deep one sorts first under
	// complexity weighting even though it is the most recently used.
	for i := 0; i < 9; i++ {
		_, err := c.ParsePath(fmt.Sprintf("f%d", i))
		require.NoError(t, err)
		clock = clock.Add(time.Second)
	}
	_, err := c.ParsePath("a.b.c.d.e.f.g")
	require.NoError(t, err)
	clock = clock.Add(time.Second)

	_, err = c.ParsePath("overflow")
	require.NoError(t, err)

	before := c.Stats().Misses
	_, err = c.ParsePath("a.b.c.d.e.f.g")
	require.NoError(t, err)
	assert.Equal(t, before+1, c.Stats().Misses, "deep path should have been evicted")
}

func TestExtractionCache_RoundTrip(t *testing.T) {
	c := New(Config{})
	dh := HashValue(map[string]any{"name": "a"})
	ph := HashPath("$.frontmatter")

	_, ok := c.GetExtraction(dh, ph)
	assert.False(t, ok)

	c.SetExtraction(dh, ph, map[string]any{"name": "a"})
	got, ok := c.GetExtraction(dh, ph)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "a"}, got)
}

func TestExtractionCache_TTL(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.SetExtraction("d", "p", "value")
	clock = clock.Add(2 * time.Minute)

	_, ok := c.GetExtraction("d", "p")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().ExtractionEntries)
}

func TestExtractionCache_Eviction(t *testing.T) {
	c := New(Config{Capacity: 5})
	clock := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	for i := 0; i < 5; i++ {
		c.SetExtraction(fmt.Sprintf("d%d", i), "p", i)
		clock = clock.Add(time.Second)
	}
	c.SetExtraction("d-new", "p", "new")

	stats := c.Stats()
	assert.Equal(t, 5, stats.ExtractionEntries)
	assert.Equal(t, 1, stats.Evictions)

	_, ok := c.GetExtraction("d0", "p")
	assert.False(t, ok, "coldest entry should be gone")
	_, ok = c.GetExtraction("d-new", "p")
	assert.True(t, ok)
}

func TestHashValue_OrderIndependent(t *testing.T) {
	a := HashValue(map[string]any{"a": 1.0, "b": 2.0})
	b := HashValue(map[string]any{"b": 2.0, "a": 1.0})
	assert.Equal(t, a, b)

	c := HashValue(map[string]any{"a": 1.0, "b": 3.0})
	assert.NotEqual(t, a, c)
}

func TestHashPath(t *testing.T) {
	assert.Equal(t, HashPath("a.b"), HashPath("a.b"))
	assert.NotEqual(t, HashPath("a.b"), HashPath("a.c"))
	assert.Len(t, HashPath("x"), 16)
}

func TestEvictCount(t *testing.T) {
	assert.Equal(t, 1, evictCount(5))
	assert.Equal(t, 1, evictCount(10))
	assert.Equal(t, 10, evictCount(100))
}
