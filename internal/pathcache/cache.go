// Package pathcache memoizes parsed property paths and extraction results.
// Process-lifetime state shared across runs; a mutex guards every access so
// parallel document processing can share one cache.
package pathcache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Config tunes capacity and eviction. Zero values fall back to defaults.
type Config struct {
	// Capacity is the per-table entry limit. Eviction triggers on Set when
	// the table is full, never lazily on Get.
	Capacity int
	// TTL expires entries on Get. Zero disables expiry.
	TTL time.Duration
	// ComplexityWeighted switches eviction from pure LRU to a weighted
	// comparison where higher parse complexity plus older access goes first.
	ComplexityWeighted bool
}

const (
	defaultCapacity = 1024
	// evictFraction is the share of the table removed per eviction pass,
	// amortizing the scan cost.
	evictFraction = 10
)

type pathEntry struct {
	path         string
	expr         jp.Expr
	parseTime    time.Duration
	complexity   int
	accessCount  int
	lastAccessed time.Time
	created      time.Time
}

type extractionEntry struct {
	result       any
	dataHash     string
	pathHash     string
	timestamp    time.Time
	accessCount  int
	lastAccessed time.Time
}

// Stats is a read-only snapshot of the cache counters. The counters
// themselves stay owned by the cache and are never exposed for mutation.
type Stats struct {
	PathEntries       int
	ExtractionEntries int
	Hits              int
	Misses            int
	Evictions         int
}

// Cache memoizes jp parsing and extraction results.
type Cache struct {
	mu    sync.Mutex
	cfg   Config
	paths map[string]*pathEntry
	extr  map[string]*extractionEntry
	stats Stats
	now   func() time.Time // test seam
}

func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	return &Cache{
		cfg:   cfg,
		paths: make(map[string]*pathEntry),
		extr:  make(map[string]*extractionEntry),
		now:   time.Now,
	}
}

// ParsePath returns the parsed form of a property path, memoized. Parse
// failures are not cached; a bad path stays an error on every call.
func (c *Cache) ParsePath(path string) (jp.Expr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.paths[path]; ok {
		if c.expired(e.lastAccessed) {
			delete(c.paths, path)
		} else {
			e.accessCount++
			e.lastAccessed = c.now()
			c.stats.Hits++
			return e.expr, nil
		}
	}
	c.stats.Misses++

	start := c.now()
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	if len(c.paths) >= c.cfg.Capacity {
		c.evictPaths()
	}
	now := c.now()
	c.paths[path] = &pathEntry{
		path:         path,
		expr:         expr,
		parseTime:    now.Sub(start),
		complexity:   len(expr),
		accessCount:  1,
		lastAccessed: now,
		created:      now,
	}
	return expr, nil
}

// GetExtraction returns a memoized extraction result for a (data, path) pair.
func (c *Cache) GetExtraction(dataHash, pathHash string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dataHash + "/" + pathHash
	e, ok := c.extr[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if c.expired(e.timestamp) {
		delete(c.extr, key)
		c.stats.Misses++
		return nil, false
	}
	e.accessCount++
	e.lastAccessed = c.now()
	c.stats.Hits++
	return e.result, true
}

// SetExtraction stores an extraction result, evicting synchronously when the
// table is at capacity.
func (c *Cache) SetExtraction(dataHash, pathHash string, result any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := dataHash + "/" + pathHash
	if _, exists := c.extr[key]; !exists && len(c.extr) >= c.cfg.Capacity {
		c.evictExtractions()
	}
	now := c.now()
	c.extr[key] = &extractionEntry{
		result:       result,
		dataHash:     dataHash,
		pathHash:     pathHash,
		timestamp:    now,
		accessCount:  1,
		lastAccessed: now,
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.PathEntries = len(c.paths)
	s.ExtractionEntries = len(c.extr)
	return s
}

func (c *Cache) expired(t time.Time) bool {
	return c.cfg.TTL > 0 && c.now().Sub(t) > c.cfg.TTL
}

// evictPaths removes roughly a tenth of the path table: the least recently
// used entries, or under complexity weighting the costliest-and-coldest.
func (c *Cache) evictPaths() {
	entries := make([]*pathEntry, 0, len(c.paths))
	for _, e := range c.paths {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c.cfg.ComplexityWeighted && a.complexity != b.complexity {
			return a.complexity > b.complexity
		}
		return a.lastAccessed.Before(b.lastAccessed)
	})
	for _, e := range entries[:evictCount(len(entries))] {
		delete(c.paths, e.path)
		c.stats.Evictions++
	}
}

func (c *Cache) evictExtractions() {
	type keyed struct {
		key string
		e   *extractionEntry
	}
	entries := make([]keyed, 0, len(c.extr))
	for k, e := range c.extr {
		entries = append(entries, keyed{key: k, e: e})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].e.lastAccessed.Before(entries[j].e.lastAccessed)
	})
	for _, ke := range entries[:evictCount(len(entries))] {
		delete(c.extr, ke.key)
		c.stats.Evictions++
	}
}

func evictCount(n int) int {
	count := n / evictFraction
	if count < 1 {
		count = 1
	}
	return count
}

// HashValue fingerprints a data value for extraction-cache keys. FNV over the
// sorted JSON encoding: stable across map iteration order.
func HashValue(v any) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(oj.JSON(v, &oj.Options{Sort: true})))
	return fmt.Sprintf("%016x", h.Sum64())
}

// HashPath fingerprints a property path string.
func HashPath(path string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	return fmt.Sprintf("%016x", h.Sum64())
}
