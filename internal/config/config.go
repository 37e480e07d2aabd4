// Package config loads pipeline tunables from an HCL file. Every knob has a
// default; a missing file or block leaves the defaults in place.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/pathcache"
)

// Config is the root of the mdforge.hcl file.
type Config struct {
	Detector *DetectorBlock `hcl:"detector,block"`
	Pipeline *PipelineBlock `hcl:"pipeline,block"`
	Cache    *CacheBlock    `hcl:"cache,block"`
}

// DetectorBlock tunes structure detection. MinMatches is the pattern-fallback
// threshold the schema format treats as configuration, not a constant.
type DetectorBlock struct {
	SequentialPatterns []string `hcl:"sequential_patterns,optional"`
	NamedPatterns      []string `hcl:"named_patterns,optional"`
	CustomPatterns     []string `hcl:"custom_patterns,optional"`
	MinMatches         int      `hcl:"min_matches,optional"`
}

// PipelineBlock tunes processing strategy selection.
type PipelineBlock struct {
	Strategy            string `hcl:"strategy,optional"` // sequential | parallel | adaptive
	SequentialThreshold int    `hcl:"sequential_threshold,optional"`
	ParallelThreshold   int    `hcl:"parallel_threshold,optional"`
	ParallelWorkers     int    `hcl:"parallel_workers,optional"`
	AdaptiveBaseWorkers int    `hcl:"adaptive_base_workers,optional"`
}

// CacheBlock tunes the path cache.
type CacheBlock struct {
	Capacity           int  `hcl:"capacity,optional"`
	TTLSeconds         int  `hcl:"ttl_seconds,optional"`
	ComplexityWeighted bool `hcl:"complexity_weighted,optional"`
}

// Default returns the shipped configuration.
func Default() *Config {
	dc := detect.DefaultConfig()
	return &Config{
		Detector: &DetectorBlock{
			SequentialPatterns: dc.SequentialPatterns,
			NamedPatterns:      dc.NamedPatterns,
			MinMatches:         dc.MinMatches,
		},
		Pipeline: &PipelineBlock{
			SequentialThreshold: 5,
			ParallelThreshold:   20,
			ParallelWorkers:     4,
			AdaptiveBaseWorkers: 8,
		},
		Cache: &CacheBlock{Capacity: 1024, TTLSeconds: 300},
	}
}

// Load reads an HCL config file and overlays it on the defaults. An empty
// path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	var loaded Config
	if err := hclsimple.DecodeFile(path, nil, &loaded); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	merge(cfg, &loaded)
	return cfg, nil
}

func merge(dst, src *Config) {
	if src.Detector != nil {
		d := dst.Detector
		s := src.Detector
		if len(s.SequentialPatterns) > 0 {
			d.SequentialPatterns = s.SequentialPatterns
		}
		if len(s.NamedPatterns) > 0 {
			d.NamedPatterns = s.NamedPatterns
		}
		if len(s.CustomPatterns) > 0 {
			d.CustomPatterns = s.CustomPatterns
		}
		if s.MinMatches > 0 {
			d.MinMatches = s.MinMatches
		}
	}
	if src.Pipeline != nil {
		d := dst.Pipeline
		s := src.Pipeline
		if s.Strategy != "" {
			d.Strategy = s.Strategy
		}
		if s.SequentialThreshold > 0 {
			d.SequentialThreshold = s.SequentialThreshold
		}
		if s.ParallelThreshold > 0 {
			d.ParallelThreshold = s.ParallelThreshold
		}
		if s.ParallelWorkers > 0 {
			d.ParallelWorkers = s.ParallelWorkers
		}
		if s.AdaptiveBaseWorkers > 0 {
			d.AdaptiveBaseWorkers = s.AdaptiveBaseWorkers
		}
	}
	if src.Cache != nil {
		d := dst.Cache
		s := src.Cache
		if s.Capacity > 0 {
			d.Capacity = s.Capacity
		}
		if s.TTLSeconds > 0 {
			d.TTLSeconds = s.TTLSeconds
		}
		if s.ComplexityWeighted {
			d.ComplexityWeighted = true
		}
	}
}

// DetectorConfig converts the block to the detector's config type.
func (c *Config) DetectorConfig() detect.Config {
	b := c.Detector
	return detect.Config{
		SequentialPatterns: b.SequentialPatterns,
		NamedPatterns:      b.NamedPatterns,
		CustomPatterns:     b.CustomPatterns,
		MinMatches:         b.MinMatches,
	}
}

// CacheConfig converts the block to the path cache's config type.
func (c *Config) CacheConfig() pathcache.Config {
	b := c.Cache
	return pathcache.Config{
		Capacity:           b.Capacity,
		TTL:                time.Duration(b.TTLSeconds) * time.Second,
		ComplexityWeighted: b.ComplexityWeighted,
	}
}
