// Package pipeline sequences the document transformation: validation-rule
// adjustment, strategy selection, per-document extraction and validation,
// optional aggregation, and base-property population. Per-document failures
// degrade, configuration failures abort.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	billy "github.com/go-git/go-billy/v5"
	"golang.org/x/sync/errgroup"

	"github.com/scribeworks/mdforge/api"
	"github.com/scribeworks/mdforge/internal/config"
	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/directive"
	"github.com/scribeworks/mdforge/internal/frontmatter"
	"github.com/scribeworks/mdforge/internal/pathcache"
	"github.com/scribeworks/mdforge/internal/source"
)

// Request describes one transformation run.
type Request struct {
	SchemaPath    string
	DocumentPaths []string
	// Strategy overrides the size-based default when set.
	Strategy Strategy
	// Aggregate runs Stage 4; without it AggregatedData stays nil.
	Aggregate bool
	// OutputPath, when set, renders and writes the artifact after the run.
	OutputPath string
}

// DocumentFailure records one excluded document. The run continues.
type DocumentFailure struct {
	Path string
	Err  error
}

// Result is the terminal state of a successful run.
type Result struct {
	ProcessedData  []map[string]any
	Documents      []string
	AggregatedData map[string]any
	Failures       []DocumentFailure
	Strategy       Strategy
	Workers        int
}

// Coordinator composes the pipeline's services. Construct with New; all
// collaborators are explicit, nothing is package-global.
type Coordinator struct {
	registry *directive.Registry
	detector *detect.Detector
	files    *source.FileSource
	cache    *pathcache.Cache
	pcfg     *config.PipelineBlock
	logger   *slog.Logger
}

func New(reg *directive.Registry, det *detect.Detector, fsys billy.Filesystem, cache *pathcache.Cache, pcfg *config.PipelineBlock, logger *slog.Logger) *Coordinator {
	if pcfg == nil {
		pcfg = config.Default().Pipeline
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cache == nil {
		cache = pathcache.New(pathcache.Config{})
	}
	return &Coordinator{
		registry: reg,
		detector: det,
		files:    source.NewSource(fsys),
		cache:    cache,
		pcfg:     pcfg,
		logger:   logger,
	}
}

// Transform runs the five pipeline stages over the requested documents.
// Synchronous from the caller's point of view; Stage 3 may fan out
// internally. Returns an error only for fatal configuration or validation
// failures; per-document problems land in Result.Failures.
func (c *Coordinator) Transform(ctx context.Context, req Request) (*Result, error) {
	schemaBytes, err := c.files.Read(req.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	schema, err := api.ParseSchema(schemaBytes)
	if err != nil {
		return nil, err
	}

	// Stage 1: validation-rule adjustment. Fatal on failure.
	st := c.detector.Detect(schema)
	hints := c.detector.Hints(st)
	docRules, err := adjustRules(schema, c.registry, st, hints)
	if err != nil {
		return nil, err
	}

	// Stage 2: strategy selection.
	pl := selectStrategy(len(req.DocumentPaths), req.Strategy, c.pcfg)
	c.logger.Debug("processing strategy selected",
		"strategy", pl.strategy, "workers", pl.workers, "documents", len(req.DocumentPaths))

	// Stage 3: per-document processing. Failures degrade.
	processed, failures, err := c.processDocuments(ctx, req.DocumentPaths, docRules, pl)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Strategy: pl.strategy,
		Workers:  pl.workers,
		Failures: failures,
	}
	for _, p := range processed {
		result.Documents = append(result.Documents, p.path)
		result.ProcessedData = append(result.ProcessedData, p.data.Map())
	}

	// Stage 4: optional aggregation. Failure degrades to a warning. The
	// aggregate gets its own document copies so directive handlers never
	// touch the maps in ProcessedData.
	if req.Aggregate && len(processed) > 0 {
		aggDocs := make([]map[string]any, 0, len(processed))
		for _, p := range processed {
			aggDocs = append(aggDocs, p.data.Map())
		}
		agg, err := c.aggregate(schema, st, aggDocs)
		if err != nil {
			c.logger.Warn("aggregation failed, continuing without aggregated data", "error", err)
		} else {
			// Stage 5: base-property population on the aggregated dataset.
			populateBaseProperties(schema, agg)
			result.AggregatedData = agg
		}
	}

	if req.OutputPath != "" {
		if err := c.writeArtifact(req, schema, st, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type processedDoc struct {
	path string
	data *frontmatter.Data
}

// processDocuments runs Stage 3 under the selected plan. Workers share no
// mutable state: each document writes its own slot, and the final lists keep
// input order so aggregation and tests are reproducible.
func (c *Coordinator) processDocuments(ctx context.Context, paths []string, r rules, pl plan) ([]processedDoc, []DocumentFailure, error) {
	slots := make([]*processedDoc, len(paths))
	failSlots := make([]*DocumentFailure, len(paths))

	if pl.workers <= 1 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			slots[i], failSlots[i] = c.processOne(path, r)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pl.workers)
		for i, path := range paths {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i], failSlots[i] = c.processOne(path, r)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	var processed []processedDoc
	var failures []DocumentFailure
	for i := range paths {
		if slots[i] != nil {
			processed = append(processed, *slots[i])
		}
		if failSlots[i] != nil {
			failures = append(failures, *failSlots[i])
		}
	}
	return processed, failures, nil
}

// processOne reads, extracts, and validates a single document. Every failure
// is recorded, never propagated: Stage 3 policy is degrade-not-fail.
func (c *Coordinator) processOne(path string, r rules) (*processedDoc, *DocumentFailure) {
	content, err := c.files.Read(path)
	if err != nil {
		c.logger.Warn("document read failed", "path", path, "error", err)
		return nil, &DocumentFailure{Path: path, Err: err}
	}

	data, ok := c.extractCached(path, content)
	if !ok {
		err := fmt.Errorf("document %s has no front matter", path)
		c.logger.Warn("front matter missing", "path", path)
		return nil, &DocumentFailure{Path: path, Err: err}
	}

	if err := validateDocument(path, data, r); err != nil {
		c.logger.Warn("document validation failed", "path", path, "error", err)
		return nil, &DocumentFailure{Path: path, Err: err}
	}
	return &processedDoc{path: path, data: data}, nil
}

// frontMatterPath keys extraction-cache entries for the front-matter step.
const frontMatterPath = "$.frontmatter"

// extractCached runs front-matter extraction through the extraction cache,
// keyed by content hash so unchanged documents skip the parse on re-runs.
func (c *Coordinator) extractCached(path string, content []byte) (*frontmatter.Data, bool) {
	dataHash := pathcache.HashValue(string(content))
	pathHash := pathcache.HashPath(frontMatterPath)
	if cached, ok := c.cache.GetExtraction(dataHash, pathHash); ok {
		if data, ok := cached.(*frontmatter.Data); ok {
			return data, true
		}
	}
	res := frontmatter.Extract(content)
	if !res.Present {
		return nil, false
	}
	c.cache.SetExtraction(dataHash, pathHash, res.Data)
	return res.Data, true
}
