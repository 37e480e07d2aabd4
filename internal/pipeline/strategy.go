package pipeline

import "github.com/scribeworks/mdforge/internal/config"

// Strategy names a document-processing execution mode.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyAdaptive   Strategy = "adaptive"
)

// plan is a resolved strategy: the mode plus a concrete worker count.
type plan struct {
	strategy Strategy
	workers  int
}

// adaptiveReevalThreshold is the document count per worker before the
// adaptive strategy adds another, up to the configured base.
const adaptiveReevalThreshold = 8

// selectStrategy picks the execution plan for a file count. Defaults by size:
// small sets run sequentially, medium sets run parallel with a fixed pool,
// large sets run adaptive with a dynamically chosen pool bounded by the base
// worker count. An explicit caller override always wins.
func selectStrategy(n int, override Strategy, cfg *config.PipelineBlock) plan {
	chosen := override
	if chosen == "" && cfg.Strategy != "" {
		chosen = Strategy(cfg.Strategy)
	}
	if chosen == "" {
		switch {
		case n <= cfg.SequentialThreshold:
			chosen = StrategySequential
		case n <= cfg.ParallelThreshold:
			chosen = StrategyParallel
		default:
			chosen = StrategyAdaptive
		}
	}

	switch chosen {
	case StrategyParallel:
		return plan{strategy: StrategyParallel, workers: cfg.ParallelWorkers}
	case StrategyAdaptive:
		workers := (n + adaptiveReevalThreshold - 1) / adaptiveReevalThreshold
		if workers > cfg.AdaptiveBaseWorkers {
			workers = cfg.AdaptiveBaseWorkers
		}
		if workers < 1 {
			workers = 1
		}
		return plan{strategy: StrategyAdaptive, workers: workers}
	default:
		return plan{strategy: StrategySequential, workers: 1}
	}
}
