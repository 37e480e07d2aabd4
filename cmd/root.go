package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/scribeworks/mdforge/internal/config"
	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/directive"
	"github.com/scribeworks/mdforge/internal/pathcache"
	"github.com/scribeworks/mdforge/internal/pipeline"
)

var (
	schemaPath string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mdforge",
	Short: "mdforge: schema-directed front-matter aggregation",
	Long: `mdforge transforms collections of Markdown documents carrying YAML/JSON
front matter into aggregated, template-rendered output, guided by x-*
directives embedded in a JSON Schema.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&schemaPath, "schema", "s", "", "Path to the JSON Schema")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to mdforge.hcl")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// newCoordinator wires the pipeline from the loaded configuration.
func newCoordinator() (*pipeline.Coordinator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return pipeline.New(
		directive.NewDefaultRegistry(),
		detect.NewDetector(cfg.DetectorConfig()),
		osfs.New("/"),
		pathcache.New(cfg.CacheConfig()),
		cfg.Pipeline,
		logger,
	), nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
