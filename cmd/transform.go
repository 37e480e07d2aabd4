package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribeworks/mdforge/internal/pipeline"
	"github.com/scribeworks/mdforge/internal/source"
)

var (
	outputPath string
	aggregate  bool
	strategy   string
	corpusPath string
)

var transformCmd = &cobra.Command{
	Use:   "transform [documents...]",
	Short: "Transform Markdown documents through a directive-annotated schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaPath == "" {
			return fmt.Errorf("--schema/-s is required")
		}

		docs := args
		if corpusPath != "" {
			extracted, cleanup, err := materializeCorpus(corpusPath)
			if err != nil {
				return err
			}
			defer cleanup()
			docs = append(docs, extracted...)
		}
		if len(docs) == 0 {
			return fmt.Errorf("no documents given")
		}

		absSchema, err := filepath.Abs(schemaPath)
		if err != nil {
			return fmt.Errorf("resolve schema path: %w", err)
		}
		absDocs := make([]string, len(docs))
		for i, d := range docs {
			if absDocs[i], err = filepath.Abs(d); err != nil {
				return fmt.Errorf("resolve document path %s: %w", d, err)
			}
		}
		absOut := ""
		if outputPath != "" {
			if absOut, err = filepath.Abs(outputPath); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
		}

		coord, err := newCoordinator()
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := coord.Transform(cmd.Context(), pipeline.Request{
			SchemaPath:    absSchema,
			DocumentPaths: absDocs,
			Strategy:      pipeline.Strategy(strategy),
			Aggregate:     aggregate,
			OutputPath:    absOut,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d/%d documents (%s, %d workers) in %v.\n",
			len(result.Documents), len(absDocs), result.Strategy, result.Workers, time.Since(start))
		for _, f := range result.Failures {
			fmt.Printf("  skipped %s: %v\n", f.Path, f.Err)
		}
		if absOut != "" {
			fmt.Printf("Wrote %s.\n", absOut)
		}
		return nil
	},
}

// materializeCorpus extracts a SQLite corpus into a temp directory of
// Markdown files so the pipeline reads them like any other document set.
func materializeCorpus(dbPath string) ([]string, func(), error) {
	dir, err := os.MkdirTemp("", "mdforge-corpus-")
	if err != nil {
		return nil, nil, fmt.Errorf("corpus temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	var paths []string
	err = source.StreamDocuments(dbPath, func(id, content string) error {
		path := filepath.Join(dir, id+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("stream corpus %s: %w", dbPath, err)
	}
	return paths, cleanup, nil
}

func init() {
	transformCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Artifact output path")
	transformCmd.Flags().BoolVar(&aggregate, "aggregate", false, "Aggregate processed documents")
	transformCmd.Flags().StringVar(&strategy, "strategy", "", "Processing strategy (sequential|parallel|adaptive)")
	transformCmd.Flags().StringVar(&corpusPath, "corpus", "", "SQLite document corpus to process")
	rootCmd.AddCommand(transformCmd)
}
