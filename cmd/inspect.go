package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scribeworks/mdforge/api"
	"github.com/scribeworks/mdforge/internal/config"
	"github.com/scribeworks/mdforge/internal/detect"
	"github.com/scribeworks/mdforge/internal/directive"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the detected structure and directives of a schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaPath == "" {
			return fmt.Errorf("--schema/-s is required")
		}
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		schema, err := api.ParseSchema(data)
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		det := detect.NewDetector(cfg.DetectorConfig())
		st := det.Detect(schema)
		hints := det.Hints(st)

		fmt.Printf("Structure: %s", st.Kind)
		if st.Path != "" {
			fmt.Printf(" (%s)", st.Path)
		}
		fmt.Println()
		fmt.Printf("Aggregation required: %v\n", hints.RequiresAggregation)
		if len(hints.ExpectedArrayFields) > 0 {
			fmt.Printf("Expected array fields: %v\n", hints.ExpectedArrayFields)
		}
		fmt.Printf("Template format hint: %s\n", hints.TemplateFormat)

		reg := directive.NewDefaultRegistry()
		directives, err := reg.ExtractDirectives(schema)
		if err != nil {
			return err
		}
		if len(directives) == 0 {
			fmt.Println("No directives.")
			return nil
		}
		sort.Slice(directives, func(i, j int) bool {
			if directives[i].Name != directives[j].Name {
				return directives[i].Name < directives[j].Name
			}
			return directives[i].Target < directives[j].Target
		})
		fmt.Println("Directives:")
		for _, d := range directives {
			fmt.Printf("  %s on %q\n", d.Name, d.Target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
