package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/scribeworks/mdforge/internal/pipeline"
)

const serveVersion = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transform pipeline as an MCP stdio tool",
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, err := newCoordinator()
		if err != nil {
			return err
		}

		s := server.NewMCPServer("mdforge", serveVersion,
			server.WithToolCapabilities(false),
		)

		transformTool := mcp.NewTool("transform",
			mcp.WithDescription("Transform Markdown documents with YAML front matter through a directive-annotated JSON Schema."),
			mcp.WithString("schema", mcp.Required(),
				mcp.Description("Path to the JSON Schema file")),
			mcp.WithString("documents", mcp.Required(),
				mcp.Description("Comma-separated Markdown document paths")),
			mcp.WithString("output",
				mcp.Description("Artifact output path; omit to skip rendering")),
			mcp.WithBoolean("aggregate",
				mcp.Description("Aggregate processed documents through the schema's directives")),
		)

		s.AddTool(transformTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			schema, err := req.RequireString("schema")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			docArg, err := req.RequireString("documents")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			var docs []string
			for _, d := range strings.Split(docArg, ",") {
				if d = strings.TrimSpace(d); d != "" {
					docs = append(docs, d)
				}
			}

			result, err := coord.Transform(ctx, pipeline.Request{
				SchemaPath:    schema,
				DocumentPaths: docs,
				Aggregate:     req.GetBool("aggregate", false),
				OutputPath:    req.GetString("output", ""),
			})
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("transform failed: %v", err)), nil
			}

			summary := map[string]any{
				"processed": len(result.Documents),
				"failed":    len(result.Failures),
				"strategy":  string(result.Strategy),
			}
			if result.AggregatedData != nil {
				summary["aggregated"] = result.AggregatedData
			}
			return mcp.NewToolResultText(oj.JSON(summary, &oj.Options{Sort: true, Indent: 2})), nil
		})

		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
