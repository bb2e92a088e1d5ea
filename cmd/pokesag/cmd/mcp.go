package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pokesag/pokesag/internal/annotate"
	mcpserver "github.com/pokesag/pokesag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

MCP clients can list and search received pages and look up known codes
with the list_pages, search_pages, annotate_text and get_stats tools.
get_stats is only offered for a local database.

Example client config:
  {
    "mcpServers": {
      "pokesag": {
        "command": "pokesag",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openPageSource(cmd.Context())
		if err != nil {
			return err
		}
		defer src.Close()

		a := annotate.New().WithLogger(logger)
		if src.dictionary != nil {
			a.Load(cmd.Context(), src.dictionary)
		}

		opts := mcpserver.Options{
			Source:    src,
			Planner:   src.planner,
			Annotator: a,
			Version:   Version,
		}
		if src.local != nil {
			opts.Stats = src.local
		}
		return mcpserver.Serve(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
