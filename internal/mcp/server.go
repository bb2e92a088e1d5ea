// Package mcp exposes the pager archive to MCP clients over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// Tool name constants.
const (
	ToolListPages    = "list_pages"
	ToolSearchPages  = "search_pages"
	ToolAnnotateText = "annotate_text"
	ToolGetStats     = "get_stats"
)

// PageSource answers page queries.
type PageSource interface {
	Pages(ctx context.Context, plan query.Plan) ([]store.Message, error)
}

// StatsSource reports archive totals. Only a local store has one.
type StatsSource interface {
	GetStats(ctx context.Context) (*store.Stats, error)
}

// Options configures the MCP server.
type Options struct {
	Source    PageSource
	Planner   query.Planner
	Annotator *annotate.Annotator
	// Stats is optional; get_stats is only registered when set.
	Stats   StatsSource
	Version string
}

func withPage() mcp.ToolOption {
	return mcp.WithNumber("page",
		mcp.Description("1-based page number (default 1)"),
	)
}

// Serve creates an MCP server with pager archive tools and serves over
// stdio. It blocks until stdin is closed or the context is cancelled.
func Serve(ctx context.Context, opts Options) error {
	s := newServer(opts)
	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func newServer(opts Options) *server.MCPServer {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"pokesag",
		version,
		server.WithToolCapabilities(false),
	)

	h := newHandlers(opts)
	s.AddTool(listPagesTool(), h.listPages)
	s.AddTool(searchPagesTool(), h.searchPages)
	s.AddTool(annotateTextTool(), h.annotateText)
	if opts.Stats != nil {
		s.AddTool(getStatsTool(), h.getStats)
	}
	return s
}

func listPagesTool() mcp.Tool {
	return mcp.NewTool(ToolListPages,
		mcp.WithDescription("List received pager messages, newest first. Each row carries the recipient's display color and any known codes found in the text."),
		mcp.WithReadOnlyHintAnnotation(true),
		withPage(),
	)
}

func searchPagesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchPages,
		mcp.WithDescription("Search pager messages. fulltext accepts web-search syntax (quoted phrases, -exclusions, OR); substring matches message text or an exact recipient; source matches a source name prefix."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("Search mode"),
			mcp.Enum("fulltext", "substring", "source"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text (e.g. 'cardiac -test', '1140792', 'FLEX')"),
		),
		withPage(),
	)
}

func annotateTextTool() mcp.Tool {
	return mcp.NewTool(ToolAnnotateText,
		mcp.WithDescription("Find known codes in a message text and return their tooltips."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Message text to annotate"),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get archive overview: page, recipient and source counts, database size, and whether full-text search is available."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
