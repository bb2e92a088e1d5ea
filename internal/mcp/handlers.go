package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/colors"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// maxPage bounds the page argument so offsets stay well inside int64.
const maxPage = 1_000_000

type handlers struct {
	source    PageSource
	planner   query.Planner
	annotator *annotate.Annotator
	stats     StatsSource
}

func newHandlers(opts Options) *handlers {
	a := opts.Annotator
	if a == nil {
		a = annotate.New()
	}
	return &handlers{source: opts.Source, planner: opts.Planner, annotator: a, stats: opts.Stats}
}

// Code is a known token found in message text.
type Code struct {
	Token   string `json:"token"`
	Tooltip string `json:"tooltip"`
}

// PageRow is a message as returned to MCP clients.
type PageRow struct {
	ID        int64     `json:"id"`
	RxDate    time.Time `json:"rx_date"`
	Source    string    `json:"source"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	ColorHex  string    `json:"color_hex"`
	Codes     []Code    `json:"codes,omitempty"`
}

// PagesResult is one page of rows plus the request that produced it.
type PagesResult struct {
	Mode  string    `json:"mode"`
	Query string    `json:"query,omitempty"`
	Page  int       `json:"page"`
	Rows  []PageRow `json:"rows"`
}

func (h *handlers) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return h.runPages(ctx, query.SearchState{Mode: query.ModeLatest, Page: pageArg(args)})
}

func (h *handlers) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	modeStr, _ := args["mode"].(string)
	mode, err := query.ParseMode(modeStr)
	if err != nil || !mode.NeedsQuery() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid mode %q: expected fulltext, substring or source", modeStr)), nil
	}

	q, _ := args["query"].(string)
	q = strings.TrimSpace(q)
	if q == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	return h.runPages(ctx, query.SearchState{Mode: mode, Query: q, Page: pageArg(args)})
}

func (h *handlers) runPages(ctx context.Context, state query.SearchState) (*mcp.CallToolResult, error) {
	plan := h.planner.Plan(state)
	msgs, err := h.source.Pages(ctx, plan)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s query failed: %v", plan.Mode, err)), nil
	}

	rows := make([]PageRow, len(msgs))
	for i, m := range msgs {
		rows[i] = h.row(m)
	}
	return jsonResult(PagesResult{
		Mode:  plan.Mode.String(),
		Query: plan.Query,
		Page:  plan.Page,
		Rows:  rows,
	})
}

func (h *handlers) row(m store.Message) PageRow {
	c := colors.For(m.Recipient)
	return PageRow{
		ID:        m.ID,
		RxDate:    m.RxDate,
		Source:    m.Source,
		Recipient: m.Recipient,
		Content:   m.Content,
		Color:     c.String(),
		ColorHex:  c.Hex(),
		Codes:     h.codes(m.Content),
	}
}

func (h *handlers) codes(text string) []Code {
	var out []Code
	for seg := range h.annotator.Annotate(text) {
		if seg.Decorated() {
			out = append(out, Code{Token: seg.Text, Tooltip: seg.Tooltip})
		}
	}
	return out
}

func (h *handlers) annotateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	codes := h.codes(text)
	if codes == nil {
		codes = []Code{}
	}
	return jsonResult(codes)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.stats == nil {
		return mcp.NewToolResultError("stats are only available for a local database"), nil
	}
	stats, err := h.stats.GetStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}

// pageArg extracts the 1-based page number. JSON numbers arrive as
// float64; anything missing or below 1 is page 1.
func pageArg(args map[string]any) int {
	v, ok := args["page"].(float64)
	if !ok || math.IsNaN(v) || v < 1 {
		return 1
	}
	if math.IsInf(v, 1) || v > maxPage {
		return maxPage
	}
	return int(v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
