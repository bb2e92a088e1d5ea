package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultPageSize is the number of pages returned per result page.
const DefaultPageSize = 100

// OrderBy is the ordering shared by every mode. The id tiebreak keeps page
// boundaries stable when several pages arrive in the same second.
const OrderBy = "rx_date DESC, recipient ASC, id DESC"

// SearchState is what the viewer is currently looking at.
type SearchState struct {
	Mode  Mode
	Query string
	Page  int
}

// Planner builds plans for a fixed page size.
type Planner struct {
	PageSize int
}

// NewPlanner returns a planner. A non-positive size means DefaultPageSize.
func NewPlanner(pageSize int) Planner {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Planner{PageSize: pageSize}
}

// Plan normalizes s. Pages below 1 become page 1, and pages whose offset
// would overflow are saturated, so the offset is never negative. Empty
// queries are not rejected here.
func (p Planner) Plan(s SearchState) Plan {
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	page := s.Page
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt / size; page > maxPage {
		page = maxPage
	}
	q := s.Query
	if s.Mode == ModeLatest {
		q = ""
	}
	return Plan{
		Mode:   s.Mode,
		Query:  q,
		Page:   page,
		Limit:  size,
		Offset: (page - 1) * size,
	}
}

// Plan is a normalized search: one filter, one window of rows.
type Plan struct {
	Mode   Mode
	Query  string
	Page   int
	Limit  int
	Offset int
}

// State returns the search state the plan was built from, after
// normalization.
func (p Plan) State() SearchState {
	return SearchState{Mode: p.Mode, Query: p.Query, Page: p.Page}
}

// Filter returns a WHERE fragment over the pages table and its arguments.
// An empty fragment means no filter. When fts is false, full-text mode
// falls back to LIKE matching on content.
func (p Plan) Filter(fts bool) (string, []any) {
	switch p.Mode {
	case ModeFullText:
		expr := ParseWebSearch(p.Query)
		if fts {
			return expr.ftsCondition()
		}
		return expr.likeCondition()
	case ModeSubstring:
		return `(` + FoldFunc + `(content) LIKE ? ESCAPE '\' OR recipient = ?)`,
			[]any{"%" + EscapeLike(Fold(p.Query)) + "%", p.Query}
	case ModeSource:
		return FoldFunc + `(source) LIKE ? ESCAPE '\'`, []any{EscapeLike(Fold(p.Query)) + "%"}
	default:
		return "", nil
	}
}

// Path is the HTTP route serving this plan, with the query escaped as a
// single path segment.
func (p Plan) Path() string {
	if p.Mode == ModeLatest {
		return fmt.Sprintf("/pages/%d/", p.Page)
	}
	return fmt.Sprintf("/pages/search/%s/%s/%d/", p.Mode.RouteSegment(), url.PathEscape(p.Query), p.Page)
}

// ParsePage reads a 1-indexed page number. Anything that is not a positive
// integer yields 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// FoldFunc is the SQL function the store registers as Fold. SQLite's LIKE
// only folds ASCII, so both sides of every LIKE match are folded first.
const FoldFunc = "casefold"

// Fold applies Unicode case folding, so "ÉVACUATION" matches "évacuation"
// and "STRAßE" matches "strasse".
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EscapeLike escapes SQL LIKE wildcards so s matches literally under
// ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
