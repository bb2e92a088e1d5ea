// Package query turns a search state (mode, query, page) into the filter,
// ordering and paging used by the SQLite store and the matching HTTP route.
package query

import (
	"fmt"
	"strings"
)

// Mode selects how pages are filtered.
type Mode int

const (
	// ModeLatest lists the most recent pages with no filter.
	ModeLatest Mode = iota
	// ModeFullText runs a websearch-style expression against page content.
	ModeFullText
	// ModeSubstring matches content containing the query, or the exact recipient.
	ModeSubstring
	// ModeSource matches sources starting with the query.
	ModeSource
)

func (m Mode) String() string {
	switch m {
	case ModeLatest:
		return "latest"
	case ModeFullText:
		return "fulltext"
	case ModeSubstring:
		return "substring"
	case ModeSource:
		return "source"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RouteSegment is the mode's path element under /pages/search/.
// Latest has none.
func (m Mode) RouteSegment() string {
	switch m {
	case ModeFullText:
		return "ft"
	case ModeSubstring:
		return "basic"
	case ModeSource:
		return "source"
	default:
		return ""
	}
}

// NeedsQuery reports whether the mode filters on a query string.
func (m Mode) NeedsQuery() bool {
	return m != ModeLatest
}

// ParseMode accepts a mode name ("latest", "fulltext", "substring",
// "source") or a route segment ("ft", "basic"), case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latest", "":
		return ModeLatest, nil
	case "fulltext", "ft", "full-text":
		return ModeFullText, nil
	case "substring", "basic":
		return ModeSubstring, nil
	case "source":
		return ModeSource, nil
	}
	return ModeLatest, fmt.Errorf("unknown search mode %q", s)
}

// ParseRouteSegment accepts only the path elements used under
// /pages/search/.
func ParseRouteSegment(s string) (Mode, bool) {
	switch s {
	case "ft":
		return ModeFullText, true
	case "basic":
		return ModeSubstring, true
	case "source":
		return ModeSource, true
	}
	return ModeLatest, false
}
