// Package viewmodel holds the pager viewer's search state machine and the
// runtime that drives fetches through it.
package viewmodel

import (
	"fmt"
	"strings"

	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// Status is the fetch state of the view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ValidationError rejects a search before any request is made.
type ValidationError struct {
	Mode query.Mode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s search needs a query", e.Mode)
}

// State is an immutable snapshot of the view. Reduce returns a new State
// for every event; Messages is never mutated in place.
type State struct {
	Search   query.SearchState
	Status   Status
	Messages []store.Message
	Err      error

	// Seq is the sequence number of the newest request issued. Responses
	// carrying any other number are discarded.
	Seq uint64
	// Version increases with every reduction so observers can drop
	// out-of-order snapshots.
	Version uint64
}

// Request asks the runtime to fetch Search and report back with Loaded{Seq}.
type Request struct {
	Seq    uint64
	Search query.SearchState
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Submit starts a new search from page 1. Latest mode ignores Query.
type Submit struct {
	Mode  query.Mode
	Query string
}

// Clear returns to the latest pages.
type Clear struct{}

// FollowRecipient searches for pages to one recipient.
type FollowRecipient struct {
	Recipient string
}

// NextPage moves forward one page in the current search.
type NextPage struct{}

// PrevPage moves back one page, stopping at page 1.
type PrevPage struct{}

// JumpPage moves to Page, clamped to at least 1.
type JumpPage struct {
	Page int
}

// Refresh re-issues the current search unchanged.
type Refresh struct{}

// Loaded carries the result of request Seq.
type Loaded struct {
	Seq      uint64
	Messages []store.Message
	Err      error
}

func (Submit) isEvent()          {}
func (Clear) isEvent()           {}
func (FollowRecipient) isEvent() {}
func (NextPage) isEvent()        {}
func (PrevPage) isEvent()        {}
func (JumpPage) isEvent()        {}
func (Refresh) isEvent()         {}
func (Loaded) isEvent()          {}

// Initial is the state before the first request.
func Initial() State {
	return State{Search: query.SearchState{Mode: query.ModeLatest, Page: 1}}
}

// Reduce applies e to s. It returns the next state and, when the event
// needs data, the request to issue. Reduce never performs I/O.
func Reduce(s State, e Event) (State, *Request) {
	s.Version++

	switch e := e.(type) {
	case Submit:
		return submit(s, e.Mode, e.Query)

	case Clear:
		return issue(s, query.SearchState{Mode: query.ModeLatest, Page: 1})

	case FollowRecipient:
		return submit(s, query.ModeSubstring, e.Recipient)

	case NextPage:
		next := s.Search
		next.Page = clampPage(next.Page + 1)
		return issue(s, next)

	case PrevPage:
		next := s.Search
		next.Page = clampPage(next.Page - 1)
		return issue(s, next)

	case JumpPage:
		next := s.Search
		next.Page = clampPage(e.Page)
		return issue(s, next)

	case Refresh:
		return issue(s, s.Search)

	case Loaded:
		if e.Seq != s.Seq || s.Status != StatusLoading {
			return s, nil
		}
		if e.Err != nil {
			s.Status = StatusError
			s.Err = e.Err
			return s, nil
		}
		s.Status = StatusReady
		s.Err = nil
		s.Messages = e.Messages
		return s, nil
	}
	return s, nil
}

func submit(s State, mode query.Mode, q string) (State, *Request) {
	q = strings.TrimSpace(q)
	if !mode.NeedsQuery() {
		q = ""
	} else if q == "" {
		s.Status = StatusError
		s.Err = &ValidationError{Mode: mode}
		return s, nil
	}
	return issue(s, query.SearchState{Mode: mode, Query: q, Page: 1})
}

func issue(s State, search query.SearchState) (State, *Request) {
	s.Seq++
	s.Search = search
	s.Status = StatusLoading
	s.Err = nil
	return s, &Request{Seq: s.Seq, Search: search}
}

func clampPage(p int) int {
	if p < 1 {
		return 1
	}
	return p
}
