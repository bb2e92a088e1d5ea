package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/remote"
	"github.com/pokesag/pokesag/internal/store"
)

// PageStore is what viewer commands read from. Both store.Store and
// remote.Store implement it.
type PageStore interface {
	Pages(ctx context.Context, plan query.Plan) ([]store.Message, error)
	Close() error
}

// pageSource is an opened PageStore plus what the viewer needs alongside
// it: the page size that matches the server's offsets and where tooltips
// come from.
type pageSource struct {
	PageStore
	planner    query.Planner
	refresh    time.Duration
	dictionary annotate.Loader // nil when no dictionary is configured
	local      *store.Store    // nil in remote mode
}

// IsRemoteMode returns true if commands should use a server.
// Resolution order:
//  1. --local flag → always local
//  2. --server or [client].server_url set → remote
//  3. Default → local database
func IsRemoteMode() bool {
	if useLocal {
		return false
	}
	return cfg != nil && cfg.RemoteMode()
}

// openPageSource opens the local database or connects to the configured
// server.
func openPageSource(ctx context.Context) (*pageSource, error) {
	if IsRemoteMode() {
		return openRemoteSource(ctx)
	}
	return openLocalSource()
}

func openLocalSource() (*pageSource, error) {
	s, err := openLocalStore()
	if err != nil {
		return nil, err
	}
	ps := &pageSource{
		PageStore: s,
		planner:   query.NewPlanner(cfg.Client.PageSize),
		refresh:   cfg.Client.RefreshInterval.Duration,
		local:     s,
	}
	if cfg.Server.HoverCodes != "" {
		ps.dictionary = annotate.FileLoader{Path: cfg.Server.HoverCodes}
	}
	return ps, nil
}

// openLocalStore opens the local SQLite database and brings its schema up
// to date.
func openLocalStore() (*store.Store, error) {
	s, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.InitSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if !s.FTS5Available() {
		logger.Warn("SQLite built without FTS5; full-text search falls back to LIKE matching")
	}
	return s, nil
}

// openRemoteSource connects to the server. The server computes page
// offsets, so its page size wins over the local config when it can be
// fetched.
func openRemoteSource(ctx context.Context) (*pageSource, error) {
	rs, err := remote.New(remote.Config{
		URL:     cfg.Client.ServerURL,
		Timeout: cfg.Client.Timeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to server: %w", err)
	}

	pageSize := cfg.Client.PageSize
	refresh := cfg.Client.RefreshInterval.Duration
	if settings, err := rs.Settings(ctx); err != nil {
		logger.Warn("could not read server settings, using local values",
			"server", rs.BaseURL(), "page_size", pageSize, "error", err)
	} else {
		if settings.PageSize > 0 {
			pageSize = settings.PageSize
		}
		if settings.RefreshInterval > 0 {
			refresh = settings.RefreshInterval
		}
	}

	return &pageSource{
		PageStore:  rs,
		planner:    query.NewPlanner(pageSize),
		refresh:    refresh,
		dictionary: rs,
	}, nil
}

// MustBeLocal returns an error if remote mode is active.
// Use this for commands that only work with a local database.
func MustBeLocal(cmdName string) error {
	if IsRemoteMode() {
		return fmt.Errorf("%s requires a local database\n\n"+
			"This command cannot run against a server.\n"+
			"Use --local to force the local database.", cmdName)
	}
	return nil
}
