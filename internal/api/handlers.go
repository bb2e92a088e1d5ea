package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// PagesResponse is the envelope for successful page queries.
type PagesResponse struct {
	Success bool            `json:"success"`
	Data    []store.Message `json:"data"`
}

// ErrorResponse is the envelope for failures.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SettingsResponse carries the client constants.
type SettingsResponse struct {
	PageSize          int   `json:"page_size"`
	RefreshIntervalMS int64 `json:"refresh_interval_ms"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}

// handleLatest serves /pages/ and /pages/{page}/.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.servePages(w, r, query.SearchState{
		Mode: query.ModeLatest,
		Page: query.ParsePage(chi.URLParam(r, "page")),
	})
}

// handleSearch serves /pages/search/{mode}/{q}/ and its paged form.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	mode, ok := query.ParseRouteSegment(chi.URLParam(r, "mode"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid search mode "+chi.URLParam(r, "mode"))
		return
	}

	q, err := pathParam(r, "q")
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed query: "+err.Error())
		return
	}
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "search query is required")
		return
	}

	s.servePages(w, r, query.SearchState{
		Mode:  mode,
		Query: q,
		Page:  query.ParsePage(chi.URLParam(r, "page")),
	})
}

func (s *Server) servePages(w http.ResponseWriter, r *http.Request, state query.SearchState) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no message store configured")
		return
	}

	plan := s.planner.Plan(state)
	msgs, err := s.source.Pages(r.Context(), plan)
	if err != nil {
		s.logger.Error("page query failed",
			"mode", plan.Mode.String(),
			"page", plan.Page,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "failed to query pages")
		return
	}
	if msgs == nil {
		msgs = []store.Message{}
	}
	writeJSON(w, http.StatusOK, PagesResponse{Success: true, Data: msgs})
}

// pathParam returns a decoded URL parameter. chi routes on the raw path
// when the request carries escapes the default encoding would not produce
// (such as %2F), and the parameter is then still escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// handleSettings returns the client constants.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SettingsResponse{
		PageSize:          s.planner.PageSize,
		RefreshIntervalMS: s.cfg.Client.RefreshInterval.Milliseconds(),
	})
}

// handleHoverCodes serves the tooltip dictionary file.
func (s *Server) handleHoverCodes(w http.ResponseWriter, r *http.Request) {
	path := s.cfg.Server.HoverCodes
	if path == "" {
		writeError(w, http.StatusNotFound, "no tooltip dictionary configured")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "tooltip dictionary not found")
			return
		}
		s.logger.Error("open tooltip dictionary", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "tooltip dictionary unreadable")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "tooltip dictionary not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, r, "hoverCodes.json", info.ModTime(), f)
}
