// Package remote provides an HTTP client for a pokesag API server.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
)

// Store reads pages from a remote server.
type Store struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for creating a remote store.
type Config struct {
	URL     string
	Timeout time.Duration
}

// New creates a new remote store.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("remote URL must include a host (e.g., http://pager:8000)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Store{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// BaseURL returns the server root.
func (s *Store) BaseURL() string {
	return s.baseURL
}

// doRequest performs a GET for path, which must already be escaped.
func (s *Store) doRequest(ctx context.Context, path string) (*http.Response, error) {
	reqURL := s.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	return resp, nil
}

// envelope is the API response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// handleErrorResponse turns a non-200 reply into a StoreError, using the
// envelope message when there is one.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return &StoreError{Status: resp.StatusCode, Message: env.Error}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &StoreError{Status: resp.StatusCode, Message: msg}
}

// pageResponse matches the API row format.
type pageResponse struct {
	ID        int64  `json:"id"`
	RxDate    string `json:"rx_date"`
	Source    string `json:"source"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
}

// parseTime parses an RFC 3339 time string. Unparseable values become the
// zero time rather than failing the whole page.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Pages fetches the rows for plan from the route it maps to.
func (s *Store) Pages(ctx context.Context, plan query.Plan) ([]store.Message, error) {
	resp, err := s.doRequest(ctx, plan.Path())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &TransportError{URL: s.baseURL + plan.Path(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return nil, &StoreError{Status: resp.StatusCode, Message: msg}
	}

	var rows []pageResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return nil, &TransportError{URL: s.baseURL + plan.Path(), Err: fmt.Errorf("decode rows: %w", err)}
		}
	}

	msgs := make([]store.Message, len(rows))
	for i, r := range rows {
		msgs[i] = store.Message{
			ID:        r.ID,
			RxDate:    parseTime(r.RxDate),
			Source:    r.Source,
			Recipient: r.Recipient,
			Content:   r.Content,
		}
	}
	return msgs, nil
}

// LoadDictionary fetches /hoverCodes.json. A 404 is reported as a
// DictionaryLoadError wrapping fs.ErrNotExist.
func (s *Store) LoadDictionary(ctx context.Context) (*annotate.Dictionary, error) {
	source := s.baseURL + "/hoverCodes.json"
	resp, err := s.doRequest(ctx, "/hoverCodes.json")
	if err != nil {
		return nil, &annotate.DictionaryLoadError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &annotate.DictionaryLoadError{Source: source, Err: fs.ErrNotExist}
	case resp.StatusCode != http.StatusOK:
		return nil, &annotate.DictionaryLoadError{Source: source, Err: handleErrorResponse(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &annotate.DictionaryLoadError{Source: source, Err: err}
	}
	d, err := annotate.ParseDictionary(body)
	if err != nil {
		return nil, &annotate.DictionaryLoadError{Source: source, Err: err}
	}
	return d, nil
}

// Settings are the client constants a server publishes.
type Settings struct {
	PageSize        int
	RefreshInterval time.Duration
}

// Settings fetches /settings.json.
func (s *Store) Settings(ctx context.Context) (*Settings, error) {
	resp, err := s.doRequest(ctx, "/settings.json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var sr struct {
		PageSize          int   `json:"page_size"`
		RefreshIntervalMS int64 `json:"refresh_interval_ms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &TransportError{URL: s.baseURL + "/settings.json", Err: fmt.Errorf("decode settings: %w", err)}
	}
	return &Settings{
		PageSize:        sr.PageSize,
		RefreshInterval: time.Duration(sr.RefreshIntervalMS) * time.Millisecond,
	}, nil
}
