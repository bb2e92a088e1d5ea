package annotate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Dictionary maps tokens to tooltip text. Keys keep their insertion order,
// which is also the order the matcher tries them in.
type Dictionary struct {
	keys []string
	tips map[string]string
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{tips: make(map[string]string)}
}

// FromMap builds a dictionary from m with keys in sorted order, since Go maps
// carry no order of their own.
func FromMap(m map[string]string) *Dictionary {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := NewDictionary()
	for _, k := range keys {
		d.Add(k, m[k])
	}
	return d
}

// Add sets the tooltip for token. Re-adding a token replaces its tooltip but
// keeps its original position. Empty tokens are ignored.
func (d *Dictionary) Add(token, tooltip string) {
	if token == "" {
		return
	}
	if _, exists := d.tips[token]; !exists {
		d.keys = append(d.keys, token)
	}
	d.tips[token] = tooltip
}

// Len returns the number of tokens.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the tokens in match order.
func (d *Dictionary) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Lookup returns the tooltip for token. Empty tooltips count as missing.
func (d *Dictionary) Lookup(token string) (string, bool) {
	if d == nil {
		return "", false
	}
	tip, ok := d.tips[token]
	if !ok || tip == "" {
		return "", false
	}
	return tip, true
}

// DictionaryLoadError reports a tooltip dictionary that could not be fetched
// or parsed. It is never fatal: annotation degrades to pass-through.
type DictionaryLoadError struct {
	Source string
	Err    error
}

func (e *DictionaryLoadError) Error() string {
	return fmt.Sprintf("load tooltip dictionary %s: %v", e.Source, e.Err)
}

func (e *DictionaryLoadError) Unwrap() error { return e.Err }

// Loader fetches a tooltip dictionary.
type Loader interface {
	LoadDictionary(ctx context.Context) (*Dictionary, error)
}

// FileLoader reads a dictionary from a JSON file on disk.
type FileLoader struct {
	Path string
}

// LoadDictionary reads and parses the file. An empty Path yields an empty
// dictionary.
func (l FileLoader) LoadDictionary(ctx context.Context) (*Dictionary, error) {
	if l.Path == "" {
		return NewDictionary(), nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, &DictionaryLoadError{Source: l.Path, Err: err}
	}
	d, err := ParseDictionary(data)
	if err != nil {
		return nil, &DictionaryLoadError{Source: l.Path, Err: err}
	}
	return d, nil
}

// IsNotFound reports whether err means the dictionary resource does not
// exist, as opposed to being unreadable or malformed.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// ParseDictionary decodes either a flat {"token": "text"} object or one
// nested under a top-level "codes" object. Document order is preserved and
// non-string values are skipped. A JSON null yields an empty dictionary.
func ParseDictionary(data []byte) (*Dictionary, error) {
	entries, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.key == "codes" && isObject(e.raw) {
			entries, err = decodeOrdered(e.raw)
			if err != nil {
				return nil, fmt.Errorf("decode codes: %w", err)
			}
			break
		}
	}

	d := NewDictionary()
	for _, e := range entries {
		var tip *string
		if err := json.Unmarshal(e.raw, &tip); err != nil || tip == nil {
			continue
		}
		d.Add(e.key, *tip)
	}
	return d, nil
}

type rawEntry struct {
	key string
	raw json.RawMessage
}

// decodeOrdered reads the members of a JSON object in document order.
func decodeOrdered(data []byte) ([]rawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode dictionary: expected JSON object, got %v", tok)
	}

	var entries []rawEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode dictionary key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("decode dictionary: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode dictionary value for %q: %w", key, err)
		}
		entries = append(entries, rawEntry{key: key, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	return entries, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
