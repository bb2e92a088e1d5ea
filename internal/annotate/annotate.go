// Package annotate decorates pager message text with tooltips for known
// codes.
package annotate

import (
	"context"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Segment is a run of message text. Tooltip is empty for plain text.
type Segment struct {
	Text    string
	Tooltip string
}

// Decorated reports whether the segment carries a tooltip.
func (s Segment) Decorated() bool {
	return s.Tooltip != ""
}

// Join concatenates the text of segs, which reproduces the annotated input.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Annotator owns a tooltip dictionary and the matcher compiled from it.
// Until a non-empty dictionary is installed, Annotate passes text through
// unchanged. It is safe for concurrent use.
type Annotator struct {
	logger *slog.Logger

	mu   sync.RWMutex
	dict *Dictionary
	re   *regexp.Regexp
}

// New returns a pass-through annotator.
func New() *Annotator {
	return &Annotator{logger: slog.Default()}
}

// WithLogger sets the logger used to report dictionary load failures.
func (a *Annotator) WithLogger(logger *slog.Logger) *Annotator {
	a.logger = logger
	return a
}

// SetDictionary installs d and rebuilds the matcher. A nil or empty
// dictionary returns the annotator to pass-through.
func (a *Annotator) SetDictionary(d *Dictionary) {
	re := compileMatcher(d)

	a.mu.Lock()
	a.dict = d
	a.re = re
	a.mu.Unlock()
}

// Load fetches the dictionary once through loader. Failures are logged and
// otherwise ignored; the annotator then stays pass-through.
func (a *Annotator) Load(ctx context.Context, loader Loader) {
	d, err := loader.LoadDictionary(ctx)
	if err != nil {
		if IsNotFound(err) {
			a.logger.Debug("no tooltip dictionary", "error", err)
		} else {
			a.logger.Warn("tooltip dictionary unavailable, annotations disabled", "error", err)
		}
		return
	}
	a.SetDictionary(d)
	a.logger.Debug("loaded tooltip dictionary", "tokens", d.Len())
}

// Ready reports whether a matcher is installed.
func (a *Annotator) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.re != nil
}

// Annotate splits text into plain and tooltip segments, left to right.
//
// Each dictionary key matches as a whole word, optionally followed by a run
// of uppercase letters (so "21D05M" matches key "21D05"). Keys are tried in
// dictionary order and the first alternative that matches at a position
// wins, even when a later key would match more text. A match is looked up
// verbatim first, then with its trailing uppercase run removed; a match
// with no tooltip either way is emitted as plain text.
func (a *Annotator) Annotate(text string) iter.Seq[Segment] {
	a.mu.RLock()
	re, dict := a.re, a.dict
	a.mu.RUnlock()

	return func(yield func(Segment) bool) {
		if text == "" || re == nil {
			yield(Segment{Text: text})
			return
		}

		last := 0
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[0] > last {
				if !yield(Segment{Text: text[last:loc[0]]}) {
					return
				}
			}
			token := text[loc[0]:loc[1]]
			if !yield(Segment{Text: token, Tooltip: resolve(dict, token)}) {
				return
			}
			last = loc[1]
		}
		if last < len(text) {
			yield(Segment{Text: text[last:]})
		}
	}
}

// Segments collects Annotate(text) into a slice.
func (a *Annotator) Segments(text string) []Segment {
	var segs []Segment
	for s := range a.Annotate(text) {
		segs = append(segs, s)
	}
	return segs
}

func resolve(dict *Dictionary, token string) string {
	if tip, ok := dict.Lookup(token); ok {
		return tip
	}
	if tip, ok := dict.Lookup(trimUpperSuffix(token)); ok {
		return tip
	}
	return ""
}

func trimUpperSuffix(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	})
}

// compileMatcher builds \b(?:k1|k2|...)(?:[A-Z]+)?\b from the dictionary
// keys. Go's regexp uses leftmost-first alternation, not longest match.
func compileMatcher(d *Dictionary) *regexp.Regexp {
	keys := d.Keys()
	if len(keys) == 0 {
		return nil
	}
	alts := make([]string, len(keys))
	for i, k := range keys {
		alts[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)(?:[A-Z]+)?\b`)
}
