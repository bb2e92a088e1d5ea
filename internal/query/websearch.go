package query

import (
	"strings"
	"unicode"
)

// Term is one word or quoted phrase of a full-text expression.
type Term struct {
	Text    string
	Phrase  bool
	Negated bool
}

// WebSearch is a parsed full-text expression: every group must match, and a
// group matches when any of its terms does.
type WebSearch struct {
	Groups [][]Term
}

// Empty reports whether the expression has no usable terms.
func (w WebSearch) Empty() bool {
	return len(w.Groups) == 0
}

// ParseWebSearch reads the syntax search engines accept: bare words are
// ANDed, "double quotes" make a phrase, a leading - negates a term, and the
// word "or" joins its neighbours into alternatives. An unterminated quote
// runs to the end of the input. A leading "or" is an ordinary word and a
// trailing one is dropped.
func ParseWebSearch(input string) WebSearch {
	var (
		out       WebSearch
		pendingOr bool
	)
	add := func(t Term) {
		if pendingOr && len(out.Groups) > 0 {
			last := len(out.Groups) - 1
			out.Groups[last] = append(out.Groups[last], t)
		} else {
			out.Groups = append(out.Groups, []Term{t})
		}
		pendingOr = false
	}

	rs := []rune(input)
	for i := 0; i < len(rs); {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}

		negated := false
		if rs[i] == '-' {
			negated = true
			i++
			if i >= len(rs) || unicode.IsSpace(rs[i]) {
				continue
			}
		}

		if rs[i] == '"' {
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			text := strings.TrimSpace(string(rs[i+1 : j]))
			i = j + 1
			if text != "" {
				add(Term{Text: text, Phrase: true, Negated: negated})
			}
			continue
		}

		j := i
		for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '"' {
			j++
		}
		word := string(rs[i:j])
		i = j

		if !negated && strings.EqualFold(word, "or") && len(out.Groups) > 0 {
			pendingOr = true
			continue
		}
		add(Term{Text: word, Negated: negated})
	}
	return out
}

// ftsQuote wraps text as an FTS5 string so none of it is read as an
// operator.
func ftsQuote(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

const ftsSubquery = "SELECT rowid FROM pages_fts WHERE pages_fts MATCH ?"

// ftsCondition renders the expression as id IN/NOT IN subqueries against
// pages_fts. Positive alternatives of a group share one MATCH.
func (w WebSearch) ftsCondition() (string, []any) {
	if w.Empty() {
		return "1 = 0", nil
	}
	var (
		groups []string
		args   []any
	)
	for _, g := range w.Groups {
		var (
			pos     []string
			neg     []string
			negArgs []any
		)
		for _, t := range g {
			if t.Negated {
				neg = append(neg, "id NOT IN ("+ftsSubquery+")")
				negArgs = append(negArgs, ftsQuote(t.Text))
				continue
			}
			pos = append(pos, ftsQuote(t.Text))
		}
		alts := neg
		if len(pos) > 0 {
			alts = append([]string{"id IN (" + ftsSubquery + ")"}, neg...)
			args = append(args, strings.Join(pos, " OR "))
		}
		args = append(args, negArgs...)
		groups = append(groups, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(groups, " AND "), args
}

// likeCondition is the fallback when SQLite was built without FTS5.
func (w WebSearch) likeCondition() (string, []any) {
	if w.Empty() {
		return "1 = 0", nil
	}
	var (
		groups []string
		args   []any
	)
	for _, g := range w.Groups {
		alts := make([]string, 0, len(g))
		for _, t := range g {
			op := "LIKE"
			if t.Negated {
				op = "NOT LIKE"
			}
			alts = append(alts, FoldFunc+"(content) "+op+` ? ESCAPE '\'`)
			args = append(args, "%"+EscapeLike(Fold(t.Text))+"%")
		}
		groups = append(groups, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(groups, " AND "), args
}
