package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/pokesag/pokesag/internal/viewmodel"
)

// padRight pads a string with spaces to fill width terminal cells.
// Uses lipgloss.Width to correctly handle ANSI codes and full-width characters.
func padRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	sw := lipgloss.Width(s)
	if sw >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// truncateRunes truncates a string to fit within maxWidth terminal cells,
// flattening line breaks and tabs first.
func truncateRunes(s string, maxWidth int) string {
	s = flatten(s)
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\t", " ")
}

// renderSegments styles the annotated message text and fits it to width
// cells. Truncation happens after styling so a cut token keeps its style.
func renderSegments(r viewmodel.Row, width int) string {
	var b strings.Builder
	for _, seg := range r.Segments {
		text := flatten(seg.Text)
		if seg.Decorated() {
			b.WriteString(tokenStyle.Render(text))
		} else {
			b.WriteString(text)
		}
	}
	out := b.String()
	if lipgloss.Width(out) <= width {
		return out
	}
	return ansi.Truncate(out, width, "...")
}

// tooltips returns "TOKEN: tooltip" for each distinct annotated token of r,
// in order of appearance.
func tooltips(r viewmodel.Row) []string {
	var tips []string
	seen := make(map[string]bool)
	for _, seg := range r.Segments {
		if !seg.Decorated() || seen[seg.Text] {
			continue
		}
		seen[seg.Text] = true
		tips = append(tips, seg.Text+": "+seg.Tooltip)
	}
	return tips
}
