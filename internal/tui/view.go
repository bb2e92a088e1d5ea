package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/viewmodel"
)

// Monochrome theme with per-recipient colors.
var (
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Faint(true)

	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b00000", Dark: "#ff6060"})

	loadingStyle = lipgloss.NewStyle().
			Italic(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"})

	// Annotated tokens: underlined, like a hover target.
	tokenStyle = lipgloss.NewStyle().
			Underline(true).
			Bold(true)

	tooltipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#005f87", Dark: "#87d7ff"}).
			Padding(0, 1)
)

// Column widths in terminal cells.
const (
	recipientWidth = 9
	sourceWidth    = 12
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	return strings.Join([]string{
		m.headerView(),
		m.searchBarView(),
		m.tableView(),
		m.tooltipView(),
		m.footerView(),
	}, "\n")
}

// headerView renders the title bar: what is shown and the fetch status.
func (m Model) headerView() string {
	title := "pokesag"
	if m.opts.Version != "" {
		title += " " + m.opts.Version
	}
	parts := []string{title, describeSearch(m.state.Search)}

	switch m.state.Status {
	case viewmodel.StatusLoading:
		parts = append(parts, spinnerFrames[m.spinnerFrame]+" loading")
	case viewmodel.StatusReady:
		parts = append(parts, fmt.Sprintf("%d pages", len(m.state.Messages)))
	}
	if m.vm.AutoRefresh() {
		parts = append(parts, "auto "+m.vm.RefreshInterval().String())
	}
	return titleBarStyle.Width(m.width).Render(truncateRunes(strings.Join(parts, "  │  "), max(m.width-2, 0)))
}

// describeSearch names the current search, e.g. `full-text "fire" p.2`.
func describeSearch(s query.SearchState) string {
	var what string
	switch s.Mode {
	case query.ModeLatest:
		what = "latest"
	case query.ModeFullText:
		what = fmt.Sprintf("full-text %q", s.Query)
	case query.ModeSubstring:
		what = fmt.Sprintf("substring %q", s.Query)
	case query.ModeSource:
		what = fmt.Sprintf("source %q", s.Query)
	}
	return fmt.Sprintf("%s p.%d", what, s.Page)
}

func (m Model) searchBarView() string {
	if m.searching || m.input.Value() != "" {
		return padRight(m.input.View(), m.width)
	}
	mode := "substring"
	if m.fullText {
		mode = "full-text"
	}
	return footerStyle.Render("/ to search (" + mode + ")")
}

// receivedWidth is the width of the receive time column for the clock.
func (m Model) receivedWidth() int {
	if m.clock == viewmodel.Clock12h {
		return len("2006-01-02 03:04:05 PM")
	}
	return len("2006-01-02 15:04:05")
}

func (m Model) contentWidth() int {
	return max(m.width-m.receivedWidth()-recipientWidth-sourceWidth-6, 10)
}

func (m Model) tableView() string {
	var b strings.Builder
	header := strings.Join([]string{
		padRight("Received", m.receivedWidth()),
		padRight("Recipient", recipientWidth),
		padRight("Source", sourceWidth),
		"Message",
	}, "  ")
	b.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(m.width, 0))))
	b.WriteString("\n")

	ps := m.pageSize()
	lines := 0
	switch {
	case m.state.Status == viewmodel.StatusError && len(m.rows) == 0:
		b.WriteString(errorStyle.Render(truncateRunes("Error: "+errString(m.state.Err), m.width)))
		b.WriteString("\n")
		lines++
	case m.state.Status == viewmodel.StatusLoading && len(m.rows) == 0:
		b.WriteString(loadingStyle.Render("Loading..."))
		b.WriteString("\n")
		lines++
	case len(m.rows) == 0 && m.state.Status == viewmodel.StatusReady:
		b.WriteString(loadingStyle.Render("No pages"))
		b.WriteString("\n")
		lines++
	}

	end := min(m.scrollOffset+ps, len(m.rows))
	for i := m.scrollOffset; i < end && lines < ps; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = cursorRowStyle.Render(padRight(line, m.width))
		}
		b.WriteString(line)
		b.WriteString("\n")
		lines++
	}
	for ; lines < ps; lines++ {
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderRow renders one table row. The recipient is drawn in its color and
// annotated tokens are underlined.
func (m Model) renderRow(r viewmodel.Row) string {
	recipient := lipgloss.NewStyle().
		Foreground(lipgloss.Color(r.Color.Hex())).
		Bold(true).
		Render(padRight(truncateRunes(r.Message.Recipient, recipientWidth), recipientWidth))

	return strings.Join([]string{
		padRight(r.Received, m.receivedWidth()),
		recipient,
		padRight(truncateRunes(r.Message.Source, sourceWidth), sourceWidth),
		renderSegments(r, m.contentWidth()),
	}, "  ")
}

// tooltipView lists the tooltips of the selected row's annotated tokens.
func (m Model) tooltipView() string {
	row, ok := m.selected()
	if !ok {
		return ""
	}
	tips := tooltips(row)
	if len(tips) == 0 {
		return ""
	}
	return tooltipStyle.Render(truncateRunes(strings.Join(tips, "  ·  "), max(m.width-2, 0)))
}

func (m Model) footerView() string {
	if m.flash != "" {
		return flashStyle.Render(truncateRunes(m.flash, m.width))
	}
	if m.state.Status == viewmodel.StatusError && len(m.rows) > 0 {
		return errorStyle.Render(truncateRunes("Error: "+errString(m.state.Err), m.width))
	}
	keys := "n/p page  g first  r refresh  a auto  t clock  f mode  ⏎ follow  / search  c clear  q quit"
	return footerStyle.Render(truncateRunes(keys, max(m.width-2, 0)))
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
