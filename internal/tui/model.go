// Package tui provides a terminal pager viewer.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/config"
	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/viewmodel"
)

// sourcePrefix in the search bar selects a source search.
const sourcePrefix = "source:"

// Options configures the TUI.
type Options struct {
	// FullText selects full-text search for plain queries; otherwise
	// plain queries are substring searches.
	FullText    bool
	Clock24h    bool
	AutoRefresh bool
	Version     string
	// Dictionary, when set, is loaded once at startup for tooltips.
	Dictionary annotate.Loader
	// Prefs, when set, receives the toggles each time one changes.
	Prefs PrefsSaver
}

// PrefsSaver remembers viewer toggles between sessions.
type PrefsSaver interface {
	SavePrefs(config.Prefs) error
}

// stateMsg carries a view model snapshot into the program.
type stateMsg struct {
	state viewmodel.State
}

// dictionaryLoadedMsg reports that the tooltip dictionary load finished.
type dictionaryLoadedMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// flashClearMsg clears a flash message if it is still the current one.
type flashClearMsg struct {
	id int
}

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerInterval = 80 * time.Millisecond
	flashDuration   = 3 * time.Second
)

// Model is the TUI model following the Elm architecture. All search state
// lives in the view model; Model only holds presentation state.
type Model struct {
	vm   *viewmodel.ViewModel
	opts Options

	state viewmodel.State
	rows  []viewmodel.Row

	input     textinput.Model
	searching bool
	fullText  bool
	clock     viewmodel.Clock

	cursor       int
	scrollOffset int
	width        int
	height       int

	spinnerFrame  int
	spinnerActive bool

	flash   string
	flashID int

	quitting bool
}

// New creates a Model over vm. The caller forwards vm's snapshots with
// Watch; Init issues the first request.
func New(vm *viewmodel.ViewModel, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.CharLimit = 256

	m := Model{
		vm:       vm,
		opts:     opts,
		state:    vm.State(),
		input:    ti,
		fullText: opts.FullText,
		clock:    viewmodel.Clock24h,

		spinnerActive: true,
	}
	if !opts.Clock24h {
		m.clock = viewmodel.Clock12h
	}
	m.setPlaceholder()
	return m
}

// Watch forwards every view model snapshot to p. Program.Send blocks
// while Update runs, so the model only dispatches from commands.
func Watch(vm *viewmodel.ViewModel, p *tea.Program) {
	vm.Subscribe(func(s viewmodel.State) {
		p.Send(stateMsg{state: s})
	})
}

// Init loads the latest pages and starts the dictionary load.
func (m Model) Init() tea.Cmd {
	vm := m.vm
	cmds := []tea.Cmd{spinnerTick(), func() tea.Msg {
		vm.Start()
		return nil
	}}
	if m.opts.Dictionary != nil {
		a, loader := m.vm.Annotator(), m.opts.Dictionary
		cmds = append(cmds, func() tea.Msg {
			a.Load(context.Background(), loader)
			return dictionaryLoadedMsg{}
		})
	}
	if m.opts.AutoRefresh {
		cmds = append(cmds, func() tea.Msg {
			if err := vm.SetAutoRefresh(true); err != nil {
				return flashMsg{text: "Auto-refresh unavailable: " + err.Error()}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// flashMsg shows text in the footer for a few seconds.
type flashMsg struct {
	text string
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.input.Width = max(m.width-4, 10)
		m.clampCursor()
		return m, nil

	case stateMsg:
		// Listeners run outside the view model's lock, so snapshots can
		// arrive out of order.
		if msg.state.Version <= m.state.Version {
			return m, nil
		}
		searchChanged := msg.state.Search != m.state.Search
		m.state = msg.state
		m.rerender()
		if searchChanged {
			m.cursor = 0
			m.scrollOffset = 0
		}
		m.clampCursor()
		if m.state.Status == viewmodel.StatusLoading {
			return m, m.startSpinner()
		}
		return m, nil

	case dictionaryLoadedMsg:
		m.rerender()
		return m, nil

	case spinnerTickMsg:
		if m.state.Status == viewmodel.StatusLoading {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil

	case flashMsg:
		return m.showFlash(msg.text)

	case flashClearMsg:
		if msg.id == m.flashID {
			m.flash = ""
		}
		return m, nil
	}
	return m, nil
}

// rerender rebuilds display rows from the current snapshot.
func (m *Model) rerender() {
	m.rows = viewmodel.Render(m.state.Messages, m.vm.Annotator(), m.clock)
}

// submitInput turns the search bar contents into a view model event.
func (m Model) submitInput() viewmodel.Event {
	return parseSearchInput(m.input.Value(), m.fullText)
}

// parseSearchInput maps search bar text to an event. Empty text returns to
// the latest pages; "source:" selects a source search.
func parseSearchInput(text string, fullText bool) viewmodel.Event {
	text = strings.TrimSpace(text)
	if text == "" {
		return viewmodel.Clear{}
	}
	if len(text) >= len(sourcePrefix) && strings.EqualFold(text[:len(sourcePrefix)], sourcePrefix) {
		return viewmodel.Submit{Mode: query.ModeSource, Query: text[len(sourcePrefix):]}
	}
	if fullText {
		return viewmodel.Submit{Mode: query.ModeFullText, Query: text}
	}
	return viewmodel.Submit{Mode: query.ModeSubstring, Query: text}
}

func (m *Model) setPlaceholder() {
	if m.fullText {
		m.input.Placeholder = "full-text search (Tab: substring, source:NAME)"
	} else {
		m.input.Placeholder = "substring search (Tab: full-text, source:NAME)"
	}
}

// pageSize is the number of table rows that fit on screen.
func (m Model) pageSize() int {
	// title (1) + search bar (1) + header (1) + separator (1) + tooltip (1) + footer (1)
	return max(m.height-6, 1)
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	ps := m.pageSize()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+ps {
		m.scrollOffset = m.cursor - ps + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

// selected returns the row under the cursor.
func (m Model) selected() (viewmodel.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return viewmodel.Row{}, false
	}
	return m.rows[m.cursor], true
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// startSpinner returns a spinnerTick command if the spinner isn't already
// active, preventing multiple concurrent tick chains.
func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	m.spinnerFrame = 0
	return spinnerTick()
}

// savePrefs writes the current toggles off the update loop.
func (m Model) savePrefs() tea.Cmd {
	if m.opts.Prefs == nil {
		return nil
	}
	saver := m.opts.Prefs
	p := config.Prefs{
		AutoRefresh: m.vm.AutoRefresh(),
		FullText:    m.fullText,
		Clock24h:    m.clock == viewmodel.Clock24h,
	}
	return func() tea.Msg {
		if err := saver.SavePrefs(p); err != nil {
			return flashMsg{text: "Could not save settings: " + err.Error()}
		}
		return nil
	}
}

// withSave adds the prefs write to the result of a toggle.
func (m Model) withSave(next tea.Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	return next, tea.Batch(cmd, next.(Model).savePrefs())
}

func (m Model) showFlash(text string) (tea.Model, tea.Cmd) {
	m.flashID++
	m.flash = text
	id := m.flashID
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{id: id}
	})
}
