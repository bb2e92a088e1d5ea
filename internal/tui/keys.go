package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pokesag/pokesag/internal/viewmodel"
)

// dispatch returns a command that applies e to the view model.
func (m Model) dispatch(e viewmodel.Event) tea.Cmd {
	vm := m.vm
	return func() tea.Msg {
		vm.Dispatch(e)
		return nil
	}
}

// handleSearchKeys handles keys while the search bar has focus.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.input.Blur()
		return m, m.dispatch(m.submitInput())

	case "esc":
		m.searching = false
		m.input.Blur()
		return m, nil

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.fullText = !m.fullText
		m.setPlaceholder()
		return m, m.savePrefs()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeys handles keys while browsing the table.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.searching = true
		cmd := m.input.Focus()
		return m, cmd

	case "esc", "c":
		m.input.SetValue("")
		return m, m.dispatch(viewmodel.Clear{})

	case "n", "right", "l":
		return m, m.dispatch(viewmodel.NextPage{})

	case "p", "left", "h":
		if m.state.Search.Page <= 1 {
			return m, nil
		}
		return m, m.dispatch(viewmodel.PrevPage{})

	case "g", "home":
		// Always fetches, so on page 1 this doubles as a refresh.
		m.cursor = 0
		m.scrollOffset = 0
		return m, m.dispatch(viewmodel.JumpPage{Page: 1})

	case "r":
		return m, m.dispatch(viewmodel.Refresh{})

	case "a":
		on := !m.vm.AutoRefresh()
		if err := m.vm.SetAutoRefresh(on); err != nil {
			return m.showFlash("Auto-refresh unavailable: " + err.Error())
		}
		if on {
			return m.withSave(m.showFlash("Auto-refresh on, every " + m.vm.RefreshInterval().String()))
		}
		return m.withSave(m.showFlash("Auto-refresh off"))

	case "t":
		m.clock = m.clock.Toggle()
		m.rerender()
		return m, m.savePrefs()

	case "f":
		m.fullText = !m.fullText
		m.setPlaceholder()
		if m.fullText {
			return m.withSave(m.showFlash("Plain queries use full-text search"))
		}
		return m.withSave(m.showFlash("Plain queries use substring search"))

	case "enter":
		row, ok := m.selected()
		if !ok || row.Message.Recipient == "" {
			return m, nil
		}
		m.input.SetValue(row.Message.Recipient)
		return m, m.dispatch(viewmodel.FollowRecipient{Recipient: row.Message.Recipient})

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.clampCursor()
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.clampCursor()
		}
		return m, nil

	case "pgdown", "ctrl+d":
		m.cursor += m.pageSize()
		m.clampCursor()
		return m, nil

	case "pgup", "ctrl+u":
		m.cursor -= m.pageSize()
		m.clampCursor()
		return m, nil
	}
	return m, nil
}
