package tui

import (
	"strings"

	"qstrgen/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Loader produces the analysis and the generated table text.
type Loader func() (model.AnalysisResult, string, error)

// MsgTableReady carries the finished analysis.
type MsgTableReady struct {
	Result model.AnalysisResult
	Output string
}

// MsgError indicates an error occurred.
type MsgError error

// LoadCmd runs the loader in the background.
func LoadCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		res, out, err := load()
		if err != nil {
			return MsgError(err)
		}
		return MsgTableReady{Result: res, Output: out}
	}
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.DetailsViewport.Width = msg.Width/2 - 4
		m.DetailsViewport.Height = msg.Height - 9 // title, borders, footer
		if m.DetailsViewport.Height < 3 {
			m.DetailsViewport.Height = 3
		}
		m.refreshDetails()
		return m, nil

	case MsgTableReady:
		m.Loading = false
		m.Result = msg.Result
		m.Output = msg.Output
		m.applyFilter()
		m.refreshDetails()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.applyFilter()
				m.refreshDetails()
				return m, nil
			case tea.KeyEsc:
				m.clearFilter()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			// Filter as the user types.
			m.applyFilter()
			m.refreshDetails()
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "?", "esc":
				m.ShowHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.clearFilter()
				return m, nil
			}
			if m.ShowOutput || m.ShowDiagnostics {
				m.ShowOutput = false
				m.ShowDiagnostics = false
				m.refreshDetails()
			}
			return m, nil
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.refreshDetails()
			}
			return m, nil
		case "down", "j":
			if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
				m.refreshDetails()
			}
			return m, nil
		case "home", "g":
			m.SelectedIdx = 0
			m.refreshDetails()
			return m, nil
		case "end", "G":
			if len(m.FilteredIndices) > 0 {
				m.SelectedIdx = len(m.FilteredIndices) - 1
			}
			m.refreshDetails()
			return m, nil
		case "o":
			m.ShowOutput = !m.ShowOutput
			m.ShowDiagnostics = false
			m.refreshDetails()
			return m, nil
		case "d":
			m.ShowDiagnostics = !m.ShowDiagnostics
			m.ShowOutput = false
			m.refreshDetails()
			return m, nil
		case "?":
			m.ShowHelp = true
			return m, nil
		case "/", "w":
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		}
		// Anything else scrolls the details pane (pgup/pgdown, ctrl+u/d...).
		m.DetailsViewport, cmd = m.DetailsViewport.Update(msg)
		return m, cmd
	}

	return m, cmd
}

func (m *AppModel) clearFilter() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.applyFilter()
	m.refreshDetails()
}

// applyFilter keeps the entries whose name contains the search term.
func (m *AppModel) applyFilter() {
	term := strings.ToLower(m.InputBuffer.Value())
	m.SearchActive = term != ""

	m.FilteredIndices = m.FilteredIndices[:0]
	for i, e := range m.Result.Entries {
		if term == "" || strings.Contains(strings.ToLower(e.Name), term) {
			m.FilteredIndices = append(m.FilteredIndices, i)
		}
	}

	// Bounds check
	if m.SelectedIdx >= len(m.FilteredIndices) {
		if len(m.FilteredIndices) > 0 {
			m.SelectedIdx = len(m.FilteredIndices) - 1
		} else {
			m.SelectedIdx = 0
		}
	}
}

func (m *AppModel) refreshDetails() {
	m.DetailsViewport.SetContent(m.detailsContent())
	m.DetailsViewport.GotoTop()
}
