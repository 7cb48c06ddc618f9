package tui

import (
	"qstrgen/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Result  model.AnalysisResult
	Output  string // the generated table, as it would be written
	Loading bool
	Err     error
	load    Loader

	// UI State
	SelectedIdx int
	WindowSize  tea.WindowSizeMsg

	// View Modes
	ShowOutput      bool
	ShowDiagnostics bool
	ShowHelp        bool

	// Filter State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices of Result.Entries to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model
}

// InitialModel returns the initial state. load runs once from Init.
func InitialModel(load Loader) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Symbol..."
	ti.CharLimit = 64
	ti.Width = 24

	return AppModel{
		Loading:         true,
		load:            load,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(40, 20),
	}
}

// Selected returns the entry under the cursor.
func (m AppModel) Selected() (model.Entry, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return model.Entry{}, false
	}
	return m.Result.Entries[m.FilteredIndices[m.SelectedIdx]], true
}
