package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qstrgen/internal/model"
	"qstrgen/internal/synth"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	guardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	targetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	adviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange
)

const helpText = `Keys

  ↑/↓ or k/j   Move through the symbol list
  g/G          First / last symbol
  pgup/pgdown  Scroll the details pane
  / or w       Filter symbols by name (Enter keeps, Esc clears)
  o            Show the generated table
  d            Show diagnostics
  ?            Toggle this help
  q            Quit

Icons

  ● unconditional   ◇ one guard   ≡ several guards`

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Scanning sources... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	// Subtracting 6 for horizontal margin (borders x2 + buffer)
	width := m.WindowSize.Width
	height := m.WindowSize.Height

	netWidth := width - 6
	if netWidth < 20 {
		netWidth = 20
	}
	leftWidth := netWidth / 2
	rightWidth := netWidth - leftWidth

	boxHeight := height - 6
	if boxHeight < 6 {
		boxHeight = 6
	}
	interiorHeight := boxHeight - 2

	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	borderColor := lipgloss.Color("63")

	// LEFT PANEL: symbols
	var leftView strings.Builder
	leftView.WriteString(titleStyle.Render(fmt.Sprintf("Symbols (%d/%d)", len(m.FilteredIndices), len(m.Result.Entries))))
	leftView.WriteString("\n\n")

	// Windowing Logic for Left Panel
	visibleItems := interiorHeight - 2
	if visibleItems < 1 {
		visibleItems = 1
	}
	startIdx := 0
	endIdx := len(m.FilteredIndices)
	if len(m.FilteredIndices) > visibleItems {
		if m.SelectedIdx >= visibleItems/2 {
			startIdx = m.SelectedIdx - (visibleItems / 2)
		}
		if startIdx+visibleItems > len(m.FilteredIndices) {
			startIdx = len(m.FilteredIndices) - visibleItems
		}
		endIdx = startIdx + visibleItems
	}

	for i := startIdx; i < endIdx; i++ {
		entry := m.Result.Entries[m.FilteredIndices[i]]
		line := fmt.Sprintf("%s %s", synth.Icon(entry), entry.Name)
		if n := len(entry.Guards); n > 1 {
			line += fmt.Sprintf(" (%d guards)", n)
		}
		if len(line) > leftWidth-2 {
			line = line[:leftWidth-5] + "..."
		}
		if i == m.SelectedIdx {
			leftView.WriteString(selectedStyle.Render(line))
		} else {
			leftView.WriteString(normalStyle.Render(line))
		}
		leftView.WriteString("\n")
	}
	if len(m.FilteredIndices) == 0 {
		leftView.WriteString(dimStyle.Render("No matching symbols."))
	}

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(leftView.String())

	// RIGHT PANEL: details, generated output or diagnostics
	rightTitle := "Details"
	switch {
	case m.ShowOutput:
		rightTitle = "Generated table"
	case m.ShowDiagnostics:
		rightTitle = "Diagnostics"
	}
	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("205")).
		Render(titleStyle.Render(rightTitle) + "\n\n" + m.DetailsViewport.View())

	help := "Help: ↑/↓: Navigate • /: Filter • o: Output • d: Diagnostics • ?: Help • q: Quit"
	footer := "\n\n" + help
	if m.InputMode {
		footer = fmt.Sprintf("\n\nFilter: %s", m.InputBuffer.View())
	} else if m.SearchActive {
		footer = fmt.Sprintf("\n\nFilter: %q (Esc to clear) • %s", m.InputBuffer.Value(), help)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right) + footer
}

// detailsContent renders the right pane body for the current mode.
func (m AppModel) detailsContent() string {
	if m.ShowOutput {
		return m.Output
	}
	if m.ShowDiagnostics {
		if len(m.Result.Diagnostics) == 0 {
			return "No diagnostics."
		}
		var sb strings.Builder
		for _, d := range m.Result.Diagnostics {
			sb.WriteString(adviceStyle.Render("! "+d) + "\n")
		}
		return sb.String()
	}

	entry, ok := m.Selected()
	if !ok {
		return "No entries found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Symbol:     %s\n", entry.Name))
	if entry.Ident != entry.Name {
		sb.WriteString(fmt.Sprintf("Identifier: %s\n", entry.Ident))
	}

	if entry.Unconditional {
		sb.WriteString("\n" + model.IconUnconditional + " Unconditional: always emitted.\n")
	} else {
		sb.WriteString("\nGuards:\n")
		for i, g := range entry.Guards {
			kw := "#elif"
			if i == 0 {
				kw = "#if"
			}
			sb.WriteString(fmt.Sprintf("  %-5s %s\n", kw, guardStyle.Render(g)))
		}
		sb.WriteString("  #endif\n")
	}

	sb.WriteString(fmt.Sprintf("\nReferenced at %d site(s):\n", len(entry.Sites)))
	for _, s := range entry.Sites {
		sb.WriteString("\n" + model.IconSite + " " + s.String() + "\n")
		ctx := model.GetLineContext(s.File, s.Line, 2)
		if ctx.ErrorMsg != "" {
			sb.WriteString(dimStyle.Render("  "+ctx.ErrorMsg) + "\n")
			continue
		}
		for _, l := range ctx.Lines {
			text := fmt.Sprintf("%5d  %s", l.Number, l.Text)
			if l.Target {
				sb.WriteString(targetStyle.Render(text) + "\n")
			} else {
				sb.WriteString(dimStyle.Render(text) + "\n")
			}
		}
	}
	return sb.String()
}

func (m AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := w * 80 / 100
	if helpWidth < 40 {
		helpWidth = 40
	}
	if helpWidth > w-4 {
		helpWidth = w - 4
	}
	helpHeight := h - 6
	if helpHeight < 5 {
		helpHeight = 5
	}

	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Height(helpHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Render(helpText)

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, LoadCmd(m.load))
}
