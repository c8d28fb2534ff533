package lookup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// dropdownFirstRow is the terminal row of the first result, used for
// mouse hit-testing. Rows above it: target bar, selection line, query
// input, status line.
const dropdownFirstRow = 4

var (
	activeTargetStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	inactiveTargetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	highlightStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	idStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewTargetBar())
	b.WriteRune('\n')
	b.WriteString(m.viewSelection())
	b.WriteRune('\n')
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	b.WriteString(m.viewStatus())

	if m.dropdown {
		b.WriteRune('\n')
		b.WriteString(m.viewDropdown())
	}

	b.WriteRune('\n')
	b.WriteString(m.viewHelp())
	return b.String()
}

// viewTargetBar renders the target-entity selector, one segment per
// candidate target, active one emphasized.
func (m Model) viewTargetBar() string {
	if len(m.targets.Names) == 0 {
		return dimStyle.Render(" no targets ")
	}
	var parts []string
	for i, name := range m.targets.Names {
		label := " " + name + " "
		if i == m.targets.Active {
			parts = append(parts, activeTargetStyle.Render(label))
		} else {
			parts = append(parts, inactiveTargetStyle.Render(label))
		}
	}
	bar := strings.Join(parts, " ")
	if m.zone == zoneTargets {
		bar += dimStyle.Render("  ←/→ to switch")
	}
	return bar
}

func (m Model) viewSelection() string {
	if !m.selection.IsSet() {
		return dimStyle.Render("Selection: (none)")
	}
	name := displayText(m.selection.DisplayName, m.contentWidth()/2)
	return selectionStyle.Render(fmt.Sprintf("Selection: %s (%s, %s)", name, m.selection.LogicalName, m.selection.ID))
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.state == stateFetching:
		return dimStyle.Render("Searching...")
	case m.statusMsg != "":
		return dimStyle.Render(m.statusMsg)
	case m.state == stateLoaded && m.count >= 0:
		return dimStyle.Render(fmt.Sprintf("%d matching records", m.count))
	default:
		return ""
	}
}

func (m Model) viewDropdown() string {
	var b strings.Builder
	w := m.contentWidth()
	for i, r := range m.results {
		name := displayText(r.DisplayName, w-40)
		line := name + "  " + idStyle.Render(r.RecordID)
		if i == m.highlight {
			b.WriteString(highlightStyle.Render("> ") + highlightStyle.Render(line))
		} else {
			b.WriteString("  " + normalStyle.Render(line))
		}
		if i < len(m.results)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) viewHelp() string {
	parts := []string{"enter pick", "↑/↓ move", "esc close", "ctrl+x clear"}
	if len(m.targets.Names) > 1 {
		parts = append(parts, "tab targets")
	}
	if m.loader != nil {
		parts = append(parts, "ctrl+r reload")
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

// contentWidth is the usable width, with a floor for pre-WindowSizeMsg
// rendering.
func (m Model) contentWidth() int {
	if m.width < 40 {
		return 80
	}
	return m.width
}

// displayText sanitizes and truncates a server-provided string for
// terminal rendering.
func displayText(s string, maxWidth int) string {
	if maxWidth < 8 {
		maxWidth = 8
	}
	return MiddleTruncate(ValidateUTF8(StripANSI(s)), maxWidth)
}
