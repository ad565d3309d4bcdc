package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"eventcat/internal/undo"
)

// historyMenuCap bounds how many undo and redo steps the history
// listing shows in each direction
const historyMenuCap = 10

// helpContent renders the key reference shown in the pager
func helpContent() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	var help strings.Builder
	line := func(key, desc string) {
		help.WriteString(fmt.Sprintf("  %-18s %s\n", keyStyle.Render(key), descStyle.Render(desc)))
	}

	help.WriteString(titleStyle.Render("eventcat Help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Navigation"))
	help.WriteString("\n")
	line("↑/↓, j/k", "Move cursor")
	line("Tab", "Switch between catalogue and event pane")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Selection"))
	help.WriteString("\n")
	line("Space", "Toggle selection of the current row")
	line("Enter", "Select only the current row")
	line("Esc", "Clear the selection")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Editing"))
	help.WriteString("\n")
	line("n", "New catalogue")
	line("e", "New event in the selected catalogue")
	line("c", "Rename the selected catalogue")
	line("t", "Move selection to trash")
	line("r", "Restore selection from trash")
	line("x", "Delete selection permanently")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("History"))
	help.WriteString("\n")
	line("u", "Undo")
	line("U", "Redo")
	line("H", "Show the history listing")
	line("s", "Save")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Data"))
	help.WriteString("\n")
	line("i", "Import catalogues from a JSON file")
	line("o", "Export the selection to a JSON file")
	line("R", "Refresh views and re-issue the selection")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	line("?", "Show this help")
	line("q", "Quit")

	return help.String()
}

// historyContent renders the capped undo/redo listing around the
// current history position
func historyContent(stack *undo.Stack) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	currentStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
	dimStyle := lipgloss.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	b.WriteString("\n")

	undoEntries, undoOverflow := stack.UndoEntries(historyMenuCap)
	redoEntries, redoOverflow := stack.RedoEntries(historyMenuCap)

	if undoOverflow > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d earlier", undoOverflow)))
		b.WriteString("\n")
	}
	// UndoEntries is most-recent-first; print oldest at the top
	for i := len(undoEntries) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("  %s\n", undoEntries[i].Label))
	}
	b.WriteString(currentStyle.Render("  ── you are here ──"))
	b.WriteString("\n")
	for _, e := range redoEntries {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", e.Label)))
		b.WriteString("\n")
	}
	if redoOverflow > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d later", redoOverflow)))
		b.WriteString("\n")
	}
	if len(undoEntries) == 0 && len(redoEntries) == 0 {
		b.WriteString(dimStyle.Render("  nothing recorded yet"))
		b.WriteString("\n")
	}
	return b.String()
}
