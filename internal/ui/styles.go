package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	PaneTitle     lipgloss.Style
	FocusedBorder lipgloss.Style
	BlurredBorder lipgloss.Style
	Cursor        lipgloss.Style
	SelectionBg   lipgloss.Style
	Trash         lipgloss.Style
	Implied       lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	StatusSuccess lipgloss.Style
	Confirm       lipgloss.Style
	Help          lipgloss.Style
	DirtyMarker   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		PaneTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		FocusedBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1),
		BlurredBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Cursor:        lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Trash:         lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Faint(true),
		Implied:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Dim:           lipgloss.NewStyle().Faint(true),
		Status:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Confirm:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		Help:          lipgloss.NewStyle().Faint(true),
		DirtyMarker:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}
