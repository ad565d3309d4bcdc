// Package ui is the bubbletea front end: two synchronized panes over
// the shared application state.
package ui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eventcat/internal/appstate"
	"eventcat/internal/config"
	"eventcat/internal/domain"
	"eventcat/internal/viewsync"
)

type pane int

const (
	paneCatalogues pane = iota
	paneEvents
)

type inputMode int

const (
	inputNone inputMode = iota
	inputNewCatalogue
	inputRenameCatalogue
	inputImportFile
	inputExportFile
	inputConfirmDelete
)

// Model is the top-level bubbletea model
type Model struct {
	state  *appstate.AppState
	cfg    *config.Config
	styles *Styles

	catView *catalogueView
	evView  *eventView
	catSync *viewsync.Synchronizer
	evSync  *viewsync.Synchronizer

	focus  pane
	width  int
	height int

	mode  inputMode
	input textinput.Model

	status    string
	statusErr bool

	// set after the first quit attempt with unsaved changes
	quitWarned bool

	program *tea.Program
}

// NewModel wires the two panes and their synchronizers to the state
func NewModel(state *appstate.AppState, cfg *config.Config) *Model {
	m := &Model{
		state:   state,
		cfg:     cfg,
		styles:  NewStyles(),
		catView: newCatalogueView(state, cfg.UI.ShowTrash),
		evView:  newEventView(state),
		input:   textinput.New(),
	}
	m.input.CharLimit = 200
	m.catSync = viewsync.New(domain.KindCatalogue, m.catView, state)
	m.evSync = viewsync.New(domain.KindEvent, m.evView, state)

	state.Subscribe(m.catSync.HandleAction)
	state.Subscribe(m.evSync.HandleAction)
	state.Subscribe(m.handleAction)
	return m
}

// SetProgram stores the program handle for pager terminal handoff
func (m *Model) SetProgram(p *tea.Program) { m.program = p }

// handleAction keeps the event pane's contents in step with the
// catalogue selection: its rows derive from whichever catalogues are
// selected or implied, so catalogue-side actions reshape it too.
func (m *Model) handleAction(action domain.Action) {
	if action.Kind != domain.KindCatalogue {
		return
	}
	if action.Verb.IsMutation() || action.Verb.IsSelect() {
		m.evView.Reload()
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := m.height - 8
		if h < 4 {
			h = 4
		}
		m.evView.table.SetHeight(h)
		return m, nil

	case tea.KeyMsg:
		if m.mode == inputConfirmDelete {
			return m.updateConfirm(msg)
		}
		if m.mode != inputNone {
			return m.updatePrompt(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// any key other than a repeated quit clears the quit warning
	if msg.String() != "q" {
		m.quitWarned = false
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "q":
		if !m.state.IsClean() && !m.quitWarned {
			m.quitWarned = true
			m.setError("unsaved changes: press q again to quit, s to save")
			return m, nil
		}
		return m, tea.Quit

	case "tab":
		if m.focus == paneCatalogues {
			m.focus = paneEvents
		} else {
			m.focus = paneCatalogues
		}

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)

	case " ":
		m.toggleSelection()
	case "enter":
		m.selectOnly()
	case "esc":
		m.clearSelection()

	case "n":
		// an empty name falls back to the default catalogue name
		m.openPrompt(inputNewCatalogue, appstate.DefaultCatalogueName, "")

	case "e":
		m.report("event created", m.state.CreateEvent(time.Time{}, time.Time{}))

	case "c":
		sel := m.state.CurrentSelection()
		if sel.Kind != domain.KindCatalogue || len(sel.Selected) != 1 {
			m.setError("select exactly one catalogue to rename")
			return m, nil
		}
		m.openPrompt(inputRenameCatalogue, "new name", "")

	case "t":
		m.report("moved to trash", m.state.MoveSelectionToTrash())
	case "r":
		m.report("restored from trash", m.state.RestoreSelectionFromTrash())

	case "x":
		if !m.state.CurrentEnablement().DeletePermanently {
			m.setError("nothing selected")
			return m, nil
		}
		if m.cfg.UI.ConfirmDelete {
			m.mode = inputConfirmDelete
			return m, nil
		}
		m.report("deleted permanently", m.state.DeleteSelectionPermanently())

	case "u":
		m.report("undone", m.state.Undo())
	case "U":
		m.report("redone", m.state.Redo())

	case "s":
		m.report("saved", m.state.Save())

	case "i":
		m.openPrompt(inputImportFile, "import file (.json)", "")
	case "o":
		m.openPrompt(inputExportFile, "export file (.json)", "")

	case "R":
		m.catView.Reload()
		m.evView.Reload()
		m.state.RefreshSelection()
		m.setStatus("refreshed")

	case "H":
		return m, m.pagerCmd(historyContent(m.state.UndoStack()))
	case "?":
		return m, m.pagerCmd(helpContent())
	}
	return m, nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = inputNone
		m.report("deleted permanently", m.state.DeleteSelectionPermanently())
	case "n", "N", "esc":
		m.mode = inputNone
		m.setStatus("delete cancelled")
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		m.commitPrompt(mode, value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) commitPrompt(mode inputMode, value string) {
	switch mode {
	case inputNewCatalogue:
		m.report("catalogue created", m.state.CreateCatalogue(value))

	case inputRenameCatalogue:
		if value == "" {
			m.setError("empty name")
			return
		}
		sel := m.state.CurrentSelection()
		if sel.Kind != domain.KindCatalogue || len(sel.Selected) != 1 {
			m.setError("selection changed; rename aborted")
			return
		}
		m.report("renamed", m.state.RenameCatalogue(sel.Selected[0], value))

	case inputImportFile:
		if value == "" {
			return
		}
		filename := ensureJSONExt(value)
		raw, err := os.ReadFile(filename)
		if err != nil {
			m.setError(fmt.Sprintf("import: %v", err))
			return
		}
		m.report(fmt.Sprintf("imported %s", filename), m.state.Import(filename, raw))

	case inputExportFile:
		if value == "" {
			return
		}
		filename := ensureJSONExt(value)
		data, err := m.state.ExportSelection()
		if err != nil {
			m.setError(fmt.Sprintf("export: %v", err))
			return
		}
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			m.setError(fmt.Sprintf("export: %v", err))
			return
		}
		m.setStatus(fmt.Sprintf("exported to %s", filename))
	}
}

func (m *Model) openPrompt(mode inputMode, placeholder, initial string) {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) moveCursor(delta int) {
	if m.focus == paneCatalogues {
		m.catView.moveCursor(delta)
	} else {
		m.evView.moveCursor(delta)
	}
}

func (m *Model) toggleSelection() {
	if m.focus == paneCatalogues {
		m.catView.toggleCursor()
		m.catSync.SelectionChanged()
	} else {
		m.evView.toggleCursor()
		m.evSync.SelectionChanged()
	}
}

func (m *Model) selectOnly() {
	if m.focus == paneCatalogues {
		m.catView.selectOnly()
		m.catSync.SelectionChanged()
	} else {
		m.evView.selectOnly()
		m.evSync.SelectionChanged()
	}
}

func (m *Model) clearSelection() {
	if m.focus == paneCatalogues {
		m.catView.ClearSelection()
		m.catSync.SelectionChanged()
	} else {
		m.evView.ClearSelection()
		m.evSync.SelectionChanged()
	}
}

// pagerCmd hands the terminal to ov and returns to the UI afterwards
func (m *Model) pagerCmd(content string) tea.Cmd {
	return func() tea.Msg {
		if err := showInPager(m.program, content); err != nil {
			log.Printf("ui: pager: %v", err)
		}
		return nil
	}
}

func (m *Model) report(success string, err error) {
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.setStatus(success)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// ensureJSONExt appends .json when the name carries no extension yet
func ensureJSONExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return name
	}
	return name + ".json"
}

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	title := m.styles.Title.Render("eventcat")
	if !m.state.IsClean() {
		title += " " + m.styles.DirtyMarker.Render("*")
	}

	paneHeight := m.height - 6
	if paneHeight < 5 {
		paneHeight = 5
	}
	leftWidth := m.width / 3
	if leftWidth < 24 {
		leftWidth = 24
	}
	rightWidth := m.width - leftWidth - 6

	left := m.catView.render(m.styles, paneHeight, m.focus == paneCatalogues)
	right := m.evView.render(m.styles, m.focus == paneEvents)

	leftBorder := m.styles.BlurredBorder
	rightBorder := m.styles.BlurredBorder
	if m.focus == paneCatalogues {
		leftBorder = m.styles.FocusedBorder
	} else {
		rightBorder = m.styles.FocusedBorder
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(leftWidth).Height(paneHeight).Render(left),
		rightBorder.Width(rightWidth).Height(paneHeight).Render(right),
	)

	var bottom string
	switch m.mode {
	case inputConfirmDelete:
		n := len(m.state.CurrentSelection().Selected)
		bottom = m.styles.Confirm.Render(fmt.Sprintf("permanently delete %d selected? (y/n)", n))
	case inputNone:
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.StatusError
		}
		bottom = style.Render(m.status)
	default:
		bottom = m.input.View()
	}

	help := m.styles.Help.Render("space select · enter pick · n/e new · t/r trash · u/U undo · ? help · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, panes, bottom, help)
}
