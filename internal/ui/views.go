package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"eventcat/internal/appstate"
	"eventcat/internal/domain"
)

// catalogueView is the left pane: the catalogue list with the trash
// section at the bottom. It implements viewsync.View so the selection
// synchronizer can drive it.
type catalogueView struct {
	state     *appstate.AppState
	showTrash bool

	rows     []catalogueRow
	cursor   int
	selected map[string]bool
	order    []string // selection order
}

type catalogueRow struct {
	uuid    string
	name    string
	removed bool
}

func newCatalogueView(state *appstate.AppState, showTrash bool) *catalogueView {
	v := &catalogueView{
		state:     state,
		showTrash: showTrash,
		selected:  make(map[string]bool),
	}
	v.Reload()
	return v
}

// Reload rebuilds the rows from the store: live catalogues first, then
// the trash section
func (v *catalogueView) Reload() {
	cats, err := v.state.Store().Catalogues(v.showTrash)
	if err != nil {
		log.Printf("ui: loading catalogues: %v", err)
		return
	}
	v.rows = v.rows[:0]
	for _, cat := range cats {
		if !cat.Removed {
			v.rows = append(v.rows, catalogueRow{uuid: cat.UUID, name: cat.Name})
		}
	}
	for _, cat := range cats {
		if cat.Removed {
			v.rows = append(v.rows, catalogueRow{uuid: cat.UUID, name: cat.Name, removed: true})
		}
	}

	// drop selection entries whose rows are gone
	present := make(map[string]bool, len(v.rows))
	for _, row := range v.rows {
		present[row.uuid] = true
	}
	var order []string
	for _, id := range v.order {
		if present[id] {
			order = append(order, id)
		} else {
			delete(v.selected, id)
		}
	}
	v.order = order
	if v.cursor >= len(v.rows) {
		v.cursor = len(v.rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *catalogueView) ClearSelection() {
	v.selected = make(map[string]bool)
	v.order = nil
}

func (v *catalogueView) SelectUUID(uuid string) bool {
	for i, row := range v.rows {
		if row.uuid == uuid {
			if !v.selected[uuid] {
				v.selected[uuid] = true
				v.order = append(v.order, uuid)
			}
			v.cursor = i
			return true
		}
	}
	return false
}

func (v *catalogueView) SelectedUUIDs() []string {
	return append([]string(nil), v.order...)
}

func (v *catalogueView) moveCursor(delta int) {
	v.cursor += delta
	if v.cursor < 0 {
		v.cursor = 0
	}
	if v.cursor >= len(v.rows) {
		v.cursor = len(v.rows) - 1
	}
}

// toggleCursor flips the selection of the row under the cursor
func (v *catalogueView) toggleCursor() {
	if v.cursor >= len(v.rows) {
		return
	}
	id := v.rows[v.cursor].uuid
	if v.selected[id] {
		delete(v.selected, id)
		for i, s := range v.order {
			if s == id {
				v.order = append(v.order[:i], v.order[i+1:]...)
				break
			}
		}
	} else {
		v.selected[id] = true
		v.order = append(v.order, id)
	}
}

// selectOnly replaces the selection with the row under the cursor
func (v *catalogueView) selectOnly() {
	if v.cursor >= len(v.rows) {
		return
	}
	v.ClearSelection()
	id := v.rows[v.cursor].uuid
	v.selected[id] = true
	v.order = []string{id}
}

func (v *catalogueView) render(styles *Styles, height int, focused bool) string {
	var b strings.Builder
	b.WriteString(styles.PaneTitle.Render("Catalogues"))
	b.WriteString("\n")

	// catalogues containing the selected events get the implied style
	implied := make(map[string]bool)
	if sel := v.state.CurrentSelection(); sel.Kind == domain.KindEvent {
		for _, id := range sel.ImpliedCatalogues {
			implied[id] = true
		}
	}

	trashHeader := false
	lines := 0
	for i, row := range v.rows {
		if lines >= height-2 {
			b.WriteString(styles.Dim.Render(fmt.Sprintf("  … %d more", len(v.rows)-i)))
			break
		}
		if row.removed && !trashHeader {
			b.WriteString(styles.Trash.Render("── Trash ──"))
			b.WriteString("\n")
			trashHeader = true
			lines++
		}

		prefix := "  "
		if focused && i == v.cursor {
			prefix = styles.Cursor.Render("> ")
		}
		name := row.name
		if row.removed {
			name = styles.Trash.Render(name)
		} else if implied[row.uuid] {
			name = styles.Implied.Render(name)
		}
		line := prefix + name
		if v.selected[row.uuid] {
			line = styles.SelectionBg.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		lines++
	}
	if len(v.rows) == 0 {
		b.WriteString(styles.Dim.Render("  no catalogues yet — press n"))
	}
	return b.String()
}

// eventView is the right pane: a table of the events contained in the
// currently relevant catalogues. It implements viewsync.View as well.
type eventView struct {
	state *appstate.AppState
	table table.Model

	rows     []eventRow
	selected map[string]bool
	order    []string
}

type eventRow struct {
	uuid   string
	start  string
	stop   string
	author string
}

func newEventView(state *appstate.AppState) *eventView {
	columns := []table.Column{
		{Title: " ", Width: 2},
		{Title: "Start", Width: 20},
		{Title: "Stop", Width: 20},
		{Title: "Author", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(12),
	)
	return &eventView{
		state:    state,
		table:    t,
		selected: make(map[string]bool),
	}
}

// sourceCatalogues returns the catalogues whose events this pane shows
func (v *eventView) sourceCatalogues() []string {
	sel := v.state.CurrentSelection()
	if sel.Kind == domain.KindEvent {
		return sel.ImpliedCatalogues
	}
	return sel.Selected
}

// Reload rebuilds the table rows from the events of the source
// catalogues, skipping stale entries
func (v *eventView) Reload() {
	v.rows = v.rows[:0]
	seen := make(map[string]bool)
	for _, catID := range v.sourceCatalogues() {
		events, err := v.state.Store().EventsOf(catID)
		if err != nil {
			log.Printf("ui: loading events of %s: %v", catID, err)
			continue
		}
		for _, ev := range events {
			if seen[ev.UUID] {
				continue
			}
			seen[ev.UUID] = true
			v.rows = append(v.rows, eventRow{
				uuid:   ev.UUID,
				start:  ev.Start.Format("2006-01-02 15:04:05"),
				stop:   ev.Stop.Format("2006-01-02 15:04:05"),
				author: ev.Author,
			})
		}
	}

	var order []string
	for _, id := range v.order {
		if seen[id] {
			order = append(order, id)
		} else {
			delete(v.selected, id)
		}
	}
	v.order = order
	v.refreshTable()
}

func (v *eventView) refreshTable() {
	rows := make([]table.Row, len(v.rows))
	for i, row := range v.rows {
		marker := " "
		if v.selected[row.uuid] {
			marker = "▪"
		}
		rows[i] = table.Row{marker, row.start, row.stop, row.author}
	}
	v.table.SetRows(rows)
}

func (v *eventView) ClearSelection() {
	v.selected = make(map[string]bool)
	v.order = nil
	v.refreshTable()
}

func (v *eventView) SelectUUID(uuid string) bool {
	for i, row := range v.rows {
		if row.uuid == uuid {
			if !v.selected[uuid] {
				v.selected[uuid] = true
				v.order = append(v.order, uuid)
			}
			v.table.SetCursor(i)
			v.refreshTable()
			return true
		}
	}
	return false
}

func (v *eventView) SelectedUUIDs() []string {
	return append([]string(nil), v.order...)
}

func (v *eventView) moveCursor(delta int) {
	if delta < 0 {
		v.table.MoveUp(-delta)
	} else {
		v.table.MoveDown(delta)
	}
}

func (v *eventView) toggleCursor() {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.rows) {
		return
	}
	id := v.rows[i].uuid
	if v.selected[id] {
		delete(v.selected, id)
		for j, s := range v.order {
			if s == id {
				v.order = append(v.order[:j], v.order[j+1:]...)
				break
			}
		}
	} else {
		v.selected[id] = true
		v.order = append(v.order, id)
	}
	v.refreshTable()
}

func (v *eventView) selectOnly() {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.rows) {
		return
	}
	v.ClearSelection()
	id := v.rows[i].uuid
	v.selected[id] = true
	v.order = []string{id}
	v.refreshTable()
}

func (v *eventView) render(styles *Styles, focused bool) string {
	var b strings.Builder
	b.WriteString(styles.PaneTitle.Render("Events"))
	b.WriteString("\n")
	if len(v.rows) == 0 {
		b.WriteString(styles.Dim.Render("  select a catalogue to see its events"))
		return b.String()
	}
	if focused {
		v.table.Focus()
	} else {
		v.table.Blur()
	}
	b.WriteString(v.table.View())
	return b.String()
}
