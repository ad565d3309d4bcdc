// Package viewsync keeps view-native selections and the broadcast
// selection state in step without feedback loops.
package viewsync

import (
	"log"

	"eventcat/internal/domain"
)

// View is the native selection surface of one list or tree view
type View interface {
	// Reload tells the view its backing collection changed shape; it
	// must rebuild before selection is re-applied
	Reload()
	// ClearSelection drops the view's native selection
	ClearSelection()
	// SelectUUID adds the entity to the native selection, reporting
	// false when the view has no row for it
	SelectUUID(uuid string) bool
	// SelectedUUIDs returns the current native selection
	SelectedUUIDs() []string
}

// Notifier receives user-originated selection changes
type Notifier interface {
	Notify(verb domain.Verb, kind domain.EntityKind, uuids []string)
}

// Origin tags where a selection change came from
type Origin int

const (
	// OriginUser marks a change made through direct interaction
	OriginUser Origin = iota
	// OriginProgrammatic marks a rebuild driven by a broadcast action
	OriginProgrammatic
)

// Synchronizer converts broadcast actions into native selection for one
// view, and native selection changes back into active_select actions.
// While a programmatic rebuild is in progress the view's own
// selection-changed callback is suppressed, so a single user click
// produces exactly one notification.
type Synchronizer struct {
	kind     domain.EntityKind
	view     View
	notifier Notifier
	origin   Origin
}

// New creates a synchronizer for a view showing entities of one kind
func New(kind domain.EntityKind, view View, notifier Notifier) *Synchronizer {
	return &Synchronizer{kind: kind, view: view, notifier: notifier}
}

// HandleAction is the broadcaster subscriber. Mutation verbs reload the
// view before the selection re-apply; selection verbs re-apply only.
func (s *Synchronizer) HandleAction(action domain.Action) {
	if action.Kind != s.kind {
		return
	}
	if action.Verb.IsMutation() {
		s.view.Reload()
	}
	s.applyProgrammatic(action.UUIDs)
}

// applyProgrammatic rebuilds the native selection under the origin
// guard. The guard is released on every exit path.
func (s *Synchronizer) applyProgrammatic(uuids []string) {
	s.origin = OriginProgrammatic
	defer func() { s.origin = OriginUser }()

	s.view.ClearSelection()
	for _, id := range uuids {
		if !s.view.SelectUUID(id) {
			// stale UUID: skip it, keep applying the rest
			log.Printf("viewsync: no %s row for %s", s.kind, id)
		}
	}
}

// SelectionChanged is the view's native selection-changed callback.
// Changes caused by a programmatic rebuild are ignored; user changes
// are broadcast as one active selection.
func (s *Synchronizer) SelectionChanged() {
	if s.origin == OriginProgrammatic {
		return
	}
	s.notifier.Notify(domain.VerbActiveSelect, s.kind, s.view.SelectedUUIDs())
}
