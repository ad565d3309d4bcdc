package appstate

import (
	"errors"
	"fmt"
	"time"

	"eventcat/internal/domain"
	"eventcat/internal/store"
	"eventcat/internal/undo"
)

// ErrDisabled is returned when an entity-scoped operation is requested
// while its enablement flag is off. The UI should prevent this; the
// core tolerates it as a rejected no-op rather than corrupting state.
var ErrDisabled = errors.New("operation not enabled for the current selection")

// DefaultCatalogueName is the name given to catalogues created without one
const DefaultCatalogueName = "New Catalogue"

// CreateCatalogue pushes a catalogue creation onto the undo history
func (s *AppState) CreateCatalogue(name string) error {
	if name == "" {
		name = DefaultCatalogueName
	}
	return s.push(undo.NewCreateCatalogue(s.store, s, name, s.defaultAuthor))
}

// CreateEvent pushes an event creation into the single selected
// catalogue. Zero times default to a one-hour range starting now.
func (s *AppState) CreateEvent(start, stop time.Time) error {
	if !s.enablement.CreateEvent {
		return ErrDisabled
	}
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Second)
	}
	if stop.IsZero() {
		stop = start.Add(time.Hour)
	}
	catalogueUUID := s.selection.Selected[0]
	return s.push(undo.NewCreateEvent(s.store, s, catalogueUUID, start, stop, s.defaultAuthor))
}

// MoveSelectionToTrash trashes the current selection
func (s *AppState) MoveSelectionToTrash() error {
	if !s.enablement.MoveToTrash {
		return ErrDisabled
	}
	return s.push(undo.NewMoveToTrash(s.store, s, s.selection.Kind, s.selection.Selected))
}

// RestoreSelectionFromTrash restores the current selection
func (s *AppState) RestoreSelectionFromTrash() error {
	if !s.enablement.RestoreFromTrash {
		return ErrDisabled
	}
	return s.push(undo.NewRestoreFromTrash(s.store, s, s.selection.Kind, s.selection.Selected))
}

// DeleteSelectionPermanently purges the current selection
func (s *AppState) DeleteSelectionPermanently() error {
	if !s.enablement.DeletePermanently {
		return ErrDisabled
	}
	return s.push(undo.NewDeletePermanently(s.store, s, s.selection.Kind, s.selection.Selected))
}

// Import canonicalizes a raw JSON document and pushes the import. The
// filename is only used for the history label.
func (s *AppState) Import(filename string, raw []byte) error {
	desc, err := s.store.CanonicalizeImport(raw)
	if err != nil {
		return fmt.Errorf("import %s: %w", filename, err)
	}
	return s.push(undo.NewImport(s.store, s, filename, desc))
}

// ExportSelection serializes the catalogues of the current selection:
// the selected catalogues, or the catalogues containing the selected
// events.
func (s *AppState) ExportSelection() ([]byte, error) {
	if !s.enablement.Export {
		return nil, ErrDisabled
	}
	catalogues := s.selection.Selected
	if s.selection.Kind == domain.KindEvent {
		catalogues = s.selection.ImpliedCatalogues
	}
	data, err := s.store.ExportJSON(catalogues)
	if err != nil {
		return nil, fmt.Errorf("export selection: %w", err)
	}
	return data, nil
}

func (s *AppState) push(cmd undo.Command) error {
	if err := s.stack.Push(cmd); err != nil {
		return fmt.Errorf("push command: %w", err)
	}
	return nil
}

// Undo unwinds the most recent command. A store failure here breaks
// history integrity and is surfaced as ErrHistoryCorrupt.
func (s *AppState) Undo() error { return s.stack.Undo() }

// Redo re-applies the next undone command
func (s *AppState) Redo() error { return s.stack.Redo() }

// SetHistoryIndex jumps to an absolute history position via iterated
// single steps, so every intermediate action is broadcast
func (s *AppState) SetHistoryIndex(index int) error { return s.stack.SetIndex(index) }

// Save persists the store and marks the history clean
func (s *AppState) Save() error {
	if err := s.store.Persist(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.stack.MarkClean()
	return nil
}

// IsClean reports whether all applied commands are persisted
func (s *AppState) IsClean() bool { return s.stack.IsClean() }

// RefreshSelection re-issues the current selection so all views rebuild
// from the store. For event selections the catalogue cross-highlight is
// re-issued first.
func (s *AppState) RefreshSelection() {
	current := s.selection
	if current.Kind == domain.KindEvent && len(current.ImpliedCatalogues) > 0 {
		s.Notify(domain.VerbPassiveSelect, domain.KindCatalogue, current.ImpliedCatalogues)
	}
	s.Notify(domain.VerbActiveSelect, current.Kind, current.Selected)
}

// UpdateEventRange changes an event's time range outside the undo
// history and broadcasts the change
func (s *AppState) UpdateEventRange(uuid string, start, stop time.Time) error {
	entity, err := s.store.Resolve(uuid)
	if err != nil {
		return fmt.Errorf("event %s: %w", uuid, err)
	}
	ev, ok := entity.(*domain.Event)
	if !ok {
		return fmt.Errorf("event %s: %w", uuid, store.ErrKindMismatch)
	}
	ev.Start = start
	ev.Stop = stop
	if err := s.store.UpdateEvent(ev); err != nil {
		return fmt.Errorf("update event %s: %w", uuid, err)
	}
	s.Notify(domain.VerbChanged, domain.KindEvent, []string{uuid})
	return nil
}

// RenameCatalogue changes a catalogue's name outside the undo history
// and broadcasts the change
func (s *AppState) RenameCatalogue(uuid, name string) error {
	entity, err := s.store.Resolve(uuid)
	if err != nil {
		return fmt.Errorf("catalogue %s: %w", uuid, err)
	}
	cat, ok := entity.(*domain.Catalogue)
	if !ok {
		return fmt.Errorf("catalogue %s: %w", uuid, store.ErrKindMismatch)
	}
	cat.Name = name
	if err := s.store.UpdateCatalogue(cat); err != nil {
		return fmt.Errorf("update catalogue %s: %w", uuid, err)
	}
	s.Notify(domain.VerbChanged, domain.KindCatalogue, []string{uuid})
	return nil
}
