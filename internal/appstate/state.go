// Package appstate holds the process-wide application state: the
// action broadcaster, the current selection, command enablement and the
// undo history. One instance is constructed at startup and passed down
// explicitly; there are no package globals.
package appstate

import (
	"log"

	"eventcat/internal/domain"
	"eventcat/internal/store"
	"eventcat/internal/undo"
)

// Subscriber receives every broadcast action, in registration order
type Subscriber func(domain.Action)

// Enablement captures which entity-scoped commands are currently valid.
// It is recomputed on active selections and on mutations; passive
// cross-highlights leave it untouched.
type Enablement struct {
	CreateEvent       bool // exactly one catalogue selected
	MoveToTrash       bool // at least one selected entity not trashed
	RestoreFromTrash  bool // at least one selected entity trashed
	DeletePermanently bool // non-empty selection
	Export            bool // non-empty selection
}

// AppState is the single action broadcaster and state owner
type AppState struct {
	store store.Store
	stack *undo.Stack

	subscribers []Subscriber
	selection   domain.SelectionState
	enablement  Enablement

	defaultAuthor string

	// delivery state: actions notified while a delivery is in progress
	// are queued and delivered afterwards, preserving the rule that no
	// subscriber is re-entered mid-notification
	delivering bool
	pending    []domain.Action

	// external observer channels
	eventsSelected     []func([]string)
	cataloguesSelected []func([]string)
	eventsChanged      []func([]string)
	cataloguesChanged  []func([]string)
}

// New creates the application state around the given store
func New(st store.Store, defaultAuthor string) *AppState {
	return &AppState{
		store:         st,
		stack:         undo.NewStack(),
		defaultAuthor: defaultAuthor,
	}
}

// Store exposes the entity store for read access by views
func (s *AppState) Store() store.Store { return s.store }

// UndoStack exposes the history for menu construction and listeners
func (s *AppState) UndoStack() *undo.Stack { return s.stack }

// Subscribe registers a subscriber. Delivery is synchronous and in
// registration order; all subscribers see an action before the next
// one is delivered.
func (s *AppState) Subscribe(fn Subscriber) {
	s.subscribers = append(s.subscribers, fn)
}

// CurrentSelection returns the last established selection
func (s *AppState) CurrentSelection() domain.SelectionState { return s.selection }

// CurrentEnablement returns the command enablement derived from the
// last active selection
func (s *AppState) CurrentEnablement() Enablement { return s.enablement }

// Notify is the sole entry point through which components announce a
// state change. The action is applied to the selection and enablement
// state, then delivered synchronously to every subscriber.
func (s *AppState) Notify(verb domain.Verb, kind domain.EntityKind, uuids []string) {
	s.pending = append(s.pending, domain.Action{Verb: verb, Kind: kind, UUIDs: uuids})
	if s.delivering {
		// a delivery is running; the current action completes first
		return
	}
	s.delivering = true
	defer func() { s.delivering = false }()

	for len(s.pending) > 0 {
		action := s.pending[0]
		s.pending = s.pending[1:]

		s.apply(action)
		for _, fn := range s.subscribers {
			fn(action)
		}
		s.emitExternal(action)
	}
}

// apply updates selection and enablement before subscribers run, so
// every subscriber observes a fully updated state
func (s *AppState) apply(action domain.Action) {
	switch action.Verb {
	case domain.VerbActiveSelect:
		next := domain.SelectionState{Kind: action.Kind, Selected: action.UUIDs}
		if action.Kind == domain.KindEvent {
			next.ImpliedCatalogues = s.impliedCatalogues(action.UUIDs)
			if len(next.ImpliedCatalogues) > 0 {
				s.pending = append(s.pending, domain.Action{
					Verb:  domain.VerbPassiveSelect,
					Kind:  domain.KindCatalogue,
					UUIDs: next.ImpliedCatalogues,
				})
			}
		}
		s.selection = next
		s.enablement = s.deriveEnablement(action.Kind, action.UUIDs)

	case domain.VerbPassiveSelect:
		// cross-highlight only: selection echo without enablement
		if s.selection.Kind == domain.KindEvent && action.Kind == domain.KindCatalogue {
			s.selection = domain.SelectionState{
				Kind:              s.selection.Kind,
				Selected:          s.selection.Selected,
				ImpliedCatalogues: action.UUIDs,
			}
		} else {
			s.selection = domain.SelectionState{Kind: action.Kind, Selected: action.UUIDs}
		}

	case domain.VerbDeleted:
		s.pruneSelection(action.Kind, action.UUIDs)
		s.refreshEnablement()

	case domain.VerbChanged, domain.VerbMoved, domain.VerbInserted:
		// entity states backing the enablement may have changed
		s.refreshEnablement()
	}
}

// pruneSelection drops permanently deleted entities from the current
// selection so later operations do not act on stale UUIDs
func (s *AppState) pruneSelection(kind domain.EntityKind, uuids []string) {
	if s.selection.Kind != kind || len(s.selection.Selected) == 0 {
		return
	}
	gone := make(map[string]bool, len(uuids))
	for _, id := range uuids {
		gone[id] = true
	}
	var kept []string
	for _, id := range s.selection.Selected {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	s.selection.Selected = kept
}

// refreshEnablement re-derives enablement from the current selection
// after a mutation; an empty selection disables everything
func (s *AppState) refreshEnablement() {
	s.enablement = s.deriveEnablement(s.selection.Kind, s.selection.Selected)
}

// impliedCatalogues resolves the catalogues containing the given
// events. Stale UUIDs are skipped; one invalid entry must not abort
// the rest.
func (s *AppState) impliedCatalogues(eventUUIDs []string) []string {
	var implied []string
	seen := make(map[string]bool)
	for _, id := range eventUUIDs {
		cats, err := s.store.CataloguesOfEvent(id)
		if err != nil {
			log.Printf("appstate: skipping stale event %s: %v", id, err)
			continue
		}
		for _, cat := range cats {
			if !seen[cat] {
				seen[cat] = true
				implied = append(implied, cat)
			}
		}
	}
	return implied
}

// deriveEnablement recomputes command validity from the current entity
// states. Runs for active selections only.
func (s *AppState) deriveEnablement(kind domain.EntityKind, uuids []string) Enablement {
	var e Enablement
	if len(uuids) == 0 {
		return e
	}

	if len(uuids) == 1 && kind == domain.KindCatalogue {
		e.CreateEvent = true
	}
	for _, id := range uuids {
		entity, err := s.store.Resolve(id)
		if err != nil {
			log.Printf("appstate: skipping stale %s %s: %v", kind, id, err)
			continue
		}
		if entity.IsRemoved() {
			e.RestoreFromTrash = true
		} else {
			e.MoveToTrash = true
		}
	}
	e.DeletePermanently = true
	e.Export = true
	return e
}

func (s *AppState) emitExternal(action domain.Action) {
	switch action.Verb {
	case domain.VerbActiveSelect:
		if action.Kind == domain.KindCatalogue {
			for _, fn := range s.cataloguesSelected {
				fn(action.UUIDs)
			}
		} else {
			for _, fn := range s.eventsSelected {
				fn(action.UUIDs)
			}
		}
	case domain.VerbChanged:
		if action.Kind == domain.KindCatalogue {
			for _, fn := range s.cataloguesChanged {
				fn(action.UUIDs)
			}
		} else {
			for _, fn := range s.eventsChanged {
				fn(action.UUIDs)
			}
		}
	}
}

// External notification channels for a host embedding this component.
// Selected channels fire on active selections only, changed channels on
// changed verbs only; passive selections and other mutations stay
// internal.

func (s *AppState) OnEventsSelected(fn func(uuids []string)) {
	s.eventsSelected = append(s.eventsSelected, fn)
}

func (s *AppState) OnCataloguesSelected(fn func(uuids []string)) {
	s.cataloguesSelected = append(s.cataloguesSelected, fn)
}

func (s *AppState) OnEventsChanged(fn func(uuids []string)) {
	s.eventsChanged = append(s.eventsChanged, fn)
}

func (s *AppState) OnCataloguesChanged(fn func(uuids []string)) {
	s.cataloguesChanged = append(s.cataloguesChanged, fn)
}
