package domain

import "time"

// EntityKind discriminates the two entity types held in the store
type EntityKind string

const (
	KindCatalogue EntityKind = "catalogue"
	KindEvent     EntityKind = "event"
)

// EntityRef identifies an entity without owning it
type EntityRef struct {
	UUID string
	Kind EntityKind
}

// Entity is implemented by Catalogue and Event
type Entity interface {
	Ref() EntityRef
	IsRemoved() bool
}

// Catalogue represents a named collection of events
type Catalogue struct {
	UUID       string
	Name       string
	Author     string
	Attributes map[string]any
	Removed    bool // in trash
}

func (c *Catalogue) Ref() EntityRef  { return EntityRef{UUID: c.UUID, Kind: KindCatalogue} }
func (c *Catalogue) IsRemoved() bool { return c.Removed }

// Event represents a time range entry belonging to one or more catalogues
type Event struct {
	UUID       string
	Start      time.Time
	Stop       time.Time
	Author     string
	Attributes map[string]any
	Removed    bool // in trash
}

func (e *Event) Ref() EntityRef  { return EntityRef{UUID: e.UUID, Kind: KindEvent} }
func (e *Event) IsRemoved() bool { return e.Removed }

// SelectionState tracks the current entity selection across all views.
// It is replaced wholesale on every selection action, never mutated in place.
type SelectionState struct {
	Kind     EntityKind
	Selected []string // selected entity UUIDs, in selection order

	// ImpliedCatalogues holds the catalogues containing the selected
	// events when Kind == KindEvent, for cross-highlighting.
	ImpliedCatalogues []string
}

// IsEmpty reports whether nothing is selected
func (s SelectionState) IsEmpty() bool {
	return len(s.Selected) == 0
}
