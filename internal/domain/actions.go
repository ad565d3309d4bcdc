package domain

// Verb describes what happened to a set of entities
type Verb string

// Action verbs
const (
	VerbChanged  Verb = "changed"
	VerbMoved    Verb = "moved" // moved to or from trash
	VerbInserted Verb = "inserted"
	VerbDeleted  Verb = "deleted"

	// VerbActiveSelect originates from direct user interaction
	VerbActiveSelect Verb = "active_select"
	// VerbPassiveSelect is a derived selection echo (cross-highlight);
	// it must not affect command enablement
	VerbPassiveSelect Verb = "passive_select"
)

// Action is the typed notification broadcast for every mutation or
// selection change
type Action struct {
	Verb  Verb
	Kind  EntityKind
	UUIDs []string
}

// IsSelect reports whether the verb is one of the selection verbs
func (v Verb) IsSelect() bool {
	return v == VerbActiveSelect || v == VerbPassiveSelect
}

// IsMutation reports whether the verb describes a store mutation that
// changed the shape of the backing collections
func (v Verb) IsMutation() bool {
	switch v {
	case VerbChanged, VerbMoved, VerbInserted, VerbDeleted:
		return true
	}
	return false
}

// Inverse returns the verb emitted when the mutation is undone
func (v Verb) Inverse() Verb {
	switch v {
	case VerbInserted:
		return VerbDeleted
	case VerbDeleted:
		return VerbInserted
	}
	return v
}
