package appstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcat/internal/domain"
	"eventcat/internal/store"
)

func newState(t *testing.T) (*AppState, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return New(st, "tester"), st
}

func activeSelect(s *AppState, kind domain.EntityKind, uuids ...string) {
	s.Notify(domain.VerbActiveSelect, kind, uuids)
}

func TestCreateCatalogueLifecycle(t *testing.T) {
	s, st := newState(t)

	require.NoError(t, s.CreateCatalogue("Solar Wind"))
	require.Equal(t, 1, s.UndoStack().Count())
	require.Equal(t, 1, s.UndoStack().Index())
	assert.False(t, s.IsClean())

	cats, err := st.Catalogues(true)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	id := cats[0].UUID

	require.NoError(t, s.Save())
	assert.True(t, s.IsClean())

	require.NoError(t, s.Undo())
	assert.Equal(t, 0, s.UndoStack().Index())
	assert.False(t, s.IsClean())
	_, err = st.Resolve(id)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Redo())
	assert.Equal(t, 1, s.UndoStack().Index())
	assert.False(t, s.IsClean())
	entity, err := st.Resolve(id)
	require.NoError(t, err, "redo must bring the catalogue back under the same uuid")
	assert.Equal(t, id, entity.Ref().UUID)
}

func TestEnablementFollowsTrashState(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	id := cats[0].UUID

	activeSelect(s, domain.KindCatalogue, id)
	e := s.CurrentEnablement()
	assert.True(t, e.MoveToTrash)
	assert.False(t, e.RestoreFromTrash)
	assert.True(t, e.CreateEvent, "exactly one catalogue selected")
	assert.True(t, e.DeletePermanently)
	assert.True(t, e.Export)

	require.NoError(t, s.MoveSelectionToTrash())

	activeSelect(s, domain.KindCatalogue, id)
	e = s.CurrentEnablement()
	assert.False(t, e.MoveToTrash)
	assert.True(t, e.RestoreFromTrash)
}

func TestEmptySelectionDisablesEverything(t *testing.T) {
	s, _ := newState(t)
	activeSelect(s, domain.KindCatalogue)

	e := s.CurrentEnablement()
	assert.Equal(t, Enablement{}, e)
	require.ErrorIs(t, s.MoveSelectionToTrash(), ErrDisabled)
	require.ErrorIs(t, s.DeleteSelectionPermanently(), ErrDisabled)
	_, err := s.ExportSelection()
	require.ErrorIs(t, err, ErrDisabled)
}

func TestCreateEventRequiresSingleCatalogue(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	require.NoError(t, s.CreateCatalogue("B"))
	cats, _ := st.Catalogues(true)

	activeSelect(s, domain.KindCatalogue, cats[0].UUID, cats[1].UUID)
	require.ErrorIs(t, s.CreateEvent(time.Time{}, time.Time{}), ErrDisabled)

	activeSelect(s, domain.KindCatalogue, cats[0].UUID)
	require.NoError(t, s.CreateEvent(time.Time{}, time.Time{}))

	events, err := st.EventsOf(cats[0].UUID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestEventSelectionImpliesCatalogues(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	catID := cats[0].UUID

	activeSelect(s, domain.KindCatalogue, catID)
	require.NoError(t, s.CreateEvent(time.Time{}, time.Time{}))
	events, _ := st.EventsOf(catID)
	evID := events[0].UUID

	var seen []domain.Action
	s.Subscribe(func(a domain.Action) { seen = append(seen, a) })

	activeSelect(s, domain.KindEvent, evID)

	sel := s.CurrentSelection()
	assert.Equal(t, domain.KindEvent, sel.Kind)
	assert.Equal(t, []string{evID}, sel.Selected)
	assert.Equal(t, []string{catID}, sel.ImpliedCatalogues)

	// the active event selection is followed by exactly one passive
	// catalogue echo, delivered after the active action completed
	require.Len(t, seen, 2)
	assert.Equal(t, domain.VerbActiveSelect, seen[0].Verb)
	assert.Equal(t, domain.KindEvent, seen[0].Kind)
	assert.Equal(t, domain.VerbPassiveSelect, seen[1].Verb)
	assert.Equal(t, domain.KindCatalogue, seen[1].Kind)
	assert.Equal(t, []string{catID}, seen[1].UUIDs)
}

func TestPassiveSelectDoesNotTouchEnablement(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	id := cats[0].UUID

	activeSelect(s, domain.KindCatalogue, id)
	before := s.CurrentEnablement()
	require.True(t, before.MoveToTrash)

	s.Notify(domain.VerbPassiveSelect, domain.KindCatalogue, nil)
	assert.Equal(t, before, s.CurrentEnablement(),
		"passive selections are cross-highlights, not command targets")
}

func TestStaleSelectionUUIDsAreSkipped(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	id := cats[0].UUID

	activeSelect(s, domain.KindCatalogue, "00000000-0000-0000-0000-000000000000", id)
	e := s.CurrentEnablement()
	assert.True(t, e.MoveToTrash, "one stale uuid must not abort the rest of the selection")
	assert.True(t, e.DeletePermanently)
}

func TestExternalChannels(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	catID := cats[0].UUID

	activeSelect(s, domain.KindCatalogue, catID)
	require.NoError(t, s.CreateEvent(time.Time{}, time.Time{}))
	events, _ := st.EventsOf(catID)
	evID := events[0].UUID

	var catSelected, evSelected, catChanged, evChanged [][]string
	s.OnCataloguesSelected(func(u []string) { catSelected = append(catSelected, u) })
	s.OnEventsSelected(func(u []string) { evSelected = append(evSelected, u) })
	s.OnCataloguesChanged(func(u []string) { catChanged = append(catChanged, u) })
	s.OnEventsChanged(func(u []string) { evChanged = append(evChanged, u) })

	// active event selection: events-selected fires; the passive
	// catalogue echo must stay internal
	activeSelect(s, domain.KindEvent, evID)
	require.Len(t, evSelected, 1)
	assert.Empty(t, catSelected)

	activeSelect(s, domain.KindCatalogue, catID)
	require.Len(t, catSelected, 1)

	// mutations other than changed stay internal
	require.NoError(t, s.MoveSelectionToTrash())
	assert.Empty(t, catChanged)
	assert.Empty(t, evChanged)

	require.NoError(t, s.RenameCatalogue(catID, "B"))
	require.Len(t, catChanged, 1)
	assert.Equal(t, []string{catID}, catChanged[0])

	require.NoError(t, s.UpdateEventRange(evID,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)))
	require.Len(t, evChanged, 1)
}

func TestSetHistoryIndexMatchesSequentialStepping(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	require.NoError(t, s.CreateCatalogue("B"))
	require.NoError(t, s.CreateCatalogue("C"))

	var seen []domain.Action
	s.Subscribe(func(a domain.Action) { seen = append(seen, a) })

	require.NoError(t, s.SetHistoryIndex(0))
	require.Len(t, seen, 3, "each intermediate undo must broadcast its own action")
	for _, a := range seen {
		assert.Equal(t, domain.VerbDeleted, a.Verb)
	}

	cats, err := st.Catalogues(true)
	require.NoError(t, err)
	assert.Empty(t, cats)

	seen = nil
	require.NoError(t, s.SetHistoryIndex(3))
	require.Len(t, seen, 3)
	for _, a := range seen {
		assert.Equal(t, domain.VerbInserted, a.Verb)
	}
	cats, _ = st.Catalogues(true)
	assert.Len(t, cats, 3)
}

func TestImportExportRoundTrip(t *testing.T) {
	s, st := newState(t)

	raw := []byte(`{"catalogues": [
		{"name": "Imported", "events": [
			{"start": "2024-05-01T00:00:00Z", "stop": "2024-05-01T01:00:00Z"}
		]}
	]}`)
	require.NoError(t, s.Import("in.json", raw))

	cats, err := st.Catalogues(true)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	activeSelect(s, domain.KindCatalogue, cats[0].UUID)
	data, err := s.ExportSelection()
	require.NoError(t, err)

	desc, err := store.NewMemoryStore().CanonicalizeImport(data)
	require.NoError(t, err)
	require.Len(t, desc.Catalogues, 1)
	assert.Equal(t, "Imported", desc.Catalogues[0].Name)
	require.Len(t, desc.Catalogues[0].Events, 1)

	require.NoError(t, s.Undo())
	cats, _ = st.Catalogues(true)
	assert.Empty(t, cats, "undoing the import removes what it created")
}

func TestImportRejectsBadDocument(t *testing.T) {
	s, _ := newState(t)
	err := s.Import("bad.json", []byte(`{"catalogues": [{"events": []}]}`))
	require.ErrorIs(t, err, store.ErrInvalidImport)
	assert.Equal(t, 0, s.UndoStack().Count(), "a failed import must not reach the history")
}

func TestRefreshSelectionReissuesCurrentSelection(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	catID := cats[0].UUID
	activeSelect(s, domain.KindCatalogue, catID)
	require.NoError(t, s.CreateEvent(time.Time{}, time.Time{}))
	events, _ := st.EventsOf(catID)
	activeSelect(s, domain.KindEvent, events[0].UUID)

	var seen []domain.Action
	s.Subscribe(func(a domain.Action) { seen = append(seen, a) })

	s.RefreshSelection()

	// passive catalogue echo first, then the active event selection
	// (which derives one more passive echo)
	require.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, domain.VerbPassiveSelect, seen[0].Verb)
	assert.Equal(t, domain.KindCatalogue, seen[0].Kind)
	assert.Equal(t, domain.VerbActiveSelect, seen[1].Verb)
	assert.Equal(t, domain.KindEvent, seen[1].Kind)
}

func TestMutationRefreshesEnablement(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	cats, _ := st.Catalogues(true)
	activeSelect(s, domain.KindCatalogue, cats[0].UUID)

	require.NoError(t, s.MoveSelectionToTrash())
	e := s.CurrentEnablement()
	assert.False(t, e.MoveToTrash, "trashing must disable a second trash without re-selecting")
	assert.True(t, e.RestoreFromTrash)

	require.NoError(t, s.RestoreSelectionFromTrash())
	e = s.CurrentEnablement()
	assert.True(t, e.MoveToTrash)
	assert.False(t, e.RestoreFromTrash)
}

func TestDeletePrunesSelection(t *testing.T) {
	s, st := newState(t)
	require.NoError(t, s.CreateCatalogue("A"))
	require.NoError(t, s.CreateCatalogue("B"))
	cats, _ := st.Catalogues(true)

	activeSelect(s, domain.KindCatalogue, cats[0].UUID)
	require.NoError(t, s.DeleteSelectionPermanently())

	assert.Empty(t, s.CurrentSelection().Selected)
	assert.Equal(t, Enablement{}, s.CurrentEnablement())
	require.ErrorIs(t, s.DeleteSelectionPermanently(), ErrDisabled)
}
