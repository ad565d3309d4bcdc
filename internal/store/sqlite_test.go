package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcat/internal/domain"
)

func openSQLite(t *testing.T) Store {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "catalogues.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStore(t *testing.T) {
	storeSuite(t, openSQLite)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogues.db")

	st, err := OpenSQLite(path)
	require.NoError(t, err)

	catID := mkCatalogue(t, st, "Durable")
	evID := mkEvent(t, st, catID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, st.Persist())
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()

	entity, err := st.Resolve(catID)
	require.NoError(t, err)
	assert.Equal(t, "Durable", entity.(*domain.Catalogue).Name)

	events, err := st.EventsOf(catID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, evID, events[0].UUID)
}

func TestSQLiteAttributesRoundTrip(t *testing.T) {
	st := openSQLite(t)

	id, err := st.Create(domain.KindCatalogue, Fields{
		"name":       "Tagged",
		"attributes": map[string]any{"mission": "mms", "priority": float64(3)},
	})
	require.NoError(t, err)

	entity, err := st.Resolve(id)
	require.NoError(t, err)
	attrs := entity.(*domain.Catalogue).Attributes
	assert.Equal(t, "mms", attrs["mission"])
	assert.Equal(t, float64(3), attrs["priority"])
}
