package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lineage/internal/expand"
)

func newTestManager() *Manager {
	return NewManager(nil, expand.Config{})
}

func TestManagerDefaultSession(t *testing.T) {
	m := newTestManager()

	entry, err := m.Get("")
	require.NoError(t, err)
	assert.Equal(t, DefaultID, entry.ID)

	same, err := m.Get(DefaultID)
	require.NoError(t, err)
	assert.Same(t, entry.Session, same.Session)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager()

	entry := m.Create()
	assert.NotEmpty(t, entry.ID)
	assert.NotEqual(t, DefaultID, entry.ID)

	got, err := m.Get(entry.ID)
	require.NoError(t, err)
	assert.Same(t, entry.Session, got.Session)

	// sessions are isolated
	other := m.Create()
	assert.NotSame(t, entry.Session, other.Session)
}

func TestManagerGetUnknown(t *testing.T) {
	m := newTestManager()

	_, err := m.Get("no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager()
	entry := m.Create()

	require.NoError(t, m.Delete(entry.ID))
	_, err := m.Get(entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete(entry.ID), ErrNotFound)
	assert.Error(t, m.Delete(DefaultID), "the default session is protected")
}

func TestManagerIDs(t *testing.T) {
	m := newTestManager()
	created := m.Create()

	ids := m.IDs()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, DefaultID)
	assert.Contains(t, ids, created.ID)
}

func TestManagerOnCreateCoversExistingAndFuture(t *testing.T) {
	m := newTestManager()

	var seen []string
	m.SetOnCreate(func(e *Entry) { seen = append(seen, e.ID) })

	assert.Contains(t, seen, DefaultID, "existing sessions get the hook immediately")

	entry := m.Create()
	assert.Contains(t, seen, entry.ID)
}
