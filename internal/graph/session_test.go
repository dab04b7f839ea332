package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/lineage/pkg/types"
)

func TestSessionUpsertInsertThenMerge(t *testing.T) {
	s := NewSession()

	isNew := s.Upsert(&types.Kitty{ID: 1, Name: "First"})
	assert.True(t, isNew)

	isNew = s.Upsert(&types.Kitty{ID: 1, Genes: "abc"})
	assert.False(t, isNew)

	k, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "First", k.Name)
	assert.Equal(t, "abc", k.Genes)
	assert.Equal(t, 1, s.Len())
}

func TestSessionUpsertRejectsInvalid(t *testing.T) {
	s := NewSession()

	assert.False(t, s.Upsert(nil))
	assert.False(t, s.Upsert(&types.Kitty{ID: 0}))
	assert.Equal(t, 0, s.Len())
}

func TestSessionIDsInsertionOrder(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 30})
	s.Upsert(&types.Kitty{ID: 10})
	s.Upsert(&types.Kitty{ID: 20})
	s.Upsert(&types.Kitty{ID: 10}) // merge, no reorder

	assert.Equal(t, []int64{30, 10, 20}, s.IDs())
}

func TestSessionGetReturnsCopy(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1, Name: "Original"})

	k, _ := s.Get(1)
	k.Name = "mutated"

	again, _ := s.Get(1)
	assert.Equal(t, "Original", again.Name)
}

func TestSessionRootIDs(t *testing.T) {
	s := NewSession()
	s.AddRootIDs(5, 3, 5)

	assert.Equal(t, []int64{3, 5}, s.RootIDs())
	assert.True(t, s.IsRoot(5))
	assert.False(t, s.IsRoot(99))
}

func TestSessionMarkExpandedOnce(t *testing.T) {
	s := NewSession()

	assert.True(t, s.MarkExpanded(7))
	assert.False(t, s.MarkExpanded(7), "second mark must report already expanded")
	assert.True(t, s.IsExpanded(7))
	assert.Equal(t, 1, s.ExpandedCount())

	s.UnmarkExpanded(7)
	assert.False(t, s.IsExpanded(7))
	assert.True(t, s.MarkExpanded(7), "rollback enables a retry")
}

func TestSessionPayloadCacheConsumedOnTake(t *testing.T) {
	s := NewSession()
	s.CachePayload(1, types.RawKitty{"id": float64(1)})

	raw, ok := s.TakeCachedPayload(1)
	require.True(t, ok)
	assert.NotNil(t, raw)

	_, ok = s.TakeCachedPayload(1)
	assert.False(t, ok, "a taken payload is gone")
}

func TestSessionResetKeepsFilterAndSubscribers(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1})
	s.AddRootIDs(1)
	s.MarkExpanded(1)
	s.SetDataURL("https://example.com/doc.json")
	s.SetFilter(types.FilterState{GenerationActive: true})

	var events []types.Event
	s.Subscribe(func(ev types.Event) { events = append(events, ev) })

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.RootIDs())
	assert.Equal(t, 0, s.ExpandedCount())
	assert.Empty(t, s.DataURL())
	assert.True(t, s.Filter().GenerationActive, "filter survives reset")

	require.NotEmpty(t, events, "subscribers survive reset and see the reset event")
	assert.Equal(t, types.EventReset, events[len(events)-1].Type)
}

func TestSessionEvents(t *testing.T) {
	s := NewSession()

	var events []types.Event
	unsubscribe := s.Subscribe(func(ev types.Event) { events = append(events, ev) })

	s.Upsert(&types.Kitty{ID: 1})
	s.Upsert(&types.Kitty{ID: 1})
	s.SetFilter(types.FilterState{})
	s.NotifyLoaded(3)

	require.Len(t, events, 4)
	assert.Equal(t, types.EventKittyAdded, events[0].Type)
	assert.True(t, events[0].New)
	assert.Equal(t, int64(1), events[0].KittyID)
	assert.False(t, events[1].New, "merge is not a new record")
	assert.Equal(t, types.EventFilterChanged, events[2].Type)
	assert.Equal(t, types.EventDataLoaded, events[3].Type)
	assert.Equal(t, 3, events[3].Count)

	unsubscribe()
	s.Upsert(&types.Kitty{ID: 2})
	assert.Len(t, events, 4, "no delivery after unsubscribe")
}

func TestNodesAndLinksProjection(t *testing.T) {
	s := NewSession()
	s.Upsert(&types.Kitty{ID: 1, Name: "Matriarch"})
	s.Upsert(&types.Kitty{ID: 3, MatronID: 1, SireID: 2}) // sire 2 has no record
	s.AddRootIDs(3)

	nodes := Nodes(s)
	require.Len(t, nodes, 2)
	assert.Equal(t, int64(1), nodes[0].ID)
	assert.False(t, nodes[0].Root)
	assert.True(t, nodes[1].Root)

	links := Links(s)
	require.Len(t, links, 1, "edges to absent parents are not rendered")
	assert.Equal(t, Link{Source: 3, Target: 1, Type: LinkMatron}, links[0])
}
