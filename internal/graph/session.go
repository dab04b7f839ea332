// Package graph implements the shared lineage graph state and the
// algorithms that read it: normalization and merging of kitty records,
// undirected adjacency with BFS shortest paths, filter matching and
// owner matching. All mutation goes through Session methods; the
// algorithms are pure readers.
package graph

import (
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scrypster/lineage/pkg/types"
)

// defaultPayloadCacheSize bounds the raw API response cache. The original
// design kept entries indefinitely; an LRU keeps the consume-on-expand
// behavior while putting a ceiling on retained payloads.
const defaultPayloadCacheSize = 512

// Session owns one independent lineage graph: the kitty store, the set of
// explicitly requested root ids, the expansion tracking set and the raw
// payload cache. A Session is safe for concurrent use; orchestration
// serializes fetches but HTTP readers run in parallel.
type Session struct {
	mu       sync.RWMutex
	kitties  map[int64]*types.Kitty
	order    []int64
	rootIDs  map[int64]struct{}
	expanded map[int64]struct{}
	payloads *lru.Cache[int64, types.RawKitty]
	filter   types.FilterState
	dataURL  string

	subMu   sync.Mutex
	subs    map[int]func(types.Event)
	nextSub int
}

// NewSession creates an empty session.
func NewSession() *Session {
	payloads, _ := lru.New[int64, types.RawKitty](defaultPayloadCacheSize)
	return &Session{
		kitties:  make(map[int64]*types.Kitty),
		rootIDs:  make(map[int64]struct{}),
		expanded: make(map[int64]struct{}),
		payloads: payloads,
		subs:     make(map[int]func(types.Event)),
	}
}

// Reset clears all graph state. Subscribers and the active filter survive a
// reset so a reload keeps notifying the same listeners.
func (s *Session) Reset() {
	s.mu.Lock()
	s.kitties = make(map[int64]*types.Kitty)
	s.order = nil
	s.rootIDs = make(map[int64]struct{})
	s.expanded = make(map[int64]struct{})
	s.payloads.Purge()
	s.dataURL = ""
	s.mu.Unlock()

	s.notify(types.Event{Type: types.EventReset})
}

// Get returns a copy of the kitty with the given id.
// Merges always build fresh records, so the copy shares no mutable state
// with subsequent writes.
func (s *Session) Get(id int64) (*types.Kitty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kitties[id]
	if !ok {
		return nil, false
	}
	copied := *k
	return &copied, true
}

// Has reports whether the session holds a record for id.
func (s *Session) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.kitties[id]
	return ok
}

// Len returns the number of kitties in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kitties)
}

// IDs returns all kitty ids in insertion order.
func (s *Session) IDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, len(s.order))
	copy(ids, s.order)
	return ids
}

// Kitties returns copies of all kitties in insertion order.
func (s *Session) Kitties() []*types.Kitty {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Kitty, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.kitties[id]
		out = append(out, &copied)
	}
	return out
}

// Upsert inserts the kitty, or merges it into the existing record per the
// overwrite rules in Merge. Returns true when a new record was inserted.
func (s *Session) Upsert(k *types.Kitty) bool {
	if k == nil || k.ID <= 0 {
		return false
	}

	s.mu.Lock()
	existing, ok := s.kitties[k.ID]
	if ok {
		s.kitties[k.ID] = Merge(existing, k)
	} else {
		s.kitties[k.ID] = k
		s.order = append(s.order, k.ID)
	}
	s.mu.Unlock()

	s.notify(types.Event{Type: types.EventKittyAdded, KittyID: k.ID, New: !ok})
	return !ok
}

// AddRootIDs records ids the user explicitly requested.
func (s *Session) AddRootIDs(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.rootIDs[id] = struct{}{}
	}
}

// RootIDs returns the explicitly requested ids, ascending.
func (s *Session) RootIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.rootIDs))
	for id := range s.rootIDs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// IsRoot reports whether id was explicitly requested.
func (s *Session) IsRoot(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rootIDs[id]
	return ok
}

// MarkExpanded atomically marks id as expanded. Returns false if it was
// already marked, which makes double expansion a detectable no-op.
func (s *Session) MarkExpanded(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expanded[id]; ok {
		return false
	}
	s.expanded[id] = struct{}{}
	return true
}

// UnmarkExpanded rolls back an expansion mark after a failed fetch so a
// retry is possible.
func (s *Session) UnmarkExpanded(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expanded, id)
}

// IsExpanded reports whether id has been expanded.
func (s *Session) IsExpanded(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[id]
	return ok
}

// ExpandedCount returns the number of expanded ids.
func (s *Session) ExpandedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expanded)
}

// CachePayload stores a raw API response for later expansion of id.
func (s *Session) CachePayload(id int64, raw types.RawKitty) {
	s.payloads.Add(id, raw)
}

// TakeCachedPayload consumes the cached payload for id, removing it.
func (s *Session) TakeCachedPayload(id int64) (types.RawKitty, bool) {
	raw, ok := s.payloads.Get(id)
	if ok {
		s.payloads.Remove(id)
	}
	return raw, ok
}

// SetFilter replaces the active filter state.
func (s *Session) SetFilter(f types.FilterState) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	s.notify(types.Event{Type: types.EventFilterChanged})
}

// Filter returns the active filter state.
func (s *Session) Filter() types.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetDataURL records the URL a bulk document was loaded from, used for
// permalink minimization when the graph has not been expanded since.
func (s *Session) SetDataURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataURL = url
}

// DataURL returns the recorded bulk document URL, if any.
func (s *Session) DataURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataURL
}

// Subscribe registers fn for graph update events and returns a function
// that removes the subscription. Events are delivered synchronously from
// the mutating goroutine; subscribers must not block.
func (s *Session) Subscribe(fn func(types.Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// NotifyLoaded announces a completed load or expansion.
func (s *Session) NotifyLoaded(count int) {
	s.notify(types.Event{Type: types.EventDataLoaded, Count: count})
}

func (s *Session) notify(ev types.Event) {
	s.subMu.Lock()
	fns := make([]func(types.Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
